//go:build test

package engine

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/bastiangx/bardbook/pkg/session"
)

var typingPatterns = [][]string{
	{"v", "vi", "vic", "vici", "vicio", "viciou", "vicious"},
	{"t", "th", "thu", "thun", "thund", "thunde", "thunder"},
	{"d", "dr", "dra", "drag", "drago", "dragon"},
	{"m", "mo", "moc", "mock", "mocke", "mocker", "mockery"},
}

func largeCatalog(n int) *catalog.Catalog {
	entries := make([]search.Entry, 0, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			entries = append(entries, search.Card{Title: fmt.Sprintf("Vicious Mockery %d", i), Subtitle: "cantrip"})
		case 1:
			entries = append(entries, search.Card{Title: fmt.Sprintf("Thunderwave %d", i), Attribution: "PHB"})
		default:
			entries = append(entries, search.Line(fmt.Sprintf("The dragon number %d sleeps", i)))
		}
	}
	return catalog.New(catalog.Section{Name: "bulk", Entries: entries})
}

func TestArenaStaysBounded(t *testing.T) {
	const arena = 128
	e, err := New(session.New(nil, true), largeCatalog(600), Options{Threshold: 2, ArenaSize: arena})
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	defer e.Close()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	passes := 0
	for iter := 0; iter < 50; iter++ {
		for _, pattern := range typingPatterns {
			for _, text := range pattern {
				e.Session().SetText(text)
				e.Refresh()
				passes++
			}
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)
	memDelta := int64(final.HeapAlloc) - int64(baseline.HeapAlloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines

	stats := e.Observer().Stats()
	t.Logf("passes=%d mem_delta=%d bytes remembered=%d highlighted=%d goroutine_delta=%d",
		passes, memDelta, stats.Remembered, stats.Highlighted, goroutineDelta)

	if stats.Remembered > arena {
		t.Errorf("arena grew past its cap: %d > %d", stats.Remembered, arena)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func TestConcurrentRefresh(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 40},
		{workers: 4, iterationsPerWorker: 10},
		{workers: 8, iterationsPerWorker: 5},
	}

	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", config.workers, config.iterationsPerWorker), func(t *testing.T) {
			e, err := New(session.New(nil, true), largeCatalog(300), Options{Threshold: 2, ArenaSize: 256})
			if err != nil {
				t.Fatalf("engine init failed: %v", err)
			}
			defer e.Close()

			var wg sync.WaitGroup
			for w := 0; w < config.workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					pattern := typingPatterns[w%len(typingPatterns)]
					for iter := 0; iter < config.iterationsPerWorker; iter++ {
						for _, text := range pattern {
							e.Session().SetText(text)
							res := e.Refresh()
							if res.Count.Filtering && res.Count.N != len(res.Nodes) {
								t.Errorf("count %d does not match %d rendered nodes", res.Count.N, len(res.Nodes))
							}
						}
					}
				}(w)
			}
			wg.Wait()

			if r := e.Observer().Stats().Remembered; r > 256 {
				t.Errorf("arena grew past its cap: %d", r)
			}
		})
	}
}

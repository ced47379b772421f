package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	setErr error
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}}
}

func (m *mapStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func TestDefaultsAndPersistence(t *testing.T) {
	store := newMapStore()

	s := New(store, true)
	assert.True(t, s.Current().Fuzzy, "missing preference falls back to default")

	require.True(t, s.SetFuzzyEnabled(false))
	assert.Equal(t, "false", store.values[FuzzyKey])

	reloaded := New(store, true)
	assert.False(t, reloaded.Current().Fuzzy, "persisted toggle survives a new session")

	require.True(t, reloaded.SetFuzzyEnabled(true))
	assert.True(t, New(store, false).Current().Fuzzy)
}

func TestStoreFailuresAreIgnored(t *testing.T) {
	store := newMapStore()
	store.getErr = errors.New("disk on fire")
	store.setErr = errors.New("disk on fire")

	s := New(store, true)
	assert.True(t, s.Current().Fuzzy)

	assert.True(t, s.SetFuzzyEnabled(false))
	assert.False(t, s.Current().Fuzzy, "in-memory toggle changes even when persisting fails")
}

func TestInvalidStoredValue(t *testing.T) {
	store := newMapStore()
	store.values[FuzzyKey] = "maybe"
	assert.False(t, New(store, false).Current().Fuzzy)
	assert.True(t, New(store, true).Current().Fuzzy)
}

func TestNotifyOnlyOnChange(t *testing.T) {
	s := New(nil, true)

	var got []search.Query
	unsubscribe := s.Subscribe(func(q search.Query) { got = append(got, q) })

	assert.True(t, s.SetText("  mock  "))
	assert.False(t, s.SetText("mock"), "same trimmed text is not a change")
	assert.False(t, s.SetFuzzyEnabled(true), "same toggle is not a change")
	assert.True(t, s.SetFuzzyEnabled(false))
	assert.True(t, s.SetText(""))

	require.Len(t, got, 3)
	assert.Equal(t, search.Query{Text: "mock", Fuzzy: true}, got[0])
	assert.Equal(t, search.Query{Text: "mock", Fuzzy: false}, got[1])
	assert.Equal(t, search.Query{Text: "", Fuzzy: false}, got[2])

	unsubscribe()
	unsubscribe()
	s.SetText("again")
	assert.Len(t, got, 3, "no notifications after unsubscribe")
}

func TestListenerMayReadSession(t *testing.T) {
	s := New(nil, true)
	var seen search.Query
	s.Subscribe(func(search.Query) { seen = s.Current() })

	s.SetText("thunder")
	assert.Equal(t, "thunder", seen.Text)
}

func TestUnsubscribeKeepsOthers(t *testing.T) {
	s := New(nil, true)
	var a, b int
	unsubA := s.Subscribe(func(search.Query) { a++ })
	s.Subscribe(func(search.Query) { b++ })

	unsubA()
	s.SetText("x")
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestConcurrentUse(t *testing.T) {
	s := New(newMapStore(), true)
	s.Subscribe(func(search.Query) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetText(string(rune('a' + j%26)))
				s.SetFuzzyEnabled(j%2 == 0)
				_ = s.Current()
			}
		}()
	}
	wg.Wait()
}

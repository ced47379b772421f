// Package observer reacts to rendered result content: it reports how many
// results are on screen and highlights the active query inside them, exactly
// once per node per query.
package observer

import (
	"fmt"
	"sync"

	"github.com/bastiangx/bardbook/pkg/highlight"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultArenaSize bounds how many nodes remember their highlight state.
const DefaultArenaSize = 4096

// NodeID identifies a rendered result node for as long as it is on screen.
type NodeID string

// Span is a text-bearing child of a result node.
type Span interface {
	// Text returns the plain text of the span.
	Text() string
	// SetMarkup replaces the span contents with escaped markup.
	SetMarkup(markup string)
}

// Node is a rendered result.
type Node interface {
	ID() NodeID
	Spans() []Span
}

// Count is the number of rendered results, or no count at all when the query
// is empty and nothing is being filtered.
type Count struct {
	N         int
	Filtering bool
}

// NoFilter is the count reported for an empty query.
func NoFilter() Count {
	return Count{}
}

// Filtered returns the count for n results of an active query.
func Filtered(n int) Count {
	return Count{N: n, Filtering: true}
}

// String renders the count for status lines.
func (c Count) String() string {
	if !c.Filtering {
		return "none"
	}
	return fmt.Sprintf("%d", c.N)
}

// Reporter receives result counts.
type Reporter interface {
	UpdateResultCount(count Count, query string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(count Count, query string)

// UpdateResultCount calls f.
func (f ReporterFunc) UpdateResultCount(count Count, query string) {
	f(count, query)
}

// QuerySource supplies the active query.
type QuerySource interface {
	Current() search.Query
}

// Options configures an Observer.
type Options struct {
	// ArenaSize caps remembered highlight states. Zero means DefaultArenaSize.
	ArenaSize int
	// Highlighter renders marks. Nil means highlight.Default().
	Highlighter *highlight.Highlighter
}

// Stats counts observer work since creation.
type Stats struct {
	Passes        int
	Highlighted   int
	Skipped       int
	Invalidations int
	Remembered    int
}

// Observer handles content-change notifications from a renderer.
// It is safe for concurrent use.
type Observer struct {
	source   QuerySource
	reporter Reporter
	hl       *highlight.Highlighter

	mu    sync.Mutex
	arena *lru.Cache[NodeID, string]
	stats Stats
}

// New creates an observer reading the query from source and reporting counts
// to reporter.
func New(source QuerySource, reporter Reporter, opts Options) (*Observer, error) {
	if source == nil {
		return nil, fmt.Errorf("observer: nil query source")
	}
	size := opts.ArenaSize
	if size <= 0 {
		size = DefaultArenaSize
	}
	arena, err := lru.New[NodeID, string](size)
	if err != nil {
		return nil, fmt.Errorf("observer: create arena: %w", err)
	}
	hl := opts.Highlighter
	if hl == nil {
		hl = highlight.Default()
	}
	return &Observer{
		source:   source,
		reporter: reporter,
		hl:       hl,
		arena:    arena,
	}, nil
}

// OnContentChanged runs one pass over the currently rendered result nodes.
// It reports the count, then, for a non-empty query, rewrites the spans of
// every node not yet highlighted for that query and remembers it.
func (o *Observer) OnContentChanged(nodes []Node) {
	q := o.source.Current()

	count := NoFilter()
	if q.Active() {
		count = Filtered(len(nodes))
	}

	o.mu.Lock()
	o.stats.Passes++
	if q.Active() {
		for _, n := range nodes {
			id := n.ID()
			if marked, ok := o.arena.Get(id); ok && marked == q.Text {
				o.stats.Skipped++
				continue
			}
			for _, span := range n.Spans() {
				span.SetMarkup(o.hl.Highlight(span.Text(), q.Text))
			}
			o.arena.Add(id, q.Text)
			o.stats.Highlighted++
		}
	}
	o.mu.Unlock()

	if o.reporter != nil {
		o.reporter.UpdateResultCount(count, q.Text)
	}
	log.Debugf("observer pass: %d nodes, count=%s, query=%q", len(nodes), count, q.Text)
}

// Invalidate forgets every highlight state. The next pass re-highlights all nodes.
func (o *Observer) Invalidate() {
	o.mu.Lock()
	o.arena.Purge()
	o.stats.Invalidations++
	o.mu.Unlock()
}

// OnQueryChanged invalidates on any session change; it matches the session
// listener signature.
func (o *Observer) OnQueryChanged(search.Query) {
	o.Invalidate()
}

// Stats returns a snapshot of the observer counters.
func (o *Observer) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.stats
	s.Remembered = o.arena.Len()
	return s
}

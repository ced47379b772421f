// Package engine runs one search pass the way a renderer does: it filters the
// catalog with the session query, renders the matches into a node tree and
// hands the nodes to the result observer.
package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/fuzzy"
	"github.com/bastiangx/bardbook/pkg/highlight"
	"github.com/bastiangx/bardbook/pkg/observer"
	"github.com/bastiangx/bardbook/pkg/render"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/bastiangx/bardbook/pkg/session"
	"github.com/bastiangx/bardbook/pkg/vocab"
	"github.com/charmbracelet/log"
)

// Options configures an Engine.
type Options struct {
	Threshold   int
	ArenaSize   int
	Highlighter *highlight.Highlighter
	// Reporter also receives every count the observer reports. Optional.
	Reporter observer.Reporter
}

// Result is the outcome of one Refresh. Suggestion holds a corrected query
// when a filtered pass found nothing.
type Result struct {
	Query      search.Query
	Nodes      []*render.Node
	Count      observer.Count
	Suggestion string
	Elapsed    time.Duration
}

// Engine ties a session to a catalog. Refresh calls are serialized.
type Engine struct {
	session  *session.Session
	catalog  *catalog.Catalog
	vocab    *vocab.Vocabulary
	eval     *search.Evaluator
	tree     *render.Tree
	observer *observer.Observer
	hl       *highlight.Highlighter
	forward  observer.Reporter
	unsub    func()

	mu    sync.Mutex
	count observer.Count
}

// New builds an engine over cat. The vocabulary for suggestions is indexed
// from the catalog entries.
func New(sess *session.Session, cat *catalog.Catalog, opts Options) (*Engine, error) {
	if sess == nil || cat == nil {
		return nil, fmt.Errorf("engine: session and catalog are required")
	}
	hl := opts.Highlighter
	if hl == nil {
		hl = highlight.Default()
	}
	e := &Engine{
		session: sess,
		catalog: cat,
		vocab:   vocab.FromEntries(cat.Entries(), opts.Threshold),
		eval:    search.NewEvaluator(fuzzy.NewMatcher(fuzzy.Config{Threshold: opts.Threshold})),
		tree:    render.NewTree(),
		hl:      hl,
		forward: opts.Reporter,
		count:   observer.NoFilter(),
	}
	obs, err := observer.New(sess, observer.ReporterFunc(e.report), observer.Options{
		ArenaSize:   opts.ArenaSize,
		Highlighter: hl,
	})
	if err != nil {
		return nil, err
	}
	e.observer = obs
	e.unsub = sess.Subscribe(obs.OnQueryChanged)
	log.Debugf("engine ready: %d entries, %d vocabulary words", cat.Len(), e.vocab.Len())
	return e, nil
}

func (e *Engine) report(count observer.Count, query string) {
	e.count = count
	if e.forward != nil {
		e.forward.UpdateResultCount(count, query)
	}
}

// Session returns the shared session.
func (e *Engine) Session() *session.Session { return e.session }

// Catalog returns the searched catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Vocabulary returns the index used for completions and suggestions.
func (e *Engine) Vocabulary() vocab.ICompleter { return e.vocab }

// Highlighter returns the marker configuration used for spans.
func (e *Engine) Highlighter() *highlight.Highlighter { return e.hl }

// Observer returns the result observer.
func (e *Engine) Observer() *observer.Observer { return e.observer }

// Refresh filters, renders and observes the catalog for the current query.
func (e *Engine) Refresh() Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	q := e.session.Current()
	items := e.catalog.All()
	idx := e.eval.Filter(q, e.catalog.Entries())
	matched := make([]catalog.Item, len(idx))
	for i, j := range idx {
		matched[i] = items[j]
	}

	nodes := e.tree.Render(matched)
	e.observer.OnContentChanged(e.tree.ObserverNodes())

	res := Result{Query: q, Nodes: nodes, Count: e.count}
	if res.Count.Filtering && res.Count.N == 0 {
		res.Suggestion = e.Suggest(q.Text)
	}
	res.Elapsed = time.Since(start)
	return res
}

// Suggest corrects each word of text against the vocabulary. It returns ""
// when no word changed.
func (e *Engine) Suggest(text string) string {
	words := strings.Fields(text)
	changed := false
	for i, w := range words {
		if fixed, ok := e.vocab.Correct(w); ok {
			words[i] = fixed
			changed = true
		}
	}
	if !changed {
		return ""
	}
	return strings.Join(words, " ")
}

// Close detaches the observer from the session.
func (e *Engine) Close() {
	if e.unsub != nil {
		e.unsub()
	}
}

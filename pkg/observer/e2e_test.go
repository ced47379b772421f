package observer_test

import (
	"strings"
	"testing"

	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/fuzzy"
	"github.com/bastiangx/bardbook/pkg/observer"
	"github.com/bastiangx/bardbook/pkg/render"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/bastiangx/bardbook/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reported struct {
	count observer.Count
	query string
}

// pipeline wires a session, evaluator, render tree and observer together the
// way the front ends do.
type pipeline struct {
	session  *session.Session
	eval     *search.Evaluator
	cat      *catalog.Catalog
	tree     *render.Tree
	observer *observer.Observer
	reports  []reported
}

func newPipeline(t *testing.T, cat *catalog.Catalog) *pipeline {
	t.Helper()
	p := &pipeline{
		session: session.New(nil, true),
		eval:    search.NewEvaluator(fuzzy.NewMatcher(fuzzy.DefaultConfig())),
		cat:     cat,
		tree:    render.NewTree(),
	}
	obs, err := observer.New(p.session, observer.ReporterFunc(func(c observer.Count, q string) {
		p.reports = append(p.reports, reported{c, q})
	}), observer.Options{})
	require.NoError(t, err)
	p.observer = obs
	p.session.Subscribe(obs.OnQueryChanged)
	return p
}

func (p *pipeline) refresh() []*render.Node {
	items := p.cat.All()
	idx := p.eval.Filter(p.session.Current(), p.cat.Entries())
	matched := make([]catalog.Item, len(idx))
	for i, j := range idx {
		matched[i] = items[j]
	}
	nodes := p.tree.Render(matched)
	p.observer.OnContentChanged(p.tree.ObserverNodes())
	return nodes
}

func (p *pipeline) last() reported {
	return p.reports[len(p.reports)-1]
}

func spellbook() *catalog.Catalog {
	return catalog.New(catalog.Section{Name: "spells", Entries: []search.Entry{
		search.Card{Title: "Vicious Mockery"},
		search.Card{Title: "Thunderwave"},
	}})
}

func TestFuzzyTypoFindsCard(t *testing.T) {
	p := newPipeline(t, spellbook())

	p.session.SetText("vicous")
	nodes := p.refresh()

	require.Len(t, nodes, 1)
	assert.Equal(t, reported{observer.Filtered(1), "vicous"}, p.last())
	// the typo is not a literal substring, so nothing is marked
	assert.Equal(t, "Vicious Mockery", nodes[0].Fields()[0].Markup())
}

func TestClearedQueryReportsNoCount(t *testing.T) {
	p := newPipeline(t, spellbook())

	p.session.SetText("mock")
	nodes := p.refresh()
	require.Len(t, nodes, 1)
	assert.Contains(t, nodes[0].Fields()[0].Markup(), ">Mock</mark>")

	p.session.SetText("")
	nodes = p.refresh()
	assert.Len(t, nodes, 2)
	assert.Equal(t, reported{observer.NoFilter(), ""}, p.last())
	assert.Equal(t, "Vicious Mockery", nodes[0].Fields()[0].Markup())
}

func TestFuzzyToggleRoundTrip(t *testing.T) {
	p := newPipeline(t, spellbook())

	p.session.SetText("vicous")
	p.session.SetFuzzyEnabled(false)
	assert.Empty(t, p.refresh())
	assert.Equal(t, reported{observer.Filtered(0), "vicous"}, p.last())

	p.session.SetFuzzyEnabled(true)
	assert.Len(t, p.refresh(), 1)
	assert.Equal(t, reported{observer.Filtered(1), "vicous"}, p.last())
}

func TestRepeatedPassDoesNotDoubleMark(t *testing.T) {
	p := newPipeline(t, spellbook())

	p.session.SetText("wave")
	nodes := p.refresh()
	p.observer.OnContentChanged(p.tree.ObserverNodes())

	markup := nodes[0].Fields()[0].Markup()
	assert.Equal(t, 1, strings.Count(markup, "</mark>"))
	assert.Equal(t, 1, p.observer.Stats().Skipped)
}

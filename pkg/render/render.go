// Package render keeps the in-memory result tree shown by the terminal and
// IPC front ends. Each Render call replaces the tree with fresh nodes, as a
// browser re-render would.
package render

import (
	"html"
	"strconv"
	"sync"

	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/observer"
	"github.com/bastiangx/bardbook/pkg/search"
)

// Span is one field of a rendered entry.
type Span struct {
	Field  string
	text   string
	markup string
}

// Text returns the plain field text.
func (s *Span) Text() string { return s.text }

// SetMarkup replaces the rendered markup.
func (s *Span) SetMarkup(markup string) { s.markup = markup }

// Markup returns the rendered markup, which starts out as the escaped text.
func (s *Span) Markup() string { return s.markup }

// Node is one rendered result.
type Node struct {
	id    observer.NodeID
	Item  catalog.Item
	spans []*Span
}

// ID returns the node identity for this render generation.
func (n *Node) ID() observer.NodeID { return n.id }

// Spans returns the field spans as observer spans.
func (n *Node) Spans() []observer.Span {
	out := make([]observer.Span, len(n.spans))
	for i, s := range n.spans {
		out[i] = s
	}
	return out
}

// Fields returns the concrete spans.
func (n *Node) Fields() []*Span { return n.spans }

// Tree holds the nodes of the latest render. It is safe for concurrent use.
type Tree struct {
	mu    sync.Mutex
	seq   uint64
	nodes []*Node
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

var fieldNames = []string{"title", "subtitle", "attribution"}

// Render replaces the tree with nodes for items. Malformed entries are not rendered.
func (t *Tree) Render(items []catalog.Item) []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes := make([]*Node, 0, len(items))
	for _, it := range items {
		texts, ok := fieldTexts(it.Entry)
		if !ok {
			continue
		}
		t.seq++
		n := &Node{id: observer.NodeID(strconv.FormatUint(t.seq, 10)), Item: it}
		for i, text := range texts {
			n.spans = append(n.spans, &Span{Field: fieldNames[i], text: text, markup: html.EscapeString(text)})
		}
		nodes = append(nodes, n)
	}
	t.nodes = nodes
	return nodes
}

// Nodes returns the current nodes.
func (t *Tree) Nodes() []*Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nodes
}

// ObserverNodes converts the current nodes for an observer pass.
func (t *Tree) ObserverNodes() []observer.Node {
	nodes := t.Nodes()
	out := make([]observer.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
	}
	return out
}

// fieldTexts returns the title, subtitle and attribution slots of a card
// (empty slots dropped from the end only) or the single text of a line.
func fieldTexts(e search.Entry) ([]string, bool) {
	var c search.Card
	switch v := e.(type) {
	case search.Card:
		c = v
	case *search.Card:
		if v == nil {
			return nil, false
		}
		c = *v
	default:
		fields, ok := search.Fields(e)
		return fields, ok
	}
	if _, ok := search.Fields(c); !ok {
		return nil, false
	}
	texts := []string{c.Title, c.Subtitle, c.Attribution}
	for len(texts) > 1 && texts[len(texts)-1] == "" {
		texts = texts[:len(texts)-1]
	}
	return texts, true
}

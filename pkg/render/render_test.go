package render

import (
	"testing"

	"github.com/bastiangx/bardbook/pkg/catalog"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tree := NewTree()
	items := []catalog.Item{
		{Section: "spells", Index: 0, Entry: search.Card{Title: "Vicious Mockery", Attribution: "PHB"}},
		{Section: "spells", Index: 1, Entry: search.Card{Title: "Shatter"}},
		{Section: "lines", Index: 0, Entry: search.Line("Tom & Jerry")},
		{Section: "junk", Index: 0, Entry: 42},
	}

	nodes := tree.Render(items)
	require.Len(t, nodes, 3, "malformed entries are not rendered")

	mockery := nodes[0].Fields()
	require.Len(t, mockery, 3, "empty subtitle kept to preserve slot order")
	assert.Equal(t, "attribution", mockery[2].Field)
	assert.Len(t, nodes[1].Fields(), 1, "trailing empty slots dropped")
	assert.Equal(t, "Tom &amp; Jerry", nodes[2].Fields()[0].Markup())

	assert.Len(t, tree.ObserverNodes(), 3)
	assert.Len(t, nodes[0].Spans(), 3)
}

func TestRenderAssignsFreshIDs(t *testing.T) {
	tree := NewTree()
	items := []catalog.Item{{Entry: search.Line("x")}}

	first := tree.Render(items)
	second := tree.Render(items)
	assert.NotEqual(t, first[0].ID(), second[0].ID())
	assert.Equal(t, second, tree.Nodes())
}

package cli

import (
	"fmt"
	"strings"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/bastiangx/bardbook/pkg/observer"
	"github.com/bastiangx/bardbook/pkg/render"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	color   bool
	header  lipgloss.Style
	count   lipgloss.Style
	title   lipgloss.Style
	section lipgloss.Style
	dim     lipgloss.Style
	hit     lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		return styles{}
	}
	return styles{
		color:   true,
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF79C6")),
		count:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#8BE9FD")),
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		section: lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4")),
		dim:     lipgloss.NewStyle().Faint(true),
		hit:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#FFEB3B")),
	}
}

// CountLine formats a result count for display. It returns "" when no
// filter is active.
func CountLine(count observer.Count, query string) string {
	if !count.Filtering {
		return ""
	}
	line := fmt.Sprintf("Found %d %s", count.N, utils.Plural(count.N, "result"))
	if query != "" {
		line += fmt.Sprintf(" for %q", query)
	}
	return line
}

// printNode prints one rendered entry: the first span on the numbered line,
// the rest indented below it.
func (h *InputHandler) printNode(num int, n *render.Node) {
	fields := n.Fields()
	if len(fields) == 0 {
		return
	}
	section := h.styles.render(h.styles.section, "["+n.Item.Section+"]")
	fmt.Fprintf(h.out, "%2d. %s %s\n", num, section, h.paint(fields[0], h.styles.title))
	for _, f := range fields[1:] {
		if f.Text() == "" {
			continue
		}
		fmt.Fprintf(h.out, "    %s\n", h.paint(f, h.styles.dim))
	}
}

// paint converts the highlight markup of span into terminal styling.
func (h *InputHandler) paint(span *render.Span, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range h.engine.Highlighter().Parse(span.Markup()) {
		switch {
		case seg.Hit && h.styles.color:
			b.WriteString(h.styles.hit.Render(seg.Text))
		case seg.Hit:
			b.WriteString("*" + seg.Text + "*")
		default:
			b.WriteString(h.styles.render(base, seg.Text))
		}
	}
	return b.String()
}

// render applies style only when color output is enabled.
func (s styles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

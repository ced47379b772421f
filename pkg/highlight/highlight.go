// Package highlight wraps case-insensitive occurrences of a query in escaped
// markup so they can be rendered as marked text.
package highlight

import (
	"html"
	"regexp"
	"strings"
	"sync"
)

// DefaultTag is the element used for marked segments.
const DefaultTag = "mark"

// DefaultStyle is the inline style applied to marked segments.
const DefaultStyle = "background: #ffeb3b; color: #000; padding: 2px 4px; border-radius: 3px; font-weight: bold;"

var tagPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

// Segment is a piece of unescaped text that is either marked or not.
type Segment struct {
	Text string
	Hit  bool
}

// Highlighter renders matches with a fixed marker element.
// It is safe for concurrent use.
type Highlighter struct {
	open  string
	close string

	mu     sync.Mutex
	lastQ  string
	lastRe *regexp.Regexp
}

// New creates a highlighter emitting <tag class=".." style="..">.
// An empty or invalid tag falls back to DefaultTag; empty class and style are omitted.
func New(tag, class, style string) *Highlighter {
	if !tagPattern.MatchString(tag) {
		tag = DefaultTag
	}
	var b strings.Builder
	b.WriteString("<" + tag)
	if class != "" {
		b.WriteString(` class="` + html.EscapeString(class) + `"`)
	}
	if style != "" {
		b.WriteString(` style="` + html.EscapeString(style) + `"`)
	}
	b.WriteString(">")
	return &Highlighter{open: b.String(), close: "</" + tag + ">"}
}

var (
	defaultOnce sync.Once
	defaultHL   *Highlighter
)

// Default returns the shared highlighter with DefaultTag and DefaultStyle.
func Default() *Highlighter {
	defaultOnce.Do(func() {
		defaultHL = New(DefaultTag, "", DefaultStyle)
	})
	return defaultHL
}

// Highlight marks query in text with the default highlighter.
func Highlight(text, query string) string {
	return Default().Highlight(text, query)
}

// Highlight returns text HTML-escaped with every case-insensitive occurrence of
// query wrapped in the marker element. Matching runs on the raw text, so the
// query never matches inside an entity produced by escaping.
// With an empty query the result is just the escaped text.
func (h *Highlighter) Highlight(text, query string) string {
	segments := h.Segments(text, query)
	var b strings.Builder
	b.Grow(len(text) + len(segments)*(len(h.open)+len(h.close)))
	for _, s := range segments {
		if s.Hit {
			b.WriteString(h.open)
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString(h.close)
			continue
		}
		b.WriteString(html.EscapeString(s.Text))
	}
	return b.String()
}

// Segments splits text into alternating unmarked and marked runs for query.
// Concatenating the segment texts yields text unchanged.
func (h *Highlighter) Segments(text, query string) []Segment {
	if text == "" {
		return nil
	}
	if query == "" {
		return []Segment{{Text: text}}
	}

	re := h.pattern(query)
	if re == nil {
		return []Segment{{Text: text}}
	}
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, len(locs)*2+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]:loc[1]], Hit: true})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

// Parse reverses Highlight: it splits markup produced by h back into
// unescaped segments.
func (h *Highlighter) Parse(markup string) []Segment {
	var segments []Segment
	for markup != "" {
		start := strings.Index(markup, h.open)
		if start < 0 {
			segments = append(segments, Segment{Text: html.UnescapeString(markup)})
			break
		}
		if start > 0 {
			segments = append(segments, Segment{Text: html.UnescapeString(markup[:start])})
		}
		markup = markup[start+len(h.open):]
		end := strings.Index(markup, h.close)
		if end < 0 {
			segments = append(segments, Segment{Text: html.UnescapeString(markup), Hit: true})
			break
		}
		segments = append(segments, Segment{Text: html.UnescapeString(markup[:end]), Hit: true})
		markup = markup[end+len(h.close):]
	}
	return segments
}

// pattern compiles the case-insensitive literal pattern for query, reusing the
// last one since consecutive calls nearly always share a query.
// It returns nil when query cannot be compiled, e.g. invalid UTF-8.
func (h *Highlighter) pattern(query string) *regexp.Regexp {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lastQ == query {
		return h.lastRe
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		re = nil
	}
	h.lastQ = query
	h.lastRe = re
	return re
}

// Package search decides whether catalog entries match the active query.
package search

import "strings"

// Entry is one searchable catalog item. Card, *Card, Line and string are the
// recognized shapes. Any other value is treated as malformed and never matches
// a non-empty query.
type Entry any

// Card is a structured entry with a title and optional secondary text.
type Card struct {
	Title       string `json:"t" msgpack:"t"`
	Subtitle    string `json:"s,omitempty" msgpack:"s,omitempty"`
	Attribution string `json:"a,omitempty" msgpack:"a,omitempty"`
}

// Fields returns the non-empty text fields in title, subtitle, attribution order.
func (c Card) Fields() []string {
	fields := make([]string, 0, 3)
	for _, f := range []string{c.Title, c.Subtitle, c.Attribution} {
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Line is a plain one-line entry.
type Line string

// Query is the active search input and its fuzzy toggle.
type Query struct {
	Text  string `msgpack:"q"`
	Fuzzy bool   `msgpack:"f"`
}

// Active reports whether the query filters anything.
func (q Query) Active() bool {
	return q.Text != ""
}

// Fields returns the searchable text of e. ok is false for malformed entries,
// including cards without a title.
func Fields(e Entry) (fields []string, ok bool) {
	switch v := e.(type) {
	case Card:
		return cardFields(v)
	case *Card:
		if v == nil {
			return nil, false
		}
		return cardFields(*v)
	case Line:
		return []string{string(v)}, true
	case string:
		return []string{v}, true
	default:
		return nil, false
	}
}

func cardFields(c Card) ([]string, bool) {
	if strings.TrimSpace(c.Title) == "" {
		return nil, false
	}
	return c.Fields(), true
}

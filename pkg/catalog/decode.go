package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/bardbook/pkg/search"
)

// Unknown holds a section element that is neither a card nor a line.
// It is kept so counts and indexes line up with the source file, but it
// never matches a query.
type Unknown struct {
	Raw json.RawMessage
}

type rawCard struct {
	T *string `json:"t"`
	S string  `json:"s"`
	A string  `json:"a"`
}

// Decode reads a JSON array of section elements. Objects with a non-empty
// string "t" become cards, strings become lines, anything else is Unknown.
func Decode(r io.Reader) ([]search.Entry, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	entries := make([]search.Entry, 0, len(raw))
	for _, elem := range raw {
		entries = append(entries, decodeElement(elem))
	}
	return entries, nil
}

func decodeElement(elem json.RawMessage) search.Entry {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 {
		return Unknown{Raw: elem}
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return search.Line(s)
		}
	case '{':
		var c rawCard
		if err := json.Unmarshal(trimmed, &c); err == nil && c.T != nil && *c.T != "" {
			return search.Card{Title: *c.T, Subtitle: c.S, Attribution: c.A}
		}
	}
	return Unknown{Raw: elem}
}

// DecodeText reads one line entry per non-empty line.
func DecodeText(r io.Reader) ([]search.Entry, error) {
	var entries []search.Entry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, search.Line(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Encode writes entries as a JSON section array. Unknown elements are
// written back verbatim.
func Encode(w io.Writer, entries []search.Entry) error {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		switch v := e.(type) {
		case Unknown:
			out = append(out, v.Raw)
		case *search.Card:
			out = append(out, *v)
		default:
			out = append(out, v)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

package search

import (
	"strings"

	"github.com/bastiangx/bardbook/pkg/fuzzy"
)

// Evaluator matches entries against queries. The zero value uses the
// default fuzzy threshold.
type Evaluator struct {
	matcher *fuzzy.Matcher
}

// NewEvaluator returns an evaluator that delegates fuzzy checks to m.
// A nil m uses fuzzy.DefaultThreshold.
func NewEvaluator(m *fuzzy.Matcher) *Evaluator {
	return &Evaluator{matcher: m}
}

var defaultEvaluator = &Evaluator{}

// Evaluate reports whether e matches q using the default evaluator.
func Evaluate(q Query, e Entry) bool {
	return defaultEvaluator.Evaluate(q, e)
}

// Evaluate reports whether e matches q.
//
// An empty query matches everything. Otherwise every field of the entry is
// checked for a case-insensitive substring first, and only when none hits and
// the query is fuzzy does the word-level matcher run.
func (ev *Evaluator) Evaluate(q Query, e Entry) bool {
	if !q.Active() {
		return true
	}
	fields, ok := Fields(e)
	if !ok {
		return false
	}

	needle := strings.ToLower(q.Text)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	if !q.Fuzzy {
		return false
	}

	var m *fuzzy.Matcher
	if ev != nil {
		m = ev.matcher
	}
	for _, f := range fields {
		if m.Match(needle, f) {
			return true
		}
	}
	return false
}

// Filter returns the indexes of entries matching q, in input order.
func (ev *Evaluator) Filter(q Query, entries []Entry) []int {
	matched := make([]int, 0, len(entries))
	for i, e := range entries {
		if ev.Evaluate(q, e) {
			matched = append(matched, i)
		}
	}
	return matched
}

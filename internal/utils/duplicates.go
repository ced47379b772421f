package utils

import (
	"strings"
)

// SuggestionFilter drops duplicate words and the word being completed.
// It is not safe for concurrent use.
type SuggestionFilter struct {
	seen map[string]struct{}
}

// NewSuggestionFilter creates a filter that already excludes input.
func NewSuggestionFilter(input string) *SuggestionFilter {
	seen := map[string]struct{}{strings.ToLower(input): {}}
	return &SuggestionFilter{seen: seen}
}

// ShouldInclude reports whether word is new to the filter, remembering it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	lower := strings.ToLower(word)
	if _, ok := f.seen[lower]; ok {
		return false
	}
	f.seen[lower] = struct{}{}
	return true
}

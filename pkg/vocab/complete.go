package vocab

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Complete returns up to limit known words starting with prefix, most
// frequent first and alphabetical among equals. The prefix itself is never
// suggested. Upper-case letters in the prefix carry over to the suggestion,
// so "Vic" completes to "Vicious". A non-positive limit returns everything.
func (v *Vocabulary) Complete(prefix string, limit int) []Suggestion {
	lowerPrefix := lower(prefix)
	if !utils.IsValidPrefix(lowerPrefix) {
		return nil
	}

	capitalPositions := make([]bool, 0, len(prefix))
	for _, r := range prefix {
		capitalPositions = append(capitalPositions, unicode.IsUpper(r))
	}

	filter := utils.NewSuggestionFilter(lowerPrefix)
	var suggestions []Suggestion

	v.mu.RLock()
	err := v.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		word := string(p)
		if !filter.ShouldInclude(word) {
			return nil
		}
		freq, ok := item.(int)
		if !ok {
			log.Errorf("Unknown item type: %T for word %s", item, word)
			return nil
		}
		suggestions = append(suggestions, Suggestion{Word: word, Frequency: freq})
		return nil
	})
	v.mu.RUnlock()
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Frequency != suggestions[j].Frequency {
			return suggestions[i].Frequency > suggestions[j].Frequency
		}
		return suggestions[i].Word < suggestions[j].Word
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	for i := range suggestions {
		suggestions[i].Word = applyCapitalization(suggestions[i].Word, capitalPositions)
	}
	return suggestions
}

// applyCapitalization upper-cases the runes of word at the positions marked in caps.
func applyCapitalization(word string, caps []bool) string {
	upper := false
	for _, c := range caps {
		upper = upper || c
	}
	if !upper {
		return word
	}

	runes := []rune(word)
	for i := 0; i < len(runes) && i < len(caps); i++ {
		if caps[i] {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Package vocab indexes the words of the loaded catalog for prefix completion
// and "did you mean" corrections of queries that found nothing.
package vocab

// ICompleter is the read side of a vocabulary.
type ICompleter interface {
	// Complete returns up to limit words starting with prefix, most frequent first.
	Complete(prefix string, limit int) []Suggestion

	// Correct returns the closest known word to word within the edit budget.
	Correct(word string) (string, bool)

	// Frequency returns how often word occurs in the catalog.
	Frequency(word string) int

	// Stats returns statistics about the indexed words.
	Stats() map[string]int
}

// Suggestion is a completion candidate.
type Suggestion struct {
	Word      string `json:"w" msgpack:"w"`
	Frequency int    `json:"f" msgpack:"f"`
}

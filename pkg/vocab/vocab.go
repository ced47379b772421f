package vocab

import (
	"sync"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/bastiangx/bardbook/pkg/fuzzy"
	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// minWordLen skips words too short to be worth completing or correcting.
const minWordLen = 2

// Vocabulary is a frequency-counted word trie. It is safe for concurrent use.
type Vocabulary struct {
	mu           sync.RWMutex
	trie         *patricia.Trie
	wordFreqs    map[string]int
	totalWords   int
	maxFrequency int
	threshold    int
}

// New creates an empty vocabulary whose corrections allow threshold edits.
func New(threshold int) *Vocabulary {
	if threshold < 0 {
		threshold = 0
	}
	return &Vocabulary{
		trie:      patricia.NewTrie(),
		wordFreqs: make(map[string]int),
		threshold: threshold,
	}
}

// FromEntries indexes every word of every well-formed entry.
func FromEntries(entries []search.Entry, threshold int) *Vocabulary {
	v := New(threshold)
	skipped := 0
	for _, e := range entries {
		fields, ok := search.Fields(e)
		if !ok {
			skipped++
			continue
		}
		for _, f := range fields {
			v.AddText(f)
		}
	}
	if skipped > 0 {
		log.Debugf("vocab skipped %d malformed entries", skipped)
	}
	log.Debugf("vocab indexed %d distinct words", v.Len())
	return v
}

// AddText adds every word of text once.
func (v *Vocabulary) AddText(text string) {
	for _, w := range utils.Words(text) {
		v.AddWord(w, 1)
	}
}

// AddWord adds frequency occurrences of word, which is stored lower-cased.
func (v *Vocabulary) AddWord(word string, frequency int) {
	if len([]rune(word)) < minWordLen || frequency <= 0 {
		return
	}
	word = lower(word)

	v.mu.Lock()
	defer v.mu.Unlock()

	freq := v.wordFreqs[word] + frequency
	v.wordFreqs[word] = freq
	v.trie.Set(patricia.Prefix(word), freq)
	v.totalWords += frequency
	if freq > v.maxFrequency {
		v.maxFrequency = freq
	}
}

// Frequency returns how often word was added.
func (v *Vocabulary) Frequency(word string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.wordFreqs[lower(word)]
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.wordFreqs)
}

// Stats returns statistics about the indexed words.
func (v *Vocabulary) Stats() map[string]int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return map[string]int{
		"distinctWords": len(v.wordFreqs),
		"totalWords":    v.totalWords,
		"maxFrequency":  v.maxFrequency,
		"threshold":     v.threshold,
	}
}

// Correct returns the closest known word within the edit budget. Candidates
// must share the first letter; ties go to the more frequent word, then the
// alphabetically smaller one. Known words and words shorter than two runes
// are returned unchanged with false.
func (v *Vocabulary) Correct(word string) (string, bool) {
	lw := lower(word)
	if len([]rune(lw)) < minWordLen {
		return word, false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if _, ok := v.wordFreqs[lw]; ok {
		return lw, false
	}

	first := []rune(lw)[0]
	best, bestDist, bestFreq := "", v.threshold+1, 0
	err := v.trie.VisitSubtree(patricia.Prefix(string(first)), func(p patricia.Prefix, item patricia.Item) error {
		candidate := string(p)
		dist, ok := fuzzy.DistanceWithin(lw, candidate, v.threshold)
		if !ok {
			return nil
		}
		freq := v.wordFreqs[candidate]
		if dist < bestDist ||
			(dist == bestDist && freq > bestFreq) ||
			(dist == bestDist && freq == bestFreq && candidate < best) {
			best, bestDist, bestFreq = candidate, dist, freq
		}
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting vocab subtree: %v", err)
		return word, false
	}
	if best == "" {
		return word, false
	}
	return best, true
}


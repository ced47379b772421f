// Package fuzzy implements the typo-tolerant word matching used by catalog search.
//
// A needle matches a haystack when, after lower-casing both, the haystack
// contains the needle, or some whitespace-separated word of the haystack
// starts with the needle, or lies within Threshold edits of it.
package fuzzy

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// DefaultThreshold is the edit budget used when none is configured.
const DefaultThreshold = 2

// Config holds the tunables for a Matcher.
type Config struct {
	// Threshold is the maximum number of edits between the needle and a word.
	// Negative values are treated as zero.
	Threshold int
}

// DefaultConfig returns the matcher defaults.
func DefaultConfig() Config {
	return Config{Threshold: DefaultThreshold}
}

// Matcher applies Matches with a fixed threshold.
type Matcher struct {
	threshold int
}

// NewMatcher creates a matcher from cfg.
func NewMatcher(cfg Config) *Matcher {
	threshold := cfg.Threshold
	if threshold < 0 {
		log.Warnf("fuzzy threshold %d is negative, using 0", threshold)
		threshold = 0
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the edit budget. A nil matcher reports DefaultThreshold.
func (m *Matcher) Threshold() int {
	if m == nil {
		return DefaultThreshold
	}
	return m.threshold
}

// Match reports whether needle fuzzily matches haystack.
func (m *Matcher) Match(needle, haystack string) bool {
	return Matches(needle, haystack, m.Threshold())
}

// Matches reports whether needle fuzzily matches haystack within threshold edits.
// Empty inputs never match.
func Matches(needle, haystack string, threshold int) bool {
	if needle == "" || haystack == "" {
		return false
	}
	if threshold < 0 {
		threshold = 0
	}

	needle = strings.ToLower(needle)
	haystack = strings.ToLower(haystack)
	if strings.Contains(haystack, needle) {
		return true
	}

	needleLen := utf8.RuneCountInString(needle)
	for _, word := range strings.Fields(haystack) {
		if strings.HasPrefix(word, needle) {
			return true
		}
		// the length gap alone is a lower bound on the distance
		if abs(utf8.RuneCountInString(word)-needleLen) > threshold {
			continue
		}
		if _, ok := DistanceWithin(needle, word, threshold); ok {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package vocab

import (
	"fmt"
	"testing"

	"github.com/bastiangx/bardbook/pkg/search"
)

func testVocab() *Vocabulary {
	v := New(2)
	v.AddWord("vicious", 30)
	v.AddWord("victory", 50)
	v.AddWord("vicar", 50)
	v.AddWord("thunderwave", 10)
	v.AddWord("thunder", 20)
	v.AddWord("mockery", 5)
	return v
}

func TestComplete(t *testing.T) {
	v := testVocab()

	testCases := []struct {
		prefix      string
		limit       int
		expected    []string
		description string
	}{
		{"vic", 0, []string{"vicar", "victory", "vicious"}, "Frequency first then alphabetical"},
		{"vic", 2, []string{"vicar", "victory"}, "Limit applied after sorting"},
		{"Vic", 1, []string{"Vicar"}, "Capitalization carried over"},
		{"thunder", 0, []string{"thunderwave"}, "Prefix itself excluded"},
		{"zz", 0, nil, "No completions"},
		{"123", 0, nil, "Numbers rejected"},
		{"vvv", 0, nil, "Repetitive prefix rejected"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := v.Complete(tc.prefix, tc.limit)
			if len(got) != len(tc.expected) {
				t.Fatalf("Complete(%q, %d) = %v, want %v", tc.prefix, tc.limit, got, tc.expected)
			}
			for i, s := range got {
				if s.Word != tc.expected[i] {
					t.Errorf("position %d: got %q, want %q", i, s.Word, tc.expected[i])
				}
			}
		})
	}
}

func TestCorrect(t *testing.T) {
	v := testVocab()

	testCases := []struct {
		input          string
		expectedOutput string
		corrected      bool
		description    string
	}{
		{"vicious", "vicious", false, "Known word"},
		{"VICIOUS", "vicious", false, "Known word any case"},
		{"vicous", "vicious", true, "Missing character in middle"},
		{"mockry", "mockery", true, "Missing vowel"},
		{"thundr", "thunder", true, "Closest distance wins over frequency"},
		{"vicr", "vicar", true, "Missing vowel in short word"},
		{"xicious", "xicious", false, "Different first letter - no match"},
		{"zzzzzzzzz", "zzzzzzzzz", false, "Gibberish"},
		{"v", "v", false, "Too short to correct"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			result, corrected := v.Correct(tc.input)
			if result != tc.expectedOutput {
				t.Errorf("Input '%s': expected '%s', got '%s'", tc.input, tc.expectedOutput, result)
			}
			if corrected != tc.corrected {
				t.Errorf("Input '%s': expected corrected=%v, got %v", tc.input, tc.corrected, corrected)
			}
		})
	}
}

func TestCorrectTieBreak(t *testing.T) {
	v := New(1)
	v.AddWord("cast", 3)
	v.AddWord("cart", 9)
	v.AddWord("card", 9)

	// "carst" is one edit from cast and cart; cart is more frequent
	if got, _ := v.Correct("carst"); got != "cart" {
		t.Errorf("expected cart, got %q", got)
	}
	// "cars" is one edit from cart and card with equal frequency
	if got, _ := v.Correct("cars"); got != "card" {
		t.Errorf("expected card, got %q", got)
	}
}

func TestFromEntries(t *testing.T) {
	entries := []search.Entry{
		search.Card{Title: "Vicious Mockery", Subtitle: "A vicious insult"},
		search.Line("Thunderwave!"),
		42,
	}
	v := FromEntries(entries, 2)

	if got := v.Frequency("vicious"); got != 2 {
		t.Errorf("expected vicious counted twice, got %d", got)
	}
	if got := v.Frequency("thunderwave"); got != 1 {
		t.Errorf("expected punctuation trimmed from thunderwave, got %d", got)
	}
	if got := v.Frequency("a"); got != 0 {
		t.Errorf("single-letter words should be skipped, got %d", got)
	}
	if v.Stats()["distinctWords"] != v.Len() {
		t.Errorf("stats disagree with Len")
	}
}

// 1000 words in vocab
func BenchmarkCorrect(b *testing.B) {
	v := New(2)
	for i := 0; i < 1000; i++ {
		v.AddWord(fmt.Sprintf("word%d", i), i+1)
	}

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		inputs := []string{"wrd123", "word1", "wordd2", "woord3", "wird4"}
		v.Correct(inputs[i%len(inputs)])
	}
}

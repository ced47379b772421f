package highlight

import (
	"strings"
	"testing"
)

const defaultOpen = `<mark style="background: #ffeb3b; color: #000; padding: 2px 4px; border-radius: 3px; font-weight: bold;">`

func TestHighlight(t *testing.T) {
	testCases := []struct {
		text        string
		query       string
		expected    string
		description string
	}{
		{"Vicious Mockery", "mock", "Vicious " + defaultOpen + "Mock</mark>ery", "Case-insensitive hit keeps original case"},
		{"Vicious Mockery", "", "Vicious Mockery", "Empty query"},
		{"Vicious Mockery", "zzz", "Vicious Mockery", "No hit"},
		{"aaa", "a", strings.Repeat(defaultOpen+"a</mark>", 3), "Every occurrence marked"},
		{"Cast <fire>", "fire", "Cast &lt;" + defaultOpen + "fire</mark>&gt;", "Text is escaped around the hit"},
		{"Tom & Jerry", "amp", "Tom &amp; Jerry", "Query never matches inside an entity"},
		{"a<b", "<", "a" + defaultOpen + "&lt;</mark>b", "Query with markup characters"},
		{"1+1=2 (maybe)", "(maybe)", "1+1=2 " + defaultOpen + "(maybe)</mark>", "Regex metacharacters are literal"},
		{"", "x", "", "Empty text"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			if got := Highlight(tc.text, tc.query); got != tc.expected {
				t.Errorf("Highlight(%q, %q)\n got: %s\nwant: %s", tc.text, tc.query, got, tc.expected)
			}
		})
	}
}

func TestNewMarkers(t *testing.T) {
	h := New("span", `hit "x"`, "")
	if got := h.Highlight("a x b", "x"); got != `a <span class="hit &#34;x&#34;">x</span> b` {
		t.Errorf("unexpected span markup %q", got)
	}

	bad := New("<script>", "", "")
	if got := bad.Highlight("x", "x"); got != "<mark>x</mark>" {
		t.Errorf("invalid tag should fall back to mark, got %q", got)
	}
}

func TestInvalidUTF8Query(t *testing.T) {
	h := New("mark", "", "")
	tests := []struct {
		description string
		text        string
		query       string
		expected    string
	}{
		{"lone invalid byte", "Vicious \xff Mockery", "\xff", "Vicious \xff Mockery"},
		{"truncated rune", "Tom & Jerry", "\xe2\x82", "Tom &amp; Jerry"},
		{"valid query after invalid", "Vicious Mockery", "mock", "Vicious <mark>Mock</mark>ery"},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			if got := h.Highlight(tc.text, tc.query); got != tc.expected {
				t.Errorf("Highlight(%q, %q)\n got: %q\nwant: %q", tc.text, tc.query, got, tc.expected)
			}
		})
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	h := New("em", "", "")
	texts := []string{"Vicious Mockery", "mock mock", "Tom & <Jerry>", "nothing here"}
	for _, text := range texts {
		segments := h.Segments(text, "mock")
		var joined strings.Builder
		for _, s := range segments {
			joined.WriteString(s.Text)
		}
		if joined.String() != text {
			t.Errorf("segments of %q rejoin to %q", text, joined.String())
		}

		parsed := h.Parse(h.Highlight(text, "mock"))
		if len(parsed) != len(segments) {
			t.Fatalf("Parse(Highlight(%q)) gave %d segments, want %d", text, len(parsed), len(segments))
		}
		for i := range parsed {
			if parsed[i] != segments[i] {
				t.Errorf("segment %d: got %+v, want %+v", i, parsed[i], segments[i])
			}
		}
	}
}

func BenchmarkHighlight(b *testing.B) {
	text := strings.Repeat("Vicious Mockery of the mocking bird ", 20)
	h := Default()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		h.Highlight(text, "mock")
	}
}

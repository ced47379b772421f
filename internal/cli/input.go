// Package cli is an interactive terminal front end: each line typed becomes the
// session query and the matching catalog entries are printed with their hits
// highlighted.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/bardbook/internal/utils"
	"github.com/bastiangx/bardbook/pkg/engine"
	"github.com/charmbracelet/log"
)

const helpText = `commands:
  :fuzzy on|off    toggle typo-tolerant matching
  :clear           clear the query and show everything
  :complete WORD   complete a word from the catalog vocabulary
  :stats [WORD]    show observer and catalog counters, or how often WORD occurs
  :help            show this help
anything else is searched for`

// InputHandler reads queries from in and prints results to out.
type InputHandler struct {
	engine       *engine.Engine
	in           io.Reader
	out          io.Writer
	limit        int
	styles       styles
	requestCount int
}

// NewInputHandler creates a handler printing at most limit results per query.
func NewInputHandler(eng *engine.Engine, in io.Reader, out io.Writer, limit int, color bool) *InputHandler {
	if limit <= 0 {
		limit = 24
	}
	return &InputHandler{
		engine: eng,
		in:     in,
		out:    out,
		limit:  limit,
		styles: newStyles(color),
	}
}

// Start begins the interface loop. It returns nil once the input is exhausted.
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, h.styles.render(h.styles.header, "Blingus' Bardbook"))
	fmt.Fprintln(h.out, "type to search, :help for commands (Ctrl+C to exit)")

	reader := bufio.NewReader(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		if line != "" {
			h.handleInput(strings.TrimSpace(line))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(h.out)
				return nil
			}
			return err
		}
	}
}

// handleInput runs one command or query.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	if !utf8.ValidString(line) {
		log.Warnf("Ignoring input with invalid UTF-8: %q", line)
		fmt.Fprintln(h.out, "input is not valid UTF-8")
		return
	}
	sess := h.engine.Session()

	if !strings.HasPrefix(line, ":") {
		sess.SetText(line)
		h.search()
		return
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "fuzzy", "f":
		switch arg {
		case "on":
			sess.SetFuzzyEnabled(true)
		case "off":
			sess.SetFuzzyEnabled(false)
		case "":
			sess.SetFuzzyEnabled(!sess.Current().Fuzzy)
		default:
			fmt.Fprintf(h.out, "usage: :fuzzy on|off\n")
			return
		}
		fmt.Fprintf(h.out, "fuzzy search %s\n", onOff(sess.Current().Fuzzy))
		h.search()
	case "clear":
		sess.SetText("")
		h.search()
	case "complete", "c":
		h.complete(arg)
	case "stats":
		if arg != "" {
			h.wordStats(arg)
			return
		}
		h.stats()
	case "help", "h":
		fmt.Fprintln(h.out, helpText)
	default:
		fmt.Fprintf(h.out, "unknown command %q, try :help\n", cmd)
	}
}

func (h *InputHandler) search() {
	res := h.engine.Refresh()
	log.Debugf("Took [ %v ] for query %q (fuzzy=%v)", res.Elapsed, res.Query.Text, res.Query.Fuzzy)

	if line := CountLine(res.Count, res.Query.Text); line != "" {
		fmt.Fprintln(h.out, h.styles.render(h.styles.count, line))
	}
	for i, n := range res.Nodes {
		if i == h.limit {
			more := len(res.Nodes) - h.limit
			fmt.Fprintln(h.out, h.styles.render(h.styles.dim, fmt.Sprintf("... and %s more", utils.FormatWithCommas(more))))
			break
		}
		h.printNode(i+1, n)
	}
	if res.Suggestion != "" {
		fmt.Fprintf(h.out, "Did you mean %s?\n", h.styles.render(h.styles.hit, fmt.Sprintf("%q", res.Suggestion)))
	}
}

func (h *InputHandler) complete(prefix string) {
	if prefix == "" {
		fmt.Fprintln(h.out, "usage: :complete WORD")
		return
	}
	suggestions := h.engine.Vocabulary().Complete(prefix, h.limit)
	if len(suggestions) == 0 {
		log.Warnf("No completions found for prefix: '%s'", prefix)
		fmt.Fprintf(h.out, "no completions for %q\n", prefix)
		return
	}
	fmt.Fprintf(h.out, "%d %s for %q:\n", len(suggestions), utils.Plural(len(suggestions), "completion"), prefix)
	for i, s := range suggestions {
		fmt.Fprintf(h.out, "%2d. %-24s (freq: %6s)\n", i+1, h.styles.render(h.styles.title, s.Word), utils.FormatWithCommas(s.Frequency))
	}
}

func (h *InputHandler) stats() {
	st := h.engine.Observer().Stats()
	cat := h.engine.Catalog()
	fmt.Fprintf(h.out, "entries: %s in %d %s\n", utils.FormatWithCommas(cat.Len()), len(cat.Sections), utils.Plural(len(cat.Sections), "section"))
	fmt.Fprintf(h.out, "vocabulary: %s words\n", utils.FormatWithCommas(h.engine.Vocabulary().Stats()["distinctWords"]))
	fmt.Fprintf(h.out, "observer: %d passes, %d highlighted, %d skipped, %d invalidations, %d remembered\n",
		st.Passes, st.Highlighted, st.Skipped, st.Invalidations, st.Remembered)
	fmt.Fprintf(h.out, "queries: %d\n", h.requestCount)
}

func (h *InputHandler) wordStats(word string) {
	freq := h.engine.Vocabulary().Frequency(word)
	if freq == 0 {
		fmt.Fprintf(h.out, "%q does not occur in the catalog\n", word)
		return
	}
	fmt.Fprintf(h.out, "%q occurs %s %s\n", word, utils.FormatWithCommas(freq), utils.Plural(freq, "time"))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

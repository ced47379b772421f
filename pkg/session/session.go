// Package session holds the active query text and fuzzy toggle, persists the
// toggle, and tells listeners when either changes.
package session

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bastiangx/bardbook/pkg/search"
	"github.com/charmbracelet/log"
)

// FuzzyKey is the preference key of the fuzzy toggle.
const FuzzyKey = "fuzzySearchEnabled"

// Store persists string preferences.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Listener is called with the new query after every change.
type Listener func(q search.Query)

type subscription struct {
	id int
	fn Listener
}

// Session is the search state shared by the input, the filter and the
// observer. It is safe for concurrent use; listeners run outside the lock.
type Session struct {
	mu        sync.Mutex
	query     search.Query
	store     Store
	listeners []subscription
	nextID    int
}

// New creates a session. The fuzzy toggle is read from store, falling back
// to defaultFuzzy when absent or unreadable. A nil store keeps the toggle in
// memory only.
func New(store Store, defaultFuzzy bool) *Session {
	s := &Session{store: store, query: search.Query{Fuzzy: defaultFuzzy}}
	if store == nil {
		return s
	}

	value, ok, err := store.Get(FuzzyKey)
	switch {
	case err != nil:
		log.Warnf("Could not read %s preference, using default %v: %v", FuzzyKey, defaultFuzzy, err)
	case ok:
		enabled, perr := strconv.ParseBool(value)
		if perr != nil {
			log.Warnf("Ignoring invalid %s preference %q", FuzzyKey, value)
			break
		}
		s.query.Fuzzy = enabled
	}
	return s
}

// Current returns the active query.
func (s *Session) Current() search.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetText replaces the query text, trimmed of surrounding whitespace.
// It returns whether the text changed.
func (s *Session) SetText(text string) bool {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.query.Text == text {
		s.mu.Unlock()
		return false
	}
	s.query.Text = text
	q, listeners := s.query, s.snapshot()
	s.mu.Unlock()

	notify(listeners, q)
	return true
}

// SetFuzzyEnabled sets the fuzzy toggle and persists it. Persistence failures
// are logged and otherwise ignored. It returns whether the toggle changed.
func (s *Session) SetFuzzyEnabled(enabled bool) bool {
	s.mu.Lock()
	if s.query.Fuzzy == enabled {
		s.mu.Unlock()
		return false
	}
	s.query.Fuzzy = enabled
	q, listeners := s.query, s.snapshot()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Set(FuzzyKey, strconv.FormatBool(enabled)); err != nil {
			log.Warnf("Could not persist %s preference: %v", FuzzyKey, err)
		}
	}
	notify(listeners, q)
	return true
}

// Subscribe registers fn for change notifications and returns a function
// that removes it again.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Session) snapshot() []Listener {
	fns := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		fns[i] = sub.fn
	}
	return fns
}

func notify(listeners []Listener, q search.Query) {
	for _, fn := range listeners {
		fn(q)
	}
}

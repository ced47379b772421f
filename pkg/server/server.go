package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/bastiangx/bardbook/internal/logger"
	"github.com/bastiangx/bardbook/pkg/engine"
	"github.com/bastiangx/bardbook/pkg/vocab"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultLimit caps search matches and completions when a request sets none.
	DefaultLimit = 24
	// MaxQueryLength rejects queries longer than this many bytes.
	MaxQueryLength = 256

	actionSearch   = "search"
	actionComplete = "complete"
	actionHealth   = "health"
)

// Server handles msgpack IPC for one engine.
type Server struct {
	engine   *engine.Engine
	dec      *msgpack.Decoder
	out      *bufio.Writer
	enc      *msgpack.Encoder
	limit    int
	requests int
	log      *log.Logger
}

// NewServer creates a server reading requests from r and writing responses to w.
// A non-positive limit means DefaultLimit.
func NewServer(eng *engine.Engine, r io.Reader, w io.Writer, limit int) *Server {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := bufio.NewWriter(w)
	return &Server{
		engine: eng,
		dec:    msgpack.NewDecoder(bufio.NewReader(r)),
		out:    out,
		enc:    msgpack.NewEncoder(out),
		limit:  limit,
		log:    logger.Default("ipc"),
	}
}

// Start processes requests until EOF. It returns an error only when the
// input stream itself breaks.
func (s *Server) Start() error {
	s.log.Debug("Starting msgpack IPC server")
	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debugf("IPC input closed after %d requests", s.requests)
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.Warnf("IPC input ended inside a message after %d requests", s.requests)
				return nil
			}
			s.sendError("", fmt.Sprintf("unreadable message: %v", err), 400)
			return fmt.Errorf("reading IPC message: %w", err)
		}
		s.requests++
		s.handleMessage(raw)
	}
}

// Requests returns how many messages were read.
func (s *Server) Requests() int {
	return s.requests
}

func (s *Server) handleMessage(raw msgpack.RawMessage) {
	var env Envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		s.log.Debugf("Malformed IPC message: %v", err)
		s.sendError("", "invalid msgpack request", 400)
		return
	}

	switch env.Action {
	case "", actionSearch:
		var req SearchRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.sendError(env.ID, "invalid search request", 400)
			return
		}
		s.handleSearch(req)
	case actionComplete:
		var req CompleteRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			s.sendError(env.ID, "invalid complete request", 400)
			return
		}
		s.handleComplete(req)
	case actionHealth:
		s.sendResponse(StatusResponse{
			ID:      env.ID,
			Status:  "ok",
			Entries: s.engine.Catalog().Len(),
			Stats:   s.engine.Catalog().Stats(),
		})
	default:
		s.sendError(env.ID, fmt.Sprintf("unknown action: %s", env.Action), 400)
	}
}

func (s *Server) handleSearch(req SearchRequest) {
	if len(req.Query) > MaxQueryLength {
		s.sendError(req.ID, fmt.Sprintf("query exceeds maximum length of %d bytes", MaxQueryLength), 400)
		return
	}
	if !utf8.ValidString(req.Query) {
		s.sendError(req.ID, "query is not valid UTF-8", 400)
		return
	}

	sess := s.engine.Session()
	if req.Fuzzy != nil {
		sess.SetFuzzyEnabled(*req.Fuzzy)
	}
	sess.SetText(req.Query)

	res := s.engine.Refresh()

	limit := s.limitFor(req.Limit)
	matches := make([]Match, 0, min(limit, len(res.Nodes)))
	for _, n := range res.Nodes {
		if len(matches) == limit {
			break
		}
		fields := n.Fields()
		spans := make([]string, len(fields))
		for i, f := range fields {
			spans[i] = f.Markup()
		}
		matches = append(matches, Match{Index: n.Item.Index, Section: n.Item.Section, Spans: spans})
	}

	s.sendResponse(SearchResponse{
		ID:         req.ID,
		Matches:    matches,
		Count:      res.Count.N,
		Filtering:  res.Count.Filtering,
		DidYouMean: res.Suggestion,
		TimeTaken:  res.Elapsed.Microseconds(),
	})
}

func (s *Server) handleComplete(req CompleteRequest) {
	if req.Prefix == "" {
		s.sendError(req.ID, "missing prefix", 400)
		return
	}
	if len(req.Prefix) > 60 {
		s.sendError(req.ID, "prefix exceeds maximum length of 60 characters", 400)
		return
	}
	if !utf8.ValidString(req.Prefix) {
		s.sendError(req.ID, "prefix is not valid UTF-8", 400)
		return
	}

	start := time.Now()
	suggestions := s.engine.Vocabulary().Complete(req.Prefix, s.limitFor(req.Limit))
	if suggestions == nil {
		suggestions = []vocab.Suggestion{}
	}
	s.sendResponse(CompleteResponse{
		ID:          req.ID,
		Suggestions: suggestions,
		Count:       len(suggestions),
		TimeTaken:   time.Since(start).Microseconds(),
	})
}

func (s *Server) limitFor(requested int) int {
	if requested <= 0 {
		return s.limit
	}
	return requested
}

// sendResponse encodes response and flushes it to the client.
func (s *Server) sendResponse(response any) {
	if err := s.enc.Encode(response); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return
	}
	if err := s.out.Flush(); err != nil {
		s.log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.log.Debugf("IPC error for %q: %s", id, message)
	s.sendResponse(ErrorResponse{ID: id, Error: message, Code: code})
}

// Package api serves the save/load endpoints for user data over HTTP.
//
// Requests name an action ("save" or "load") in the query string, a form
// field or the JSON body. Every reply is a JSON Response envelope.
package api

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"slices"

	"github.com/bastiangx/bardbook/internal/logger"
	"github.com/bastiangx/bardbook/internal/storage"
	"github.com/charmbracelet/log"
)

// Options configures a Handler.
type Options struct {
	// APIKey enables authentication when non-empty.
	APIKey string
	// AllowedOrigins restricts CORS. Empty allows any origin.
	AllowedOrigins []string
	// MaxBodyBytes caps request bodies. Zero means storage.DefaultMaxBytes.
	MaxBodyBytes int64
}

// Handler is the http.Handler for the save/load endpoints.
type Handler struct {
	backend storage.Backend
	opts    Options
	log     *log.Logger
}

// NewHandler returns a handler persisting through backend.
func NewHandler(backend storage.Backend, opts Options) *Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = storage.DefaultMaxBytes
	}
	return &Handler{backend: backend, opts: opts, log: logger.New("api")}
}

var bearerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.*)$`)

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	formMsg := h.parseForm(w, r)

	if h.opts.APIKey != "" && !h.authorized(r) {
		h.log.Warn("rejected request", "remote", r.RemoteAddr, "path", r.URL.Path)
		writeError(w, http.StatusUnauthorized, MsgUnauthorized)
		return
	}
	if formMsg != "" {
		writeError(w, http.StatusBadRequest, formMsg)
		return
	}

	body, msg := h.readBody(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	action := h.action(r, body)
	h.log.Debug("request", "method", r.Method, "action", action, "bytes", len(body))

	switch action {
	case "save":
		h.save(w, r, body)
	case "load":
		h.load(w, r)
	default:
		writeError(w, http.StatusBadRequest, MsgBadAction)
	}
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := h.opts.AllowedOrigins
	switch {
	case len(allowed) == 0 || slices.Contains(allowed, "*"):
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
	case slices.Contains(allowed, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
	default:
		w.Header().Set("Access-Control-Allow-Origin", allowed[0])
	}
	w.Header().Add("Vary", "Origin")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// parseForm caps the POST body and parses form posts so a key or action field
// is visible before the body is consumed. It returns a client-facing message
// on failure.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) string {
	if r.Method != http.MethodPost || r.Body == nil {
		return ""
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	if !isForm(r) {
		return ""
	}
	if err := r.ParseForm(); err != nil {
		return h.bodyError(err)
	}
	return ""
}

// readBody reads a non-form POST body up to the size limit.
func (h *Handler) readBody(r *http.Request) ([]byte, string) {
	if r.Method != http.MethodPost || r.Body == nil || isForm(r) {
		return nil, ""
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, h.bodyError(err)
	}
	return body, ""
}

func isForm(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded"
}

func (h *Handler) bodyError(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("Data too large: maximum size is %d bytes", h.opts.MaxBodyBytes)
	}
	return "Failed to read request body: " + err.Error()
}

// authorized compares the provided key in constant time. A bearer header
// wins over the key parameter.
func (h *Handler) authorized(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = r.PostForm.Get("key")
	}
	if m := bearerPattern.FindStringSubmatch(r.Header.Get("Authorization")); m != nil {
		key = m[1]
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.opts.APIKey)) == 1
}

func (h *Handler) action(r *http.Request, body []byte) string {
	if a := r.URL.Query().Get("action"); a != "" {
		return a
	}
	if a := r.PostForm.Get("action"); a != "" {
		return a
	}
	if len(body) > 0 {
		var req struct {
			Action string `json:"action"`
		}
		if json.Unmarshal(body, &req) == nil {
			return req.Action
		}
	}
	return ""
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, body []byte) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusBadRequest, "POST method required for save action")
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, "Empty request body")
		return
	}

	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format: "+err.Error())
		return
	}
	if len(req.Data) == 0 || string(req.Data) == "null" {
		writeError(w, http.StatusBadRequest, `Invalid data format: missing "data" field`)
		return
	}
	var data map[string]any
	if err := json.Unmarshal(req.Data, &data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data format: data must be an object")
		return
	}

	stamp, err := h.backend.Save(r.Context(), data)
	if err != nil {
		h.log.Error("save failed", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: MsgSaved, Timestamp: stampPtr(stamp)})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	data, stamp, err := h.backend.Load(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: MsgNotFound})
		return
	}
	if err != nil {
		h.log.Error("load failed", "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := Response{Success: true, Data: data}
	if stamp != "" {
		resp.Timestamp = stampPtr(stamp)
	}
	writeJSON(w, http.StatusOK, resp)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
)

// Response is the envelope of every endpoint reply.
type Response struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp *string        `json:"timestamp,omitempty"`
}

// Messages shared with clients.
const (
	MsgSaved        = "Data saved successfully"
	MsgNotFound     = "No saved data found"
	MsgUnauthorized = "Unauthorized: Invalid or missing API key"
	MsgBadAction    = "Invalid action"
)

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{Success: false, Error: msg})
}

func stampPtr(s string) *string {
	return &s
}

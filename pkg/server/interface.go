/*
Package server implements msgpack IPC for a renderer driving the search core.

The server reads msgpack messages from stdin and writes one msgpack response per
message to stdout. Logs never go to stdout.

# IPC

Each message is a map carrying an "id" that the response echoes.
A message without an "action" is a search request:

	{"id": "req_001", "q": "vicous", "f": true, "l": 24}

The server sets the shared session text (and the fuzzy toggle when "f" is present),
filters the catalog, renders the matching entries and runs them through the result
observer, so the response holds exactly what a renderer would display:

	{"id": "req_001", "m": [{"i": 0, "s": "insults", "h": ["<mark ...>Vicious</mark> Mockery"]}],
	 "c": 1, "a": true, "t": 145}

"c" is the match count and "a" reports whether a filter is active; an empty query
returns every entry with "a" false. A filtered request with no matches may carry a
corrected query in "d".

Word completions come from the catalog vocabulary:

	{"id": "cmp_001", "action": "complete", "p": "Vic", "l": 5}
	{"id": "cmp_001", "s": [{"w": "Vicious", "f": 3}], "c": 1, "t": 20}

A message that cannot be decoded, or names an unknown action, gets

	{"id": "req_002", "e": "unknown action: reload", "c": 400}

and the loop carries on. The loop ends on EOF.

"t" is the handling time in microseconds.
*/
package server

import "github.com/bastiangx/bardbook/pkg/vocab"

// Envelope holds the fields shared by every request.
type Envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
}

// SearchRequest sets the session query and asks for the rendered results.
type SearchRequest struct {
	ID    string `msgpack:"id"`
	Query string `msgpack:"q"`
	Fuzzy *bool  `msgpack:"f,omitempty"`
	Limit int    `msgpack:"l,omitempty"`
}

// Match is one rendered result.
type Match struct {
	Index   int      `msgpack:"i"`
	Section string   `msgpack:"s"`
	Spans   []string `msgpack:"h"`
}

// SearchResponse carries the rendered results of a search request.
type SearchResponse struct {
	ID         string  `msgpack:"id"`
	Matches    []Match `msgpack:"m"`
	Count      int     `msgpack:"c"`
	Filtering  bool    `msgpack:"a"`
	DidYouMean string  `msgpack:"d,omitempty"`
	TimeTaken  int64   `msgpack:"t"`
}

// CompleteRequest asks for vocabulary completions of a prefix.
type CompleteRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Prefix string `msgpack:"p"`
	Limit  int    `msgpack:"l,omitempty"`
}

// CompleteResponse lists completions, most frequent first.
type CompleteResponse struct {
	ID          string             `msgpack:"id"`
	Suggestions []vocab.Suggestion `msgpack:"s"`
	Count       int                `msgpack:"c"`
	TimeTaken   int64              `msgpack:"t"`
}

// StatusResponse answers health checks.
type StatusResponse struct {
	ID      string         `msgpack:"id"`
	Status  string         `msgpack:"status"`
	Entries int            `msgpack:"entries,omitempty"`
	Stats   map[string]int `msgpack:"stats,omitempty"`
}

// ErrorResponse holds basic error information for a failed request.
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

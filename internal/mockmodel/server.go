// Package mockmodel implements a minimal Gemini-shaped generateContent
// surface for tests and local runs. It parses prospect ids out of the
// incoming prompt and answers with a deterministic scored JSON array, so the
// full client -> engine -> validator path can be exercised without network
// access or an API key.
package mockmodel

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
)

// Call records one generateContent request made to the mock.
type Call struct {
	Method string
	Path   string
	Prompt string
}

// Server fakes the generateContent endpoint.
type Server struct {
	mu    sync.Mutex
	calls []Call

	// failuresLeft makes the next N calls answer with failStatus.
	failuresLeft int
	failStatus   int

	// ReplyOverride, when non-empty, is returned verbatim as the model text
	// instead of the deterministic scored array.
	ReplyOverride string
}

func New() *Server {
	return &Server{}
}

// FailNext makes the next n calls answer with the given HTTP status.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failuresLeft = n
	s.failStatus = status
}

// Calls returns a copy of the recorded calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns the HTTP handler for the mock surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleGenerate)
	return mux
}

var prospectIDRe = regexp.MustCompile(`"prospect_id"\s*:\s*"((?:[^"\\]|\\.)*)"`)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, ":generateContent") {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	prompt := extractPrompt(body)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Prompt: prompt})
	fail := s.failuresLeft > 0
	status := s.failStatus
	if fail {
		s.failuresLeft--
	}
	override := s.ReplyOverride
	s.mu.Unlock()

	if fail {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error": {"code": %d, "message": "mock failure", "status": "UNAVAILABLE"}}`, status)
		return
	}

	text := override
	if text == "" {
		text = scoredArray(prospectIDs(prompt))
	}

	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
			"finishReason": "STOP",
		}},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// extractPrompt concatenates all text parts of the request contents.
func extractPrompt(body []byte) string {
	var req struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	var b strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			b.WriteString(p.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func prospectIDs(prompt string) []string {
	matches := prospectIDRe.FindAllStringSubmatch(prompt, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// scoredArray builds a deterministic reply: each prospect's score is derived
// from a hash of its id so reruns stay stable.
func scoredArray(ids []string) string {
	type entry struct {
		ProspectID    string `json:"prospect_id"`
		Score         int    `json:"score"`
		Justification string `json:"justification"`
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		h := fnv.New32a()
		_, _ = h.Write([]byte(id))
		entries = append(entries, entry{
			ProspectID:    id,
			Score:         int(h.Sum32() % 101),
			Justification: "Deterministic mock score for " + id,
		})
	}
	b, _ := json.Marshal(entries)
	return string(b)
}

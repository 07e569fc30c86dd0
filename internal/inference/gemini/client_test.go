package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/funnelalchemy/prospect-scorer/internal/mockmodel"
	"github.com/funnelalchemy/prospect-scorer/pkg/scoring/core"
	"google.golang.org/genai"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(context.Background(), Config{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: baseURL,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNew_RequiresKeyAndModel(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{Model: "gemini-2.0-flash"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New(context.Background(), Config{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestInvoke_AgainstMockModel(t *testing.T) {
	t.Parallel()

	mock := mockmodel.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	prospects := []core.Prospect{
		{ID: "p1", Attrs: map[string]any{"company": "Acme"}},
		{ID: "p2"},
	}

	reply, err := client.Invoke(context.Background(), core.Settings{"industries": []string{"saas"}}, prospects)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	var entries []struct {
		ProspectID string `json:"prospect_id"`
		Score      int    `json:"score"`
	}
	if err := json.Unmarshal([]byte(reply.Text), &entries); err != nil {
		t.Fatalf("reply is not a JSON array: %v\n%s", err, reply.Text)
	}
	if len(entries) != 2 || entries[0].ProspectID != "p1" || entries[1].ProspectID != "p2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	for _, e := range entries {
		if e.Score < 0 || e.Score > 100 {
			t.Fatalf("score out of range: %+v", e)
		}
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Prompt, `"p1"`) || !strings.Contains(calls[0].Prompt, `"Acme"`) {
		t.Fatalf("prompt missing prospect data:\n%s", calls[0].Prompt)
	}
}

func TestInvoke_RateLimitClassified(t *testing.T) {
	t.Parallel()

	mock := mockmodel.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	mock.FailNext(1, 429)
	client := newTestClient(t, srv.URL)

	_, err := client.Invoke(context.Background(), core.Settings{}, []core.Prospect{{ID: "p1"}})
	if err == nil {
		t.Fatal("expected error from 429 response")
	}
	if cat := core.Classify(err); cat != core.CategoryAPIRateLimit {
		t.Fatalf("expected api_ratelimit, got %s (%v)", cat, err)
	}
}

func TestInvoke_ServerErrorClassified(t *testing.T) {
	t.Parallel()

	mock := mockmodel.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	mock.FailNext(1, 503)
	client := newTestClient(t, srv.URL)

	_, err := client.Invoke(context.Background(), core.Settings{}, []core.Prospect{{ID: "p1"}})
	if err == nil {
		t.Fatal("expected error from 503 response")
	}
	if cat := core.Classify(err); cat != core.CategoryAPIFailure {
		t.Fatalf("expected api_failure, got %s (%v)", cat, err)
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	mock := mockmodel.New()
	srv := httptest.NewServer(mock.Handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	mock.FailNext(1, 500)
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping failure")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyErr(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want core.Category
	}{
		{"deadline", context.DeadlineExceeded, core.CategoryAPITimeout},
		{"wrapped deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), core.CategoryAPITimeout},
		{"api 429", genai.APIError{Code: 429, Message: "quota"}, core.CategoryAPIRateLimit},
		{"api 500", genai.APIError{Code: 500, Message: "internal"}, core.CategoryAPIFailure},
		{"net timeout", timeoutErr{}, core.CategoryAPITimeout},
		{"plain", errors.New("boom"), core.CategoryAPIFailure},
	}
	for _, tc := range cases {
		var ce *core.ChunkError
		if !errors.As(classifyErr(tc.err), &ce) {
			t.Fatalf("%s: classifyErr did not return a ChunkError", tc.name)
		}
		if ce.Category != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, ce.Category, tc.want)
		}
	}
}

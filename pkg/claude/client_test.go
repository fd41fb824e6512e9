package claude

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Pat-Reen/FitnessChat/pkg/retry"
)

func TestModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"claude-sonnet-4", "claude-sonnet-4-20250514"},
		{"claude-sonnet-4-5", "claude-sonnet-4-5-20250929"},
		{"claude-opus-4", "claude-opus-4-20250514"},
		{"claude-opus-4-5", "claude-opus-4-5-20251101"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mapped, ok := modelMapping[tt.input]
			if !ok {
				t.Errorf("model %q not found in mapping", tt.input)
				return
			}
			if mapped != tt.expected {
				t.Errorf("model %q mapped to %q, expected %q", tt.input, mapped, tt.expected)
			}
		})
	}
}

func TestIsAgentSupported(t *testing.T) {
	for _, agent := range SupportedAgents {
		if !IsAgentSupported(agent) {
			t.Errorf("agent %q should be supported", agent)
		}
		if _, ok := modelMapping[agent]; !ok {
			t.Errorf("agent %q has no model mapping", agent)
		}
	}

	for _, agent := range []string{"claude-3", "gpt-4", "invalid"} {
		if IsAgentSupported(agent) {
			t.Errorf("agent %q should not be supported", agent)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "")

	_, err := NewClient("")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	if _, err := NewClient("", WithAPIKey("explicit")); err != nil {
		t.Errorf("explicit key should be accepted: %v", err)
	}
}

func TestNewClientMapsModel(t *testing.T) {
	t.Setenv(APIKeyEnv, "test-key")

	tests := []struct {
		input    string
		expected string
	}{
		{"", "claude-sonnet-4-5-20250929"},
		{"claude-opus-4-5", "claude-opus-4-5-20251101"},
		{"claude-custom-model", "claude-custom-model"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			client, err := NewClient(tt.input)
			if err != nil {
				t.Fatalf("NewClient(%q) failed: %v", tt.input, err)
			}
			if client.Model() != tt.expected {
				t.Errorf("NewClient(%q).Model() = %q, want %q", tt.input, client.Model(), tt.expected)
			}
			if client.maxTokens != DefaultMaxTokens {
				t.Errorf("maxTokens = %d, want %d", client.maxTokens, DefaultMaxTokens)
			}
		})
	}
}

type fakeAnthropic struct {
	calls    atomic.Int32
	failures int32
	status   int
	text     string
	lastBody map[string]any
}

func (f *fakeAnthropic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(body, &f.lastBody)

	w.Header().Set("Content-Type", "application/json")
	if n <= f.failures {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
		return
	}

	resp := map[string]any{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-5-20250929",
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content":       []map[string]any{{"type": "text", "text": f.text}},
		"usage":         map[string]any{"input_tokens": 12, "output_tokens": 7},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithAPIKey("sk-test"),
		WithBaseURL(srv.URL + "/"),
		WithRateLimit(100),
		WithRetry(retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}),
	}
	c, err := NewClient("claude-sonnet-4-5", append(base, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestGenerateContent(t *testing.T) {
	fake := &fakeAnthropic{text: `["Plank", "Deadlift"]`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := testClient(t, srv, WithMaxTokens(1024))
	got, err := c.GenerateContent(context.Background(), "pick exercises")
	if err != nil {
		t.Fatalf("GenerateContent error: %v", err)
	}
	if got != `["Plank", "Deadlift"]` {
		t.Errorf("got %q", got)
	}

	if fake.lastBody["model"] != "claude-sonnet-4-5-20250929" {
		t.Errorf("model sent = %v", fake.lastBody["model"])
	}
	if fake.lastBody["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens sent = %v", fake.lastBody["max_tokens"])
	}
	msgs, _ := fake.lastBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected a single message, got %d", len(msgs))
	}
	if msg, _ := msgs[0].(map[string]any); msg["role"] != "user" {
		t.Errorf("message role = %v", msg["role"])
	}
}

func TestGenerateContentRetriesOverload(t *testing.T) {
	fake := &fakeAnthropic{text: "# Workout", failures: 2, status: 529}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	got, err := testClient(t, srv).GenerateContent(context.Background(), "build")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got != "# Workout" {
		t.Errorf("got %q", got)
	}
	if fake.calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", fake.calls.Load())
	}
}

func TestGenerateContentAuthErrorNotRetried(t *testing.T) {
	fake := &fakeAnthropic{failures: 10, status: http.StatusUnauthorized}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := testClient(t, srv).GenerateContent(context.Background(), "build")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid API key") {
		t.Errorf("error = %v", err)
	}
	if fake.calls.Load() != 1 {
		t.Errorf("auth failures should not be retried, calls = %d", fake.calls.Load())
	}
}

func TestGenerateContentGivesUp(t *testing.T) {
	fake := &fakeAnthropic{failures: 10, status: http.StatusTooManyRequests}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := testClient(t, srv).GenerateContent(context.Background(), "build")
	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("error = %v", err)
	}
	if fake.calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", fake.calls.Load())
	}
}

func TestGenerateContentHonoursRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
			return
		}
		(&fakeAnthropic{text: "# Workout"}).ServeHTTP(w, r)
	}))
	defer srv.Close()

	// a one second hint outweighs the millisecond backoff, capped by MaxDelay
	c := testClient(t, srv, WithRetry(retry.Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Second, Multiplier: 2}))
	start := time.Now()
	if _, err := c.GenerateContent(context.Background(), "build"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("retried after %v, want the Retry-After wait", elapsed)
	}
}

func TestGenerateContentConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(&fakeAnthropic{})
	c := testClient(t, srv)
	srv.Close()

	_, err := c.GenerateContent(context.Background(), "build")
	if err == nil || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("connection failures should be retried before giving up, err = %v", err)
	}
}

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		prompt string
		same   bool
	}{
		{"same inputs produce same hash", "claude-sonnet-4-5", "Build a workout", true},
		{"different prompt changes hash", "claude-sonnet-4-5", "Build a different workout", false},
		{"different model changes hash", "gemini-2.5-flash", "Build a workout", false},
	}

	base := Key("claude-sonnet-4-5", "Build a workout")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.model, tt.prompt)
			if len(got) != 64 {
				t.Errorf("key length = %d, want 64", len(got))
			}
			if (got == base) != tt.same {
				t.Errorf("Key(%q, %q) == base is %v, want %v", tt.model, tt.prompt, got == base, tt.same)
			}
		})
	}

	// the separator keeps model/prompt boundaries distinct
	if Key("ab", "c") == Key("a", "bc") {
		t.Error("boundary collision between model and prompt")
	}
}

func TestStoreReadWrite(t *testing.T) {
	s := New(t.TempDir())
	key := Key("m", "p")

	if _, err := s.Read(key); !errors.Is(err, ErrMiss) {
		t.Fatalf("Read on empty store = %v, want ErrMiss", err)
	}
	if s.Exists(key) {
		t.Error("Exists should be false before Write")
	}

	if err := s.Write(Entry{Key: key, Model: "m", Response: "# Plan"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !s.Exists(key) {
		t.Error("Exists should be true after Write")
	}

	e, err := s.Read(key)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if e.Response != "# Plan" || e.Model != "m" || e.CreatedAt.IsZero() {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestStoreCorruptEntry(t *testing.T) {
	s := New(t.TempDir())
	key := Key("m", "p")
	if err := os.WriteFile(s.Path(key), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(key); err == nil || errors.Is(err, ErrMiss) {
		t.Errorf("corrupt entry should be a parse error, got %v", err)
	}
}

type countingClient struct {
	calls  int
	reply  string
	err    error
	closed bool
}

func (c *countingClient) GenerateContent(context.Context, string) (string, error) {
	c.calls++
	return c.reply, c.err
}

func (c *countingClient) Close() { c.closed = true }

func TestClientCachesResponses(t *testing.T) {
	next := &countingClient{reply: `["Plank"]`}
	c := Wrap(next, New(t.TempDir()), "claude-sonnet-4-5")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.GenerateContent(ctx, "suggest")
		if err != nil || got != `["Plank"]` {
			t.Fatalf("call %d: %q, %v", i, got, err)
		}
	}
	if next.calls != 1 {
		t.Errorf("underlying calls = %d, want 1", next.calls)
	}

	if _, err := c.GenerateContent(ctx, "another prompt"); err != nil {
		t.Fatal(err)
	}
	if next.calls != 2 {
		t.Errorf("new prompt should miss, calls = %d", next.calls)
	}

	c.Close()
	if !next.closed {
		t.Error("Close should close the wrapped client")
	}
}

func TestClientDoesNotCacheFailures(t *testing.T) {
	next := &countingClient{err: errors.New("overloaded")}
	store := New(t.TempDir())
	c := Wrap(next, store, "m")

	if _, err := c.GenerateContent(context.Background(), "p"); err == nil {
		t.Fatal("expected error")
	}
	if store.Exists(Key("m", "p")) {
		t.Error("failed calls must not be cached")
	}

	next.err, next.reply = nil, ""
	if _, err := c.GenerateContent(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if store.Exists(Key("m", "p")) {
		t.Error("empty responses must not be cached")
	}
}

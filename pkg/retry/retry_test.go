package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"
)

// fast retries with no jitter so waits are predictable
func testConfig(retries int) Config {
	return Config{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}
}

// llmAttempt fails with the given statuses in order, then returns "# Workout".
func llmAttempt(statuses ...int) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		if calls <= len(statuses) {
			code := statuses[calls-1]
			return "", Classify(fmt.Errorf("api error (status %d)", code), code, nil)
		}
		return "# Workout", nil
	}, &calls
}

func TestDoByStatus(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantCalls int
		wantErr   bool
	}{
		{"success first time", nil, 1, false},
		{"rate limited then ok", []int{429}, 2, false},
		{"overloaded twice then ok", []int{529, 529}, 3, false},
		{"server error then ok", []int{502}, 2, false},
		{"bad request", []int{400}, 1, true},
		{"invalid key", []int{401}, 1, true},
		{"unknown model", []int{404}, 1, true},
		{"rate limited past the budget", []int{429, 429, 429, 429}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, calls := llmAttempt(tt.statuses...)
			got, err := Do(context.Background(), testConfig(2), fn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != "# Workout" {
				t.Errorf("got %q", got)
			}
			if *calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", *calls, tt.wantCalls)
			}
			if IsRetryable(err) {
				t.Error("returned error still carries the retry marker")
			}
		})
	}
}

func TestDoGivingUpKeepsCause(t *testing.T) {
	overloaded := errors.New("service overloaded")
	_, err := Do(context.Background(), testConfig(2), func() (string, error) {
		return "", Classify(overloaded, 529, nil)
	})
	if !errors.Is(err, overloaded) {
		t.Fatalf("err = %v, want it to wrap the last cause", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("err = %q, want the attempt count", err)
	}

	// without retries the cause comes back as is
	_, err = Do(context.Background(), testConfig(0), func() (string, error) {
		return "", Classify(overloaded, 529, nil)
	})
	if err != overloaded {
		t.Errorf("err = %v, want %v", err, overloaded)
	}
}

func TestDoStopsWhenCancelledDuringBackoff(t *testing.T) {
	cfg := Config{MaxRetries: 3, BaseDelay: time.Minute, MaxDelay: time.Minute, Multiplier: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Do(ctx, cfg, func() (string, error) {
		return "", Classify(errors.New("rate limit"), http.StatusTooManyRequests, nil)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Do kept waiting after the context ended")
	}
}

func TestDoWaitsOnLimiterEveryAttempt(t *testing.T) {
	cfg := testConfig(2)
	cfg.Limiter = NewRateLimiter(0.001) // one token, then effectively none

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	calls := 0
	_, err := Do(ctx, cfg, func() (string, error) {
		calls++
		return "", Classify(errors.New("busy"), http.StatusServiceUnavailable, nil)
	})
	if err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Errorf("err = %v, want a rate limiter error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, the retry should have waited on the limiter", calls)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransient(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   bool
	}{
		{"rate limit", errors.New("x"), 429, true},
		{"overloaded", errors.New("x"), 529, true},
		{"unavailable", errors.New("x"), 503, true},
		{"forbidden", errors.New("x"), 403, false},
		{"connection reset", fmt.Errorf("post: %w", syscall.ECONNRESET), 0, true},
		{"connection refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), 0, true},
		{"truncated body", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), 0, true},
		{"network timeout", fmt.Errorf("post: %w", timeoutErr{}), 0, true},
		{"cancelled", fmt.Errorf("post: %w", context.Canceled), 0, false},
		{"cancelled with status", context.Canceled, 503, false},
		{"deadline", context.DeadlineExceeded, 0, false},
		{"unknown", errors.New("no text content in response"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Transient(tt.err, tt.status); got != tt.want {
				t.Errorf("Transient(%v, %d) = %v, want %v", tt.err, tt.status, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil, 500, nil) != nil {
		t.Error("nil error should stay nil")
	}

	cause := errors.New("invalid API key")
	if err := Classify(cause, 401, nil); err != cause || IsRetryable(err) {
		t.Errorf("401 should pass through unmarked, got %v", err)
	}

	h := http.Header{}
	h.Set("Retry-After", "7")
	err := Classify(cause, 429, h)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("429 should be marked retryable, got %v", err)
	}
	if re.After != 7*time.Second {
		t.Errorf("After = %v, want 7s", re.After)
	}
	if !errors.Is(err, cause) {
		t.Error("marked error should still wrap the cause")
	}
}

func TestRetryAfter(t *testing.T) {
	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)

	tests := []struct {
		value string
		min   time.Duration
		max   time.Duration
	}{
		{"", 0, 0},
		{"3", 3 * time.Second, 3 * time.Second},
		{"-1", 0, 0},
		{"soon", 0, 0},
		{past, 0, 0},
		{future, 59 * time.Minute, time.Hour},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := RetryAfter(h); got < tt.min || got > tt.max {
			t.Errorf("RetryAfter(%q) = %v, want between %v and %v", tt.value, got, tt.min, tt.max)
		}
	}
	if RetryAfter(nil) != 0 {
		t.Error("nil header should give zero")
	}
}

func TestBackoff(t *testing.T) {
	cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	tests := []struct {
		attempt int
		hint    time.Duration
		want    time.Duration
	}{
		{0, 0, 100 * time.Millisecond},
		{2, 0, 400 * time.Millisecond},
		{10, 0, time.Second},
		{0, 500 * time.Millisecond, 500 * time.Millisecond},
		{2, 200 * time.Millisecond, 400 * time.Millisecond},
		{0, time.Minute, time.Second},
	}
	for _, tt := range tests {
		if got := cfg.backoff(tt.attempt, tt.hint); got != tt.want {
			t.Errorf("backoff(%d, %v) = %v, want %v", tt.attempt, tt.hint, got, tt.want)
		}
	}

	cfg.JitterRatio = 0.1
	for i := 0; i < 50; i++ {
		if got := cfg.backoff(1, 0); got < 180*time.Millisecond || got > 220*time.Millisecond {
			t.Fatalf("jittered backoff %v outside +/-10%% of 200ms", got)
		}
	}
}

func TestDefaultConfigFitsInteractiveUse(t *testing.T) {
	cfg := DefaultConfig()
	var worst time.Duration
	for i := 0; i < cfg.MaxRetries; i++ {
		worst += cfg.backoff(i, time.Hour)
	}
	if worst > 2*time.Minute {
		t.Errorf("worst-case wait %v is too long for someone at a prompt", worst)
	}
}

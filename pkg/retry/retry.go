// Package retry retries LLM calls that fail for transient reasons and paces
// outgoing requests.
//
// Providers report a failed attempt through Classify, which decides from the
// HTTP status (or, when there was no response, the transport error) whether
// the call is worth repeating. Do then backs off, honouring any Retry-After
// the provider sent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
)

// Config controls how one LLM call is retried.
type Config struct {
	MaxRetries  int           // attempts after the first
	BaseDelay   time.Duration // wait before the first retry
	MaxDelay    time.Duration // cap on any single wait, Retry-After included
	Multiplier  float64       // growth per retry
	JitterRatio float64       // +/- fraction applied to the computed wait

	// Limiter is waited on before every attempt, retries included.
	Limiter *RateLimiter
}

// DefaultConfig suits interactive use: a user is waiting on the answer, so
// give up within about a minute.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterRatio: 0.1,
	}
}

// RetryableError marks a failed attempt that may succeed if repeated.
type RetryableError struct {
	Err error
	// After is the provider's Retry-After hint, zero when absent.
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Retryable marks err for retry with no Retry-After hint.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Classify marks err retryable when the failure is transient. status is the
// provider's HTTP status, or 0 when no response arrived; header carries the
// response headers and may be nil.
func Classify(err error, status int, header http.Header) error {
	if err == nil || !Transient(err, status) {
		return err
	}
	return &RetryableError{Err: err, After: RetryAfter(header)}
}

// Transient reports whether a failed LLM request is worth repeating.
// Cancellation never is.
func Transient(err error, status int) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if status != 0 {
		return TransientStatus(status)
	}

	// no response: only retry failures of the connection itself
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF)
}

// TransientStatus reports whether an HTTP status from an LLM API is worth
// retrying: rate limits, overload and server-side failures.
func TransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	case 529: // Anthropic "overloaded"
		return true
	}
	return code >= 500
}

// RetryAfter parses a Retry-After header given in seconds or as an HTTP
// date. Missing, malformed or past values give zero.
func RetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Do calls fn until it succeeds, returns an error not marked retryable, or
// runs out of retries. The error from the last attempt is returned without
// its retry marker.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		if cfg.Limiter != nil {
			if err := cfg.Limiter.Wait(ctx); err != nil {
				return zero, fmt.Errorf("rate limiter: %w", err)
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		var re *RetryableError
		if !errors.As(err, &re) {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			if attempt == 0 {
				return zero, re.Err
			}
			return zero, fmt.Errorf("giving up after %d attempts: %w", attempt+1, re.Err)
		}

		delay := cfg.backoff(attempt, re.After)
		clog.Debug("retrying LLM call",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"delay", delay,
			"error", re.Err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff is the wait before retry number attempt+1. A Retry-After hint
// longer than the computed delay wins; MaxDelay caps both.
func (c Config) backoff(attempt int, hint time.Duration) time.Duration {
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.BaseDelay) * math.Pow(mult, float64(attempt))
	if c.JitterRatio > 0 {
		d += d * c.JitterRatio * (rand.Float64()*2 - 1)
	}

	delay := time.Duration(d)
	if hint > delay {
		delay = hint
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

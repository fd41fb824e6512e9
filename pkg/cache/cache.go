// Package cache stores LLM responses on disk keyed by model and prompt, so
// repeating a one-shot command with identical inputs skips the API call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/utils"
)

// ErrMiss is returned by Read when no entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Key computes a deterministic SHA256 hash of the request.
// Order is critical: model, then prompt
func Key(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// DefaultDir is $XDG_CACHE_HOME/fitchat/responses or the platform equivalent.
func DefaultDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "fitchat", "responses")
}

type Entry struct {
	Key       string    `json:"key"`
	Model     string    `json:"model"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a directory of JSON entries, one file per key.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the path to the cache file for a given key
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) Read(key string) (Entry, error) {
	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, err
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("failed to parse cache: %w", err)
	}
	return e, nil
}

func (s *Store) Write(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	return utils.WriteBytes(s.Path(e.Key), data)
}

// Exists checks if cache exists for a key
func (s *Store) Exists(key string) bool {
	return utils.FileExists(s.Path(key))
}

// Client answers from the store when it can and records new responses.
type Client struct {
	next  ai.Client
	store *Store
	model string
}

// Wrap caches responses from next. model separates entries for different
// agents given the same prompt.
func Wrap(next ai.Client, store *Store, model string) *Client {
	return &Client{next: next, store: store, model: model}
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	key := Key(c.model, prompt)
	if e, err := c.store.Read(key); err == nil {
		clog.Debug("cache hit", "key", key[:12])
		return e.Response, nil
	} else if !errors.Is(err, ErrMiss) {
		clog.Warn("ignoring unreadable cache entry", "key", key[:12], "error", err)
	}

	out, err := c.next.GenerateContent(ctx, prompt)
	if err != nil {
		return "", err
	}
	if out != "" {
		if err := c.store.Write(Entry{Key: key, Model: c.model, Response: out}); err != nil {
			clog.Warn("failed to write cache", "error", err)
		}
	}
	return out, nil
}

func (c *Client) Close() {
	c.next.Close()
}

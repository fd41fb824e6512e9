package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/retry"
)

const (
	DefaultAgent     = "claude-sonnet-4-5"
	DefaultMaxTokens = 2048
	APIKeyEnv        = "ANTHROPIC_API_KEY"
)

// ErrNoAPIKey is returned by NewClient when no key is configured.
var ErrNoAPIKey = errors.New(APIKeyEnv + " environment variable not set")

var SupportedAgents = []string{
	"claude-sonnet-4",
	"claude-sonnet-4-5",
	"claude-opus-4",
	"claude-opus-4-5",
	"claude-haiku-4-5",
}

// Map friendly agent names to Anthropic model IDs
var modelMapping = map[string]string{
	"claude-sonnet-4":   "claude-sonnet-4-20250514",
	"claude-sonnet-4-5": "claude-sonnet-4-5-20250929",
	"claude-opus-4":     "claude-opus-4-20250514",
	"claude-opus-4-5":   "claude-opus-4-5-20251101",
	"claude-haiku-4-5":  "claude-haiku-4-5-20251001",
}

func IsAgentSupported(agent string) bool {
	for _, a := range SupportedAgents {
		if a == agent {
			return true
		}
	}
	return false
}

// Client sends single-turn prompts to the Anthropic Messages API.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     retry.Config
	limiter   *retry.RateLimiter

	apiKey  string
	baseURL string
}

type Option func(*Client)

// WithAPIKey overrides ANTHROPIC_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithBaseURL points the client at another endpoint, such as a proxy.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithMaxTokens caps the length of generated text.
func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithRateLimit sets the allowed requests per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) { c.limiter = retry.NewRateLimiter(perSecond) }
}

func NewClient(model string, opts ...Option) (*Client, error) {
	c := &Client{
		maxTokens: DefaultMaxTokens,
		retry:     retry.DefaultConfig(),
		limiter:   retry.NewRateLimiter(1.0),
		apiKey:    os.Getenv(APIKeyEnv),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if model == "" {
		model = DefaultAgent
	}
	// Map agent name to Anthropic model ID, passing unknown IDs through
	c.model = model
	if id, ok := modelMapping[model]; ok {
		c.model = id
	}

	// retries are handled here so they respect the rate limiter
	reqOpts := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = anthropic.NewClient(reqOpts...)

	return c, nil
}

// Model returns the resolved Anthropic model ID.
func (c *Client) Model() string {
	return c.model
}

// GenerateContent sends prompt as the only user message and returns the
// first text block of the reply.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	cfg := c.retry
	cfg.Limiter = c.limiter

	return retry.Do(ctx, cfg, func() (string, error) {
		clog.Debug("claude request", "model", c.model, "max_tokens", c.maxTokens, "prompt_chars", len(prompt))

		message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(c.model),
			MaxTokens: c.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			status, header := apiStatus(err)
			return "", retry.Classify(formatAPIError(err, c.model), status, header)
		}

		for _, block := range message.Content {
			if block.Type == "text" {
				return block.Text, nil
			}
		}
		return "", fmt.Errorf("no text content in response")
	})
}

// apiStatus returns the HTTP status and response headers of an Anthropic API
// error, or zero and nil when the request got no response.
func apiStatus(err error) (int, http.Header) {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return 0, nil
	}
	if apiErr.Response != nil {
		return apiErr.StatusCode, apiErr.Response.Header
	}
	return apiErr.StatusCode, nil
}

// formatAPIError converts API errors to user-friendly messages
func formatAPIError(err error, model string) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("claude API error: %w", err)
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("claude API error: invalid API key. Check %s", APIKeyEnv)
	case http.StatusForbidden:
		return fmt.Errorf("claude API error: key does not have access to model %q", model)
	case http.StatusNotFound:
		return fmt.Errorf("claude API error: model %q not found. Verify the model name is correct", model)
	case http.StatusTooManyRequests:
		return fmt.Errorf("claude API error: rate limit exceeded for model %q. Please wait and try again", model)
	case 529:
		return fmt.Errorf("claude API error: service overloaded. Please try again later")
	default:
		return fmt.Errorf("claude API error (status %d): %w", apiErr.StatusCode, err)
	}
}

func (c *Client) Close() {
	// No cleanup needed for HTTP client
}

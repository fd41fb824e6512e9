package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/retry"
)

const (
	DefaultAgent     = "gemini-2.5-flash"
	DefaultMaxTokens = 2048
	APIKeyEnv        = "GEMINI_API_KEY"
)

var ErrNoAPIKey = errors.New(APIKeyEnv + " environment variable not set")

var SupportedAgents = []string{
	"gemini-2.5-flash",
	"gemini-2.5-pro",
	"gemini-2.0-flash",
}

func IsAgentSupported(agent string) bool {
	for _, a := range SupportedAgents {
		if a == agent {
			return true
		}
	}
	return false
}

// Client sends single-turn prompts to the Gemini API.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	retry  retry.Config
}

// NewClient creates a Gemini client capped at maxTokens output tokens
// (DefaultMaxTokens when zero).
func NewClient(model string, maxTokens int32) (*Client, error) {
	apiKey := os.Getenv(APIKeyEnv)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if model == "" {
		model = DefaultAgent
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	m := client.GenerativeModel(model)
	m.SetMaxOutputTokens(maxTokens)

	cfg := retry.DefaultConfig()
	cfg.Limiter = retry.NewRateLimiter(1.0)

	return &Client{
		client: client,
		model:  m,
		name:   model,
		retry:  cfg,
	}, nil
}

func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, c.retry, func() (string, error) {
		clog.Debug("gemini request", "model", c.name, "prompt_chars", len(prompt))

		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			status, header := apiStatus(err)
			return "", retry.Classify(fmt.Errorf("gemini API error: %w", err), status, header)
		}
		return firstText(resp)
	})
}

// apiStatus returns the HTTP status and headers of a Gemini API error, or
// zero and nil when the request got no response.
func apiStatus(err error) (int, http.Header) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Header
	}
	return 0, nil
}

// firstText returns the first text part of the first candidate.
func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

func (c *Client) Close() {
	_ = c.client.Close()
}

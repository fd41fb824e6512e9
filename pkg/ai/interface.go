// Package ai selects the LLM backend behind the wizard.
package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Pat-Reen/FitnessChat/pkg/claude"
	"github.com/Pat-Reen/FitnessChat/pkg/gemini"
)

// Client is the common interface for AI providers
type Client interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Close()
}

var (
	// ErrMissingCredential means the agent's API key is absent from the
	// environment. It is fatal at startup.
	ErrMissingCredential = errors.New("missing API credential")
	ErrUnknownAgent      = errors.New("unknown agent")
)

// DefaultAgent is used when no agent is configured.
const DefaultAgent = claude.DefaultAgent

// NewClient creates an AI client based on agent prefix. maxTokens caps output
// length for API agents; zero keeps the provider default.
func NewClient(agent string, maxTokens int) (Client, error) {
	if agent == "" {
		agent = DefaultAgent
	}
	switch {
	case IsCLIAgent(agent):
		return newCLIClient(agent)
	case strings.HasPrefix(agent, "gemini-"):
		c, err := gemini.NewClient(agent, int32(maxTokens))
		if errors.Is(err, gemini.ErrNoAPIKey) {
			return nil, fmt.Errorf("%w: %w", ErrMissingCredential, err)
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	case strings.HasPrefix(agent, "claude-"):
		c, err := claude.NewClient(agent, claude.WithMaxTokens(int64(maxTokens)))
		if errors.Is(err, claude.ErrNoAPIKey) {
			return nil, fmt.Errorf("%w: %w", ErrMissingCredential, err)
		}
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s (use claude-code, gemini-cli, gemini-*, or claude-*)", ErrUnknownAgent, agent)
	}
}

func newCLIClient(agent string) (Client, error) {
	// "claude-code:sonnet-4-5" selects a model for the CLI
	subAgent := ""
	if idx := strings.Index(agent, ":"); idx != -1 {
		subAgent = agent[idx+1:]
	}
	if strings.HasPrefix(agent, "claude-code") {
		if !IsClaudeCLIAvailable() {
			return nil, fmt.Errorf("claude CLI not found in PATH")
		}
		return NewClaudeCLI(subAgent), nil
	}
	if !IsGeminiCLIAvailable() {
		return nil, fmt.Errorf("gemini CLI not found in PATH")
	}
	return NewGeminiCLI(subAgent), nil
}

// IsCLIAgent returns true if the agent shells out to a local CLI
func IsCLIAgent(agent string) bool {
	return agent == "claude-code" || strings.HasPrefix(agent, "claude-code:") ||
		agent == "gemini-cli" || strings.HasPrefix(agent, "gemini-cli:")
}

// CredentialEnv names the environment variable an agent needs, or "" for CLI
// agents which handle their own login.
func CredentialEnv(agent string) string {
	if agent == "" {
		agent = DefaultAgent
	}
	switch {
	case IsCLIAgent(agent):
		return ""
	case strings.HasPrefix(agent, "gemini-"):
		return gemini.APIKeyEnv
	case strings.HasPrefix(agent, "claude-"):
		return claude.APIKeyEnv
	default:
		return ""
	}
}

// CheckCredential fails with ErrMissingCredential when the agent's key is unset.
func CheckCredential(agent string) error {
	env := CredentialEnv(agent)
	if env != "" && os.Getenv(env) == "" {
		return fmt.Errorf("%w: %s is not set", ErrMissingCredential, env)
	}
	return nil
}

// IsAgentSupported checks if an agent is supported by any provider
func IsAgentSupported(agent string) bool {
	switch {
	case strings.HasPrefix(agent, "claude-code"):
		return IsCLIAgent(agent) && IsClaudeCLIAvailable()
	case strings.HasPrefix(agent, "gemini-cli"):
		return IsCLIAgent(agent) && IsGeminiCLIAvailable()
	case strings.HasPrefix(agent, "gemini-"):
		return gemini.IsAgentSupported(agent)
	case strings.HasPrefix(agent, "claude-"):
		return claude.IsAgentSupported(agent)
	default:
		return false
	}
}

// SupportedAgents returns all supported agents (CLI + API)
func SupportedAgents() []string {
	agents := []string{}
	if IsClaudeCLIAvailable() {
		agents = append(agents, "claude-code")
	}
	if IsGeminiCLIAvailable() {
		agents = append(agents, "gemini-cli")
	}
	agents = append(agents, claude.SupportedAgents...)
	agents = append(agents, gemini.SupportedAgents...)
	return agents
}

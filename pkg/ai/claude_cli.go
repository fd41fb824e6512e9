package ai

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ClaudeCLI implements Client using the claude CLI
type ClaudeCLI struct {
	model string // e.g. "sonnet-4-5"
}

// NewClaudeCLI creates a Claude CLI client
func NewClaudeCLI(model string) *ClaudeCLI {
	return &ClaudeCLI{model: model}
}

// IsClaudeCLIAvailable checks if claude CLI is installed
func IsClaudeCLIAvailable() bool {
	_, err := exec.LookPath("claude")
	return err == nil
}

func (c *ClaudeCLI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := []string{"-p", prompt, "--output-format", "text"}
	if c.model != "" {
		args = append(args, "--model", "claude-"+c.model)
	}
	return runCLI(ctx, "claude", args...)
}

func (c *ClaudeCLI) Close() {
	// No cleanup needed
}

// runCLI runs a one-shot agent CLI and returns its stdout. stderr is folded
// into the error so failures are readable.
func runCLI(ctx context.Context, name string, args ...string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s CLI failed: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s CLI failed: %w", name, err)
	}
	return string(output), nil
}

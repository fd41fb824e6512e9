package cmd

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	fitmcp "github.com/Pat-Reen/FitnessChat/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve catalog and workout tools over MCP (stdio)",
	Long: `Run a Model Context Protocol server on stdin/stdout so assistants can list
exercises, suggest exercises for a profile and generate workout plans.

Example client entry:
  {"command": "fitchat", "args": ["mcp"]}`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	m, client, err := loadMachine()
	if err != nil {
		return err
	}
	defer client.Close()

	// stdout carries the protocol; logs stay on stderr
	s := fitmcp.New(m, Version, clog.Logger())
	return server.ServeStdio(s)
}

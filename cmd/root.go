package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
)

var (
	quiet       bool
	verbose     bool
	agentFlag   string
	catalogFlag string
)

var rootCmd = &cobra.Command{
	Use:   "fitchat",
	Short: "An AI workout planner for the terminal",
	Long: `fitchat builds personalised workouts with an LLM.

Answer a few questions about your goal, experience and time, review the
exercises it suggests from the catalog, then get a full Markdown plan.
Regenerate for a different take on the same exercises.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		clog.SetVerbose(verbose)
		clog.SetQuiet(quiet)
	},
}

func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.Cross(), err)
		os.Exit(1)
	}
}

func init() {
	// Setup Typer-style help formatting
	style.SetupHelp(rootCmd)

	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")
	rootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "a", "", "LLM agent (overrides config)")
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "Exercise catalog file: .yaml, .csv or .html (overrides config)")
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	"github.com/Pat-Reen/FitnessChat/pkg/config"
	"github.com/Pat-Reen/FitnessChat/pkg/signal"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage fitchat configuration",
	Long: `Interactive setup or direct config access.

Run without subcommand for interactive setup:
  fitchat config

Or use subcommands:
  fitchat config list
  fitchat config get <key>
  fitchat config set <key> <value>`,
	RunE: runConfigWizard,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value.

Keys:
  agent           LLM agent (claude-sonnet-4-5, gemini-2.5-flash, claude-code, ...)
  max_tokens      Cap on generated tokens
  mode            How exercises are seeded: suggest (LLM) or groups (muscle groups)
  catalog         Exercise catalog file (.yaml, .csv, .html); empty for the bundled one
  prompts_dir     Directory with suggest.md / workout.md overrides
  server.addr     Listen address for 'fitchat serve'
  server.db       SQLite session database for 'fitchat serve'
  server.api_key  Required X-API-Key for the HTTP API; empty disables auth

Examples:
  fitchat config set agent gemini-2.5-flash
  fitchat config set mode groups
  fitchat config set catalog ./gym-exercises.csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Get a config value",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.Keys,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config values",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := config.All()
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n", style.Title("fitchat config"))
		fmt.Printf("%s\n\n", style.Dim(config.Path()))

		hints := map[string]string{
			"catalog":        "bundled",
			"prompts_dir":    "built-in",
			"server.api_key": "auth off",
		}
		for _, key := range config.Keys {
			printConfigRow(key, values[key], hints[key])
		}
		fmt.Println()
		return nil
	},
}

func printConfigRow(key, value, defaultHint string) {
	if value == "" {
		if defaultHint != "" {
			fmt.Printf("  %-15s %s\n", key, style.Dim("("+defaultHint+")"))
		} else {
			fmt.Printf("  %-15s %s\n", key, style.Dim("(not set)"))
		}
	} else {
		fmt.Printf("  %-15s %s\n", key, style.C(style.Green, value))
	}
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

type modelOption struct {
	name string
	note string
}

// buildModelList returns a flat list of all available agents with notes
func buildModelList() []modelOption {
	var models []modelOption
	for _, a := range ai.SupportedAgents() {
		note := ""
		switch env := ai.CredentialEnv(a); {
		case ai.IsCLIAgent(a):
			note = "uses CLI-configured model"
		case env != "" && os.Getenv(env) == "":
			note = "requires " + env
		}
		models = append(models, modelOption{a, note})
	}
	return models
}

func runConfigWizard(cmd *cobra.Command, args []string) error {
	ui := &wizardUI{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("\n%s\n\n", style.Title("fitchat setup"))

	// Step 1: agent
	models := buildModelList()
	labels := make([]string, len(models))
	current := 0
	for i, m := range models {
		labels[i] = m.name
		if m.note != "" {
			labels[i] += " " + style.Dim("("+m.note+")")
		}
		if m.name == cfg.Agent {
			current = i
		}
	}
	i, err := ui.choose(ctx, "AI agent", labels, current)
	if stopped(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := config.Set("agent", models[i].name); err != nil {
		return err
	}
	fmt.Printf("  Using %s\n\n", style.C(style.Cyan, models[i].name))

	// Step 2: mode
	modes := []wizard.Mode{wizard.ModeSuggest, wizard.ModeGroups}
	modeLabels := []string{
		"suggest " + style.Dim("(the LLM picks exercises for you)"),
		"groups " + style.Dim("(pick muscle groups, start from all their exercises)"),
	}
	current = indexOf(modes, wizard.Mode(strings.ToLower(cfg.Mode)))
	if i, err = ui.choose(ctx, "Exercise selection", modeLabels, current); err != nil {
		if stopped(err) {
			return nil
		}
		return err
	}
	if err := config.Set("mode", string(modes[i])); err != nil {
		return err
	}

	// Step 3: catalog
	catalogPath := cfg.Catalog
	def := "bundled"
	if catalogPath != "" {
		def = catalogPath
	}
	fmt.Printf("%s %s: ", style.Prompt("Exercise catalog file"), style.C(style.Cyan, "["+def+"]"))
	input, err := ui.readLine(ctx)
	if err != nil && !stopped(err) {
		return err
	}
	if input != "" {
		if err := config.Set("catalog", input); err != nil {
			return err
		}
		if _, err := currentCatalog(); err != nil {
			fmt.Printf("  %s %v\n", style.Warn(), err)
		}
	}
	fmt.Println()

	// Done
	fmt.Printf("%s Try: %s\n\n", style.Success("Ready"), style.C(style.Cyan, "fitchat start"))
	return nil
}

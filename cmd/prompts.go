package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/config"
	"github.com/Pat-Reen/FitnessChat/pkg/prompt"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
)

var promptsForce bool

var promptsCmd = &cobra.Command{
	Use:   "prompts [dir]",
	Short: "Export the prompt templates for editing",
	Long: `Write the built-in prompt templates (suggest.md, workout.md) to a directory
and point prompts_dir at it. Edited templates are used on the next run.

Templates use Go text/template syntax. Available fields:
  suggest.md  Goal, Experience, Duration, Focus, Restrictions, Catalog
  workout.md  Goal, Experience, Duration, Focus, Restrictions, Exercises,
              Detail, VariationNote

Examples:
  fitchat prompts             # writes to ./prompts
  fitchat prompts ~/.fitchat --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompts,
}

func init() {
	promptsCmd.Flags().BoolVarP(&promptsForce, "force", "f", false, "Overwrite existing templates")
	rootCmd.AddCommand(promptsCmd)
}

func runPrompts(cmd *cobra.Command, args []string) error {
	dir := "prompts"
	if len(args) == 1 {
		dir = args[0]
	}

	written, err := prompt.ExportDefaults(dir, promptsForce)
	for _, path := range written {
		fmt.Printf("%s Wrote %s\n", style.Check(), path)
	}
	if err != nil {
		return err
	}
	if len(written) == 0 {
		fmt.Printf("%s Templates already exist in %s (use --force to overwrite)\n", style.Warn(), dir)
	}

	if err := config.Set("prompts_dir", dir); err != nil {
		return err
	}
	fmt.Printf("  Set prompts_dir = %s\n", style.C(style.Cyan, dir))
	return nil
}

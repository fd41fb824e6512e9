package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/signal"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/suggest"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

var (
	suggestOpts profileOptions
	suggestJSON bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest catalog exercises for a profile",
	Long: `Ask the LLM to pick exercises for a fitness profile.

Only exercises from the catalog are returned; anything else the model
invents is dropped.

Examples:
  fitchat suggest --goal "Build Muscle" --experience intermediate
  fitchat suggest -g "Weight Loss" -d 30 -r "lower back pain" --json`,
	RunE: runSuggest,
}

func init() {
	suggestOpts.register(suggestCmd)
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Print the result as JSON")
	suggestCmd.Flags().BoolVar(&useCache, "cache", false, "Reuse the stored response for identical requests")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	p, err := suggestOpts.profile()
	if err != nil {
		return err
	}

	m, client, err := loadMachine()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	res, err := withSpinner("Finding exercises...", func() (suggest.Result, error) {
		return m.Suggest(ctx, p)
	})
	if err != nil && !errors.Is(err, suggest.ErrParse) {
		return err
	}
	fallback := len(res.Names) == 0

	if suggestJSON {
		names := res.Names
		if names == nil {
			names = []string{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"exercises": names,
			"fallback":  fallback,
			"dropped":   res.Dropped,
		})
	}

	if fallback {
		fmt.Printf("%s %s\n", style.Warn(), wizard.FallbackNotice)
		return nil
	}
	fmt.Printf("%s\n", style.Title("Suggested exercises"))
	for _, name := range res.Names {
		fmt.Printf("  %s %s\n", style.Check(), name)
	}
	if len(res.Dropped) > 0 && !quiet {
		fmt.Printf("\n%s\n", style.Dim(fmt.Sprintf("Ignored %d suggestion(s) not in the catalog", len(res.Dropped))))
	}
	return nil
}

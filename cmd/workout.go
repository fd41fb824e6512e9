package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/signal"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/utils"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

var (
	workoutOpts      profileOptions
	workoutExercises []string
	workoutVariation int
	workoutOutput    string
	workoutRaw       bool
)

var workoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Generate a workout plan from chosen exercises",
	Long: `Generate a Markdown workout plan without the interactive wizard.

Exercise names must match the catalog (see 'fitchat catalog').

Examples:
  fitchat workout -x "Deadlift" -x "Pull-Up" --goal "Build Muscle"
  fitchat workout -x Plank --focus Circuit --variation 2 -o plan.md`,
	RunE: runWorkout,
}

func init() {
	workoutOpts.register(workoutCmd)
	f := workoutCmd.Flags()
	f.StringArrayVarP(&workoutExercises, "exercise", "x", nil, "Exercise to include (repeatable)")
	f.IntVar(&workoutVariation, "variation", 0, "Ask for variation N of the plan")
	f.StringVarP(&workoutOutput, "output", "o", "", "Write the plan to a file")
	f.BoolVar(&workoutRaw, "raw", false, "Print Markdown without terminal rendering")
	workoutCmd.Flags().BoolVar(&useCache, "cache", false, "Reuse the stored response for identical requests")
	rootCmd.AddCommand(workoutCmd)
}

func runWorkout(cmd *cobra.Command, args []string) error {
	p, err := workoutOpts.profile()
	if err != nil {
		return err
	}
	if workoutVariation < 0 {
		return fmt.Errorf("--variation must not be negative")
	}

	m, client, err := loadMachine()
	if err != nil {
		return err
	}
	defer client.Close()

	// SetSelection applies the wizard's catalog checks and dedupes
	sess := wizard.NewSession()
	sess.Stage = wizard.Selection
	if sess, err = m.SetSelection(sess, workoutExercises); err != nil {
		return err
	}
	if len(sess.Selected) == 0 {
		return fmt.Errorf("%w: pass exercises with -x", wizard.ErrEmptySelection)
	}

	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	plan, err := withSpinner("Building your workout...", func() (string, error) {
		return m.Compose(ctx, p, sess.Selected, workoutVariation)
	})
	if err != nil {
		return err
	}

	if workoutOutput != "" {
		if err := utils.WriteFile(workoutOutput, plan); err != nil {
			return err
		}
		fmt.Printf("%s Saved %s\n", style.Check(), workoutOutput)
		return nil
	}
	if workoutRaw {
		fmt.Println(plan)
		return nil
	}
	fmt.Print(renderMarkdown(plan))
	return nil
}

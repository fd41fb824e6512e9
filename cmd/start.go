package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/signal"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/utils"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Plan a workout interactively",
	Long: `Walk through the workout wizard:

  1. Preferences  goal, experience, session length, focus, limitations
  2. Exercises    review the suggested exercises, toggle or search for more
  3. Workout      read the plan, regenerate a variation, or save it

Press Enter to accept defaults shown in brackets. Ctrl-C cancels.`,
	Aliases: []string{"wizard"},
	RunE:    runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	m, client, err := loadMachine()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := signal.WithInterrupt(cmd.Context())
	defer cancel()

	ui := &wizardUI{in: bufio.NewReader(os.Stdin), out: os.Stdout, m: m}
	if err = ui.run(ctx); stopped(err) {
		fmt.Println()
		return nil
	}
	return err
}

var errQuit = errors.New("quit")

// stopped reports whether err means the user quit or pressed Ctrl-C.
func stopped(err error) bool {
	return errors.Is(err, errQuit) || errors.Is(err, context.Canceled)
}

// wizardUI drives a wizard.Session from line-based terminal input.
type wizardUI struct {
	in  *bufio.Reader
	out io.Writer
	m   *wizard.Machine

	// visible is the exercise list currently numbered on screen
	visible []string
	// pending is a read still waiting for input
	pending chan inputLine
}

func (ui *wizardUI) printf(format string, a ...any) {
	fmt.Fprintf(ui.out, format, a...)
}

type inputLine struct {
	text string
	err  error
}

// readLine returns the trimmed input line. End of input means quit. It
// returns ctx.Err() as soon as ctx is done, even while the read blocks; the
// abandoned read is picked up by the next call.
func (ui *wizardUI) readLine(ctx context.Context) (string, error) {
	if ui.pending == nil {
		ch := make(chan inputLine, 1)
		go func() {
			text, err := ui.in.ReadString('\n')
			ch <- inputLine{text, err}
		}()
		ui.pending = ch
	}

	var l inputLine
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l = <-ui.pending:
		ui.pending = nil
	}

	if l.err != nil && (l.text == "" || !errors.Is(l.err, io.EOF)) {
		if errors.Is(l.err, io.EOF) {
			return "", errQuit
		}
		return "", l.err
	}
	return strings.TrimSpace(l.text), nil
}

func (ui *wizardUI) run(ctx context.Context) error {
	sess := wizard.NewSession()
	ui.printf("\n%s\n", style.Dim("Press Enter to accept defaults shown in brackets."))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var next wizard.Session
		var err error
		switch sess.Stage {
		case wizard.Preferences:
			next, err = ui.preferences(ctx, sess)
		case wizard.Selection:
			next, err = ui.selection(ctx, sess)
		case wizard.Workout:
			next, err = ui.workout(ctx, sess)
		}

		switch {
		case err == nil:
			sess = next
		case errors.Is(err, wizard.ErrLLMCall):
			ui.printf("\n%s %v\n  Try again, or press Ctrl-C to stop.\n\n", style.Cross(), err)
		default:
			return err
		}
	}
}

// choose prints a numbered menu and returns the picked index.
func (ui *wizardUI) choose(ctx context.Context, question string, options []string, current int) (int, error) {
	ui.printf("%s\n", style.Prompt(question))
	for i, o := range options {
		marker := "   "
		if i == current {
			marker = "  " + style.C(style.Green, "→")
		}
		ui.printf("%s%s %s\n", marker, style.C(style.Cyan, strconv.Itoa(i+1)+")"), o)
	}

	for {
		ui.printf("\n  Choice %s: ", style.C(style.Cyan, fmt.Sprintf("[%d]", current+1)))
		input, err := ui.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if input == "" {
			ui.printf("\n")
			return current, nil
		}
		if idx, err := strconv.Atoi(input); err == nil && idx >= 1 && idx <= len(options) {
			ui.printf("\n")
			return idx - 1, nil
		}
		ui.printf("  Enter a number from 1 to %d\n", len(options))
	}
}

func strs[T ~string](options []T) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = string(o)
	}
	return out
}

func indexOf[T comparable](options []T, v T) int {
	for i, o := range options {
		if o == v {
			return i
		}
	}
	return 0
}

func (ui *wizardUI) preferences(ctx context.Context, sess wizard.Session) (wizard.Session, error) {
	p := sess.Profile.Clone()

	i, err := ui.choose(ctx, "Fitness goal", strs(profile.Goals), indexOf(profile.Goals, p.Goal))
	if err != nil {
		return sess, err
	}
	p.Goal = profile.Goals[i]

	if i, err = ui.choose(ctx, "Experience level", strs(profile.Experiences), indexOf(profile.Experiences, p.Experience)); err != nil {
		return sess, err
	}
	p.Experience = profile.Experiences[i]

	if i, err = ui.choose(ctx, "Session length", strs(profile.Durations), indexOf(profile.Durations, p.Duration)); err != nil {
		return sess, err
	}
	p.Duration = profile.Durations[i]

	// "No preference" leads the focus list
	focuses := append([]profile.Focus{""}, profile.Focuses...)
	labels := append([]string{"No preference"}, strs(profile.Focuses)...)
	if i, err = ui.choose(ctx, "Workout focus", labels, indexOf(focuses, p.Focus)); err != nil {
		return sess, err
	}
	p.Focus = focuses[i]

	current := "none"
	if p.HasRestrictions() {
		current = p.Restrictions
	}
	ui.printf("%s %s: ", style.Prompt("Injuries or limitations"), style.C(style.Cyan, "["+current+"]"))
	input, err := ui.readLine(ctx)
	if err != nil {
		return sess, err
	}
	switch strings.ToLower(input) {
	case "":
	case "none", "no", "-":
		p.Restrictions = ""
	default:
		p.Restrictions = input
	}
	ui.printf("\n")

	if ui.m.Mode() == wizard.ModeGroups {
		if p.Groups, err = ui.pickGroups(ctx, p.Groups); err != nil {
			return sess, err
		}
	}

	return withSpinner("Finding exercises...", func() (wizard.Session, error) {
		return ui.m.Submit(ctx, sess, p)
	})
}

func (ui *wizardUI) pickGroups(ctx context.Context, current []string) ([]string, error) {
	groups := ui.m.Catalog().Groups()
	ui.printf("%s\n", style.Prompt("Muscle groups"))
	for i, g := range groups {
		ui.printf("   %s %s\n", style.C(style.Cyan, strconv.Itoa(i+1)+")"), g)
	}
	def := "all"
	if len(current) > 0 {
		def = strings.Join(current, ", ")
	}
	ui.printf("\n  Numbers separated by spaces %s: ", style.C(style.Cyan, "["+def+"]"))
	input, err := ui.readLine(ctx)
	if err != nil {
		return nil, err
	}
	ui.printf("\n")
	if input == "" {
		if len(current) > 0 {
			return current, nil
		}
		return groups, nil
	}
	var picked []string
	for _, n := range parseNumbers(input, len(groups)) {
		picked = append(picked, groups[n])
	}
	return picked, nil
}

// parseNumbers reads 1-based indexes separated by spaces or commas, skipping
// anything out of range.
func parseNumbers(input string, n int) []int {
	var out []int
	for _, f := range strings.FieldsFunc(input, func(r rune) bool { return r == ' ' || r == ',' }) {
		if i, err := strconv.Atoi(f); err == nil && i >= 1 && i <= n {
			out = append(out, i-1)
		}
	}
	return out
}

func (ui *wizardUI) selection(ctx context.Context, sess wizard.Session) (wizard.Session, error) {
	if ui.visible == nil {
		ui.visible = sess.Suggested
		if sess.Fallback {
			ui.printf("%s %s\n\n", style.Warn(), sess.Notice)
			ui.visible = ui.m.Catalog().Flatten()
		}
	}

	for {
		ui.printSelection(sess)
		ui.printf("%s ", style.Prompt("Toggle by number, /text to search, a for all, Enter to build, q to quit:"))
		input, err := ui.readLine(ctx)
		if err != nil {
			return sess, err
		}
		ui.printf("\n")

		switch {
		case input == "":
			next, err := withSpinner("Building your workout...", func() (wizard.Session, error) {
				return ui.m.Build(ctx, sess)
			})
			if errors.Is(err, wizard.ErrEmptySelection) {
				ui.printf("%s %v\n\n", style.Warn(), err)
				continue
			}
			if err == nil {
				ui.visible = nil
			}
			return next, err
		case input == "q":
			return sess, errQuit
		case input == "a":
			ui.visible = ui.m.Catalog().Flatten()
		case strings.HasPrefix(input, "/"):
			found := ui.m.Catalog().Search(strings.TrimPrefix(input, "/"))
			if len(found) == 0 {
				ui.printf("  No exercises match %q\n\n", strings.TrimPrefix(input, "/"))
				continue
			}
			ui.visible = found
		default:
			for _, i := range parseNumbers(input, len(ui.visible)) {
				if sess, err = ui.m.Toggle(sess, ui.visible[i]); err != nil {
					return sess, err
				}
			}
		}
	}
}

func (ui *wizardUI) printSelection(sess wizard.Session) {
	ui.printf("%s\n", style.Title("Exercises"))
	for i, name := range ui.visible {
		box := "[ ]"
		if sess.IsSelected(name) {
			box = style.C(style.Green, "[x]")
		}
		ui.printf("  %s %s %s\n", style.C(style.Cyan, fmt.Sprintf("%2d)", i+1)), box, name)
	}
	ui.printf("\n  %s %d selected\n\n", style.Dim("→"), len(sess.Selected))
}

func (ui *wizardUI) workout(ctx context.Context, sess wizard.Session) (wizard.Session, error) {
	ui.printf("%s\n", renderMarkdown(sess.Workout.Markdown))

	for {
		ui.printf("%s %s: ", style.Prompt("Next"), style.C(style.Cyan, "[r]egenerate, [s]ave, [n]ew workout, [q]uit"))
		input, err := ui.readLine(ctx)
		if err != nil {
			return sess, err
		}
		ui.printf("\n")

		switch strings.ToLower(input) {
		case "r":
			return withSpinner("Building a variation...", func() (wizard.Session, error) {
				return ui.m.Regenerate(ctx, sess)
			})
		case "s":
			if err := ui.save(ctx, sess); errors.Is(err, errQuit) || ctx.Err() != nil {
				return sess, err
			} else if err != nil {
				ui.printf("%s %v\n\n", style.Cross(), err)
			}
		case "n":
			ui.visible = nil
			return ui.m.StartOver(sess), nil
		case "q", "":
			return sess, errQuit
		}
	}
}

func (ui *wizardUI) save(ctx context.Context, sess wizard.Session) error {
	def := "workout.md"
	if sess.Variation > 0 {
		def = fmt.Sprintf("workout-%d.md", sess.Variation+1)
	}
	ui.printf("%s %s: ", style.Prompt("Save to"), style.C(style.Cyan, "["+def+"]"))
	path, err := ui.readLine(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		path = def
	}
	if err := utils.WriteFile(path, sess.Workout.Markdown); err != nil {
		return err
	}
	ui.printf("%s Saved %s\n\n", style.Check(), path)
	return nil
}

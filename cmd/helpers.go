package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	"github.com/Pat-Reen/FitnessChat/pkg/cache"
	"github.com/Pat-Reen/FitnessChat/pkg/catalog"
	"github.com/Pat-Reen/FitnessChat/pkg/config"
	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/prompt"
	"github.com/Pat-Reen/FitnessChat/pkg/style"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

// loadCatalog returns the catalog named by --catalog or config, or the
// bundled one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	path := catalogFlag
	if path == "" {
		path = cfg.Catalog
	}
	if path == "" {
		return catalog.Default()
	}
	clog.Debug("loading catalog", "path", path)
	return catalog.Load(path)
}

// useCache replays stored responses for identical prompts. Set by one-shot
// commands only; the wizard always asks the model.
var useCache bool

// loadMachine wires config, catalog, prompts and the LLM client into a
// wizard. The caller must Close the returned client.
func loadMachine() (*wizard.Machine, ai.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}

	prompts, err := prompt.New(cfg.PromptsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading prompts: %w", err)
	}

	mode, err := wizard.ParseMode(cfg.Mode)
	if err != nil {
		return nil, nil, err
	}

	agent := agentFlag
	if agent == "" {
		agent = cfg.Agent
	}
	if err := ai.CheckCredential(agent); err != nil {
		return nil, nil, fmt.Errorf("%w\n  Run 'fitchat doctor' to check your setup", err)
	}
	client, err := ai.NewClient(agent, cfg.MaxTokens)
	if err != nil {
		return nil, nil, err
	}
	if useCache {
		client = cache.Wrap(client, cache.New(cache.DefaultDir()), agent)
	}
	clog.Debug("wizard ready", "agent", agent, "mode", mode, "exercises", cat.Len())

	return wizard.New(cat, client, wizard.WithPrompts(prompts), wizard.WithMode(mode)), client, nil
}

// profileOptions are the preference flags shared by one-shot commands.
type profileOptions struct {
	goal         string
	experience   string
	duration     string
	focus        string
	restrictions string
	groups       []string
}

func (o *profileOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.goal, "goal", "g", string(profile.GeneralFitness), "Fitness goal: "+optionList(profile.Goals))
	f.StringVarP(&o.experience, "experience", "e", string(profile.Beginner), "Experience level: "+optionList(profile.Experiences))
	f.StringVarP(&o.duration, "duration", "d", string(profile.Min45), "Session length: "+optionList(profile.Durations))
	f.StringVar(&o.focus, "focus", "", "Workout focus: "+optionList(profile.Focuses))
	f.StringVarP(&o.restrictions, "restrictions", "r", "", "Injuries or limitations")
	f.StringSliceVar(&o.groups, "group", nil, "Muscle group to target (repeatable)")
}

func (o *profileOptions) profile() (profile.Profile, error) {
	var p profile.Profile
	var err error
	if p.Goal, err = profile.ParseGoal(o.goal); err != nil {
		return p, err
	}
	if p.Experience, err = profile.ParseExperience(o.experience); err != nil {
		return p, err
	}
	if p.Duration, err = profile.ParseDuration(o.duration); err != nil {
		return p, err
	}
	if o.focus != "" {
		if p.Focus, err = profile.ParseFocus(o.focus); err != nil {
			return p, err
		}
	}
	p.Restrictions = strings.TrimSpace(o.restrictions)
	p.Groups = o.groups
	return p, nil
}

func optionList[T ~string](options []T) string {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// withSpinner runs fn while animating message on stderr.
func withSpinner[T any](message string, fn func() (T, error)) (T, error) {
	if quiet || style.NoColor {
		return fn()
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		i := 0
		for {
			select {
			case <-done:
				fmt.Fprintf(os.Stderr, "\r\033[K")
				return
			default:
				fmt.Fprintf(os.Stderr, "\r%s %s", style.C(style.Cyan, spinnerFrames[i%len(spinnerFrames)]), message)
				time.Sleep(80 * time.Millisecond)
				i++
			}
		}
	}()

	out, err := fn()
	close(done)
	<-finished
	return out, err
}

// renderMarkdown renders md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	opt := glamour.WithAutoStyle()
	if style.NoColor {
		opt = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(100))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		clog.Debug("markdown render failed", "error", err)
		return md
	}
	return out
}

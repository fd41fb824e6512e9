// Package wizard implements the three-stage workout wizard:
//
//	Preferences --submit--> Selection --build--> Workout
//	Workout --regenerate--> Workout (variation + 1)
//	any stage --start over--> Preferences
//
// A Machine is stateless apart from its collaborators, so one Machine can
// drive any number of sessions.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Pat-Reen/FitnessChat/pkg/ai"
	"github.com/Pat-Reen/FitnessChat/pkg/catalog"
	clog "github.com/Pat-Reen/FitnessChat/pkg/log"
	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/prompt"
	"github.com/Pat-Reen/FitnessChat/pkg/suggest"
)

var (
	ErrInvalidTransition = errors.New("action not allowed at this stage")
	ErrEmptySelection    = errors.New("select at least one exercise")
	ErrUnknownExercise   = errors.New("exercise not in catalog")
	// ErrLLMCall wraps any failure to get text from the model. The session
	// is left as it was so the user can retry.
	ErrLLMCall = errors.New("LLM call failed")
)

// FallbackNotice is shown when suggestions could not be used.
const FallbackNotice = "Couldn't get exercise suggestions this time. Pick exercises from the full catalog instead."

// Mode chooses how the Selection stage is seeded.
type Mode string

const (
	// ModeSuggest asks the LLM to pick exercises for the profile.
	ModeSuggest Mode = "suggest"
	// ModeGroups preselects every exercise in the profile's muscle groups.
	ModeGroups Mode = "groups"
)

// ParseMode accepts "suggest" or "groups"; empty means suggest.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSuggest:
		return ModeSuggest, nil
	case ModeGroups:
		return ModeGroups, nil
	default:
		return "", fmt.Errorf("unknown mode %q (use suggest or groups)", s)
	}
}

type Machine struct {
	catalog *catalog.Catalog
	master  []string
	client  ai.Client
	prompts *prompt.Builder
	mode    Mode
}

type Option func(*Machine)

// WithPrompts replaces the embedded prompt templates.
func WithPrompts(b *prompt.Builder) Option {
	return func(m *Machine) {
		if b != nil {
			m.prompts = b
		}
	}
}

func WithMode(mode Mode) Option {
	return func(m *Machine) { m.mode = mode }
}

func New(cat *catalog.Catalog, client ai.Client, opts ...Option) *Machine {
	m := &Machine{
		catalog: cat,
		master:  cat.Flatten(),
		client:  client,
		prompts: prompt.Default(),
		mode:    ModeSuggest,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Catalog() *catalog.Catalog { return m.catalog }
func (m *Machine) Mode() Mode                { return m.mode }

// Suggest asks the model for exercises that fit p. A response that cannot be
// parsed returns an error wrapping suggest.ErrParse; a failed call returns one
// wrapping ErrLLMCall.
func (m *Machine) Suggest(ctx context.Context, p profile.Profile) (suggest.Result, error) {
	text, err := m.prompts.Suggestion(p, m.master)
	if err != nil {
		return suggest.Result{}, err
	}
	raw, err := m.generate(ctx, text)
	if err != nil {
		return suggest.Result{}, err
	}

	res, err := suggest.Parse(raw, m.master)
	if err != nil {
		clog.Warn("unusable suggestion response", "error", err)
		return res, err
	}
	if len(res.Dropped) > 0 {
		clog.Debug("dropped suggestions not in catalog", "names", res.Dropped)
	}
	return res, nil
}

// Compose generates a workout plan for exercises.
func (m *Machine) Compose(ctx context.Context, p profile.Profile, exercises []string, variation int) (string, error) {
	text, err := m.prompts.Workout(p, exercises, variation)
	if err != nil {
		return "", err
	}
	return m.generate(ctx, text)
}

func (m *Machine) generate(ctx context.Context, text string) (string, error) {
	out, err := m.client.GenerateContent(ctx, text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMCall, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", ErrLLMCall)
	}
	return out, nil
}

// Submit records the profile and moves to Selection with the seeded
// exercises. Only valid from Preferences.
func (m *Machine) Submit(ctx context.Context, s Session, p profile.Profile) (Session, error) {
	if s.Stage != Preferences {
		return s, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, s.Stage)
	}
	if err := p.Validate(); err != nil {
		return s, err
	}

	next := s.Clone()
	next.Profile = p.Clone()
	next.Stage = Selection
	next.Workout = nil
	next.Variation = 0
	next.Fallback = false
	next.Notice = ""

	var names []string
	switch m.mode {
	case ModeGroups:
		pre, err := m.catalog.Preselect(p.Groups)
		if err != nil {
			return s, err
		}
		names = pre
	default:
		res, err := m.Suggest(ctx, p)
		if err != nil && !errors.Is(err, suggest.ErrParse) {
			return s, err
		}
		names = res.Names
	}

	if len(names) == 0 {
		next.Fallback = true
		next.Notice = FallbackNotice
	}
	next.Suggested = cloneNames(names)
	next.Selected = cloneNames(names)
	return next, nil
}

// Toggle adds name to the selection, or removes it if already selected.
func (m *Machine) Toggle(s Session, name string) (Session, error) {
	if s.Stage != Selection {
		return s, fmt.Errorf("%w: toggle from %s", ErrInvalidTransition, s.Stage)
	}
	if !m.catalog.Contains(name) {
		return s, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
	}

	next := s.Clone()
	if i := slices.Index(next.Selected, name); i >= 0 {
		next.Selected = slices.Delete(next.Selected, i, i+1)
	} else {
		next.Selected = append(next.Selected, name)
	}
	return next, nil
}

// SetSelection replaces the selection. Duplicates are dropped.
func (m *Machine) SetSelection(s Session, names []string) (Session, error) {
	if s.Stage != Selection {
		return s, fmt.Errorf("%w: select from %s", ErrInvalidTransition, s.Stage)
	}
	selected := make([]string, 0, len(names))
	for _, name := range names {
		if !m.catalog.Contains(name) {
			return s, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
		}
		if !slices.Contains(selected, name) {
			selected = append(selected, name)
		}
	}

	next := s.Clone()
	next.Selected = selected
	return next, nil
}

// Build generates the first workout from the selection. An empty selection
// fails without calling the model.
func (m *Machine) Build(ctx context.Context, s Session) (Session, error) {
	if s.Stage != Selection {
		return s, fmt.Errorf("%w: build from %s", ErrInvalidTransition, s.Stage)
	}
	if len(s.Selected) == 0 {
		return s, ErrEmptySelection
	}
	return m.compose(ctx, s, 0)
}

// Regenerate asks for a structurally different version of the workout.
func (m *Machine) Regenerate(ctx context.Context, s Session) (Session, error) {
	if s.Stage != Workout {
		return s, fmt.Errorf("%w: regenerate from %s", ErrInvalidTransition, s.Stage)
	}
	return m.compose(ctx, s, s.Variation+1)
}

func (m *Machine) compose(ctx context.Context, s Session, variation int) (Session, error) {
	text, err := m.Compose(ctx, s.Profile, s.Selected, variation)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	next.Stage = Workout
	next.Variation = variation
	next.Workout = &Result{Markdown: text, Variation: variation}
	return next, nil
}

// StartOver returns to Preferences, keeping the profile as the new defaults.
func (m *Machine) StartOver(s Session) Session {
	next := NewSession()
	next.Profile = s.Profile.Clone()
	return next
}

package wizard

import (
	"slices"

	"github.com/Pat-Reen/FitnessChat/pkg/profile"
)

// Stage is the wizard step a session is on.
type Stage string

const (
	Preferences Stage = "preferences"
	Selection   Stage = "selection"
	Workout     Stage = "workout"
)

// Result is a generated workout plan.
type Result struct {
	Markdown  string `json:"markdown"`
	Variation int    `json:"variation"`
}

// Session is one user's pass through the wizard. Transitions return a new
// Session and never modify the one they were given.
type Session struct {
	Stage   Stage           `json:"stage"`
	Profile profile.Profile `json:"profile"`

	// Suggested holds the exercises proposed on entering Selection.
	Suggested []string `json:"suggested"`
	// Selected is what the workout will be built from.
	Selected []string `json:"selected"`

	// Fallback is set when no suggestions could be used and the user should
	// browse the full catalog. Notice explains why.
	Fallback bool   `json:"fallback"`
	Notice   string `json:"notice,omitempty"`

	Workout   *Result `json:"workout,omitempty"`
	Variation int     `json:"variation"`
}

// NewSession starts at Preferences with the default profile.
func NewSession() Session {
	return Session{
		Stage:     Preferences,
		Profile:   profile.Default(),
		Suggested: []string{},
		Selected:  []string{},
	}
}

// Clone returns a deep copy.
func (s Session) Clone() Session {
	s.Profile = s.Profile.Clone()
	s.Suggested = cloneNames(s.Suggested)
	s.Selected = cloneNames(s.Selected)
	if s.Workout != nil {
		w := *s.Workout
		s.Workout = &w
	}
	return s
}

func (s Session) IsSelected(name string) bool {
	return slices.Contains(s.Selected, name)
}

func cloneNames(names []string) []string {
	if names == nil {
		return []string{}
	}
	return slices.Clone(names)
}

// Package profile holds the user's fitness preferences collected by the wizard.
package profile

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a profile field is outside its allowed values.
var ErrInvalid = errors.New("invalid profile")

type Goal string

const (
	WeightLoss     Goal = "Weight Loss"
	BuildMuscle    Goal = "Build Muscle"
	Endurance      Goal = "Endurance"
	GeneralFitness Goal = "General Fitness"
)

// Goals lists fitness goals in display order.
var Goals = []Goal{WeightLoss, BuildMuscle, Endurance, GeneralFitness}

type Experience string

const (
	Beginner     Experience = "Beginner"
	Intermediate Experience = "Intermediate"
	Advanced     Experience = "Advanced"
)

var Experiences = []Experience{Beginner, Intermediate, Advanced}

type Duration string

const (
	Min30 Duration = "30 min"
	Min45 Duration = "45 min"
	Min60 Duration = "60 min"
	Min90 Duration = "90 min"
)

var Durations = []Duration{Min30, Min45, Min60, Min90}

// Focus selects the shape of the generated plan. Empty means no particular focus.
type Focus string

const (
	Running      Focus = "Running"
	IndoorCardio Focus = "Indoor Cardio"
	Freeweights  Focus = "Freeweights"
	Circuit      Focus = "Circuit"
)

var Focuses = []Focus{Running, IndoorCardio, Freeweights, Circuit}

// PerExercise reports whether plans for this focus describe each exercise
// individually rather than as a timed session.
func (f Focus) PerExercise() bool {
	switch f {
	case Running, IndoorCardio:
		return false
	default:
		return true
	}
}

// Profile is the user's answers to the preferences stage.
type Profile struct {
	Goal         Goal       `json:"goal" yaml:"goal"`
	Experience   Experience `json:"experience" yaml:"experience"`
	Restrictions string     `json:"restrictions,omitempty" yaml:"restrictions,omitempty"`
	Duration     Duration   `json:"duration" yaml:"duration"`
	Focus        Focus      `json:"focus,omitempty" yaml:"focus,omitempty"`
	Groups       []string   `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Default returns the profile preselected in a fresh wizard.
func Default() Profile {
	return Profile{
		Goal:       GeneralFitness,
		Experience: Beginner,
		Duration:   Min45,
	}
}

// HasRestrictions reports whether the user described any injuries or limitations.
func (p Profile) HasRestrictions() bool {
	return strings.TrimSpace(p.Restrictions) != ""
}

// Validate checks every enumerated field.
func (p Profile) Validate() error {
	if _, err := ParseGoal(string(p.Goal)); err != nil {
		return err
	}
	if _, err := ParseExperience(string(p.Experience)); err != nil {
		return err
	}
	if _, err := ParseDuration(string(p.Duration)); err != nil {
		return err
	}
	if p.Focus != "" {
		if _, err := ParseFocus(string(p.Focus)); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	if p.Groups != nil {
		p.Groups = append([]string(nil), p.Groups...)
	}
	return p
}

// ParseGoal matches s case-insensitively against the known goals.
func ParseGoal(s string) (Goal, error) {
	return parse(s, Goals, "goal")
}

func ParseExperience(s string) (Experience, error) {
	return parse(s, Experiences, "experience")
}

// ParseDuration accepts "60 min" as well as a bare "60".
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasSuffix(strings.ToLower(s), "min") {
		s += " min"
	}
	return parse(s, Durations, "duration")
}

func ParseFocus(s string) (Focus, error) {
	return parse(s, Focuses, "focus")
}

func parse[T ~string](s string, options []T, field string) (T, error) {
	s = strings.TrimSpace(s)
	for _, o := range options {
		if strings.EqualFold(string(o), s) {
			return o, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q (valid: %s)", ErrInvalid, field, s, join(options))
}

func join[T ~string](options []T) string {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = string(o)
	}
	return strings.Join(names, ", ")
}

// Package prompt renders the two LLM prompts used by the wizard: the
// exercise suggestion request and the workout request.
//
// Both are text/template files. The defaults are embedded; a prompts
// directory may override either one by providing suggest.md or workout.md.
package prompt

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/utils"
)

//go:embed defaults/suggest.md
var DefaultSuggest string

//go:embed defaults/workout.md
var DefaultWorkout string

const (
	SuggestFile = "suggest.md"
	WorkoutFile = "workout.md"
)

const (
	noRestrictions   = "The user has no injuries or limitations."
	withRestrictions = "The user has these injuries or limitations: %s. Modify or substitute exercises as needed so the plan is safe for them."

	perExerciseDetail = "For each exercise, provide:\n" +
		"- Sets and reps\n" +
		"- A detailed description of how to perform it (form tips, muscles worked, equipment needed)"
	sessionDetail = "Provide a structured session plan including:\n" +
		"- Warm-up\n" +
		"- Main session (intervals or segments with duration/pace)\n" +
		"- Cool-down"

	variationNote = "This is variation #%d. Make it meaningfully different from the previous version: " +
		"change the rep scheme, the tempo and the exercise ordering instead of repeating the same structure."
)

// Builder renders prompts from a pair of templates.
type Builder struct {
	suggest *template.Template
	workout *template.Template
}

type suggestData struct {
	Goal         profile.Goal
	Experience   profile.Experience
	Duration     profile.Duration
	Focus        profile.Focus
	Restrictions string
	Catalog      string
}

type workoutData struct {
	Goal          profile.Goal
	Experience    profile.Experience
	Duration      profile.Duration
	Focus         profile.Focus
	Restrictions  string
	Exercises     []string
	Detail        string
	VariationNote string
}

var defaultBuilder = mustDefault()

func mustDefault() *Builder {
	b, err := parse(DefaultSuggest, DefaultWorkout)
	if err != nil {
		panic(err)
	}
	return b
}

// Default returns the builder for the embedded templates.
func Default() *Builder {
	return defaultBuilder
}

// New loads templates from dir, falling back to the embedded defaults for any
// file that is absent. An empty dir means defaults only.
func New(dir string) (*Builder, error) {
	if dir == "" {
		return defaultBuilder, nil
	}
	suggestSrc, err := readOverride(dir, SuggestFile, DefaultSuggest)
	if err != nil {
		return nil, err
	}
	workoutSrc, err := readOverride(dir, WorkoutFile, DefaultWorkout)
	if err != nil {
		return nil, err
	}
	return parse(suggestSrc, workoutSrc)
}

func readOverride(dir, name, fallback string) (string, error) {
	content, err := utils.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", name, err)
	}
	return content, nil
}

func parse(suggestSrc, workoutSrc string) (*Builder, error) {
	s, err := template.New(SuggestFile).Option("missingkey=error").Parse(suggestSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", SuggestFile, err)
	}
	w, err := template.New(WorkoutFile).Option("missingkey=error").Parse(workoutSrc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", WorkoutFile, err)
	}
	return &Builder{suggest: s, workout: w}, nil
}

// Suggestion renders the prompt asking the model to pick exercises from master.
func (b *Builder) Suggestion(p profile.Profile, master []string) (string, error) {
	if master == nil {
		master = []string{}
	}
	var list bytes.Buffer
	enc := json.NewEncoder(&list)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(master); err != nil {
		return "", err
	}
	return render(b.suggest, suggestData{
		Goal:         p.Goal,
		Experience:   p.Experience,
		Duration:     p.Duration,
		Focus:        p.Focus,
		Restrictions: RestrictionClause(p),
		Catalog:      strings.TrimSpace(list.String()),
	})
}

// Workout renders the prompt for a workout built from exercises. A variation
// above zero asks for a plan that differs from earlier generations.
func (b *Builder) Workout(p profile.Profile, exercises []string, variation int) (string, error) {
	data := workoutData{
		Goal:         p.Goal,
		Experience:   p.Experience,
		Duration:     p.Duration,
		Focus:        p.Focus,
		Restrictions: RestrictionClause(p),
		Exercises:    exercises,
		Detail:       DetailInstruction(p.Focus),
	}
	if variation > 0 {
		data.VariationNote = VariationNote(variation)
	}
	return render(b.workout, data)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// RestrictionClause describes the user's injuries or their absence.
func RestrictionClause(p profile.Profile) string {
	if !p.HasRestrictions() {
		return noRestrictions
	}
	return fmt.Sprintf(withRestrictions, p.Restrictions)
}

// DetailInstruction tells the model how much detail each part of the plan needs.
func DetailInstruction(f profile.Focus) string {
	if f.PerExercise() {
		return perExerciseDetail
	}
	return sessionDetail
}

func VariationNote(n int) string {
	return fmt.Sprintf(variationNote, n)
}

// BuildSuggestionPrompt renders the embedded suggestion template.
func BuildSuggestionPrompt(p profile.Profile, master []string) string {
	out, err := defaultBuilder.Suggestion(p, master)
	if err != nil {
		panic(err)
	}
	return out
}

// BuildWorkoutPrompt renders the embedded workout template.
func BuildWorkoutPrompt(p profile.Profile, exercises []string, variation int) string {
	out, err := defaultBuilder.Workout(p, exercises, variation)
	if err != nil {
		panic(err)
	}
	return out
}

// ExportDefaults writes the embedded templates into dir so they can be edited.
// Existing files are left alone unless overwrite is set.
func ExportDefaults(dir string, overwrite bool) ([]string, error) {
	var written []string
	for _, f := range []struct{ name, content string }{
		{SuggestFile, DefaultSuggest},
		{WorkoutFile, DefaultWorkout},
	} {
		path := filepath.Join(dir, f.name)
		if !overwrite && utils.FileExists(path) {
			continue
		}
		if err := utils.WriteFile(path, f.content); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

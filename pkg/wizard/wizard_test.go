package wizard

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Pat-Reen/FitnessChat/pkg/catalog"
	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/prompt"
)

// fakeClient returns canned replies in order and records every prompt.
type fakeClient struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeClient) GenerateContent(_ context.Context, p string) (string, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "# Workout", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeClient) Close() {}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Group{
		{Name: "Back", Exercises: []string{"Deadlift", "Pull-Up", "Barbell Row"}},
		{Name: "Legs", Exercises: []string{"Barbell Back Squat", "Deadlift", "Leg Press Machine"}},
		{Name: "Core", Exercises: []string{"Plank", "Dead Bug"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func buildMuscle() profile.Profile {
	return profile.Profile{
		Goal:       profile.BuildMuscle,
		Experience: profile.Intermediate,
		Duration:   profile.Min60,
	}
}

func TestSubmitSeedsSuggestions(t *testing.T) {
	client := &fakeClient{replies: []string{`["Plank", "Zercher Squat", "Deadlift"]`}}
	m := New(testCatalog(t), client)

	s, err := m.Submit(context.Background(), NewSession(), buildMuscle())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if s.Stage != Selection {
		t.Errorf("stage = %s, want selection", s.Stage)
	}
	want := []string{"Plank", "Deadlift"}
	if !reflect.DeepEqual(s.Suggested, want) || !reflect.DeepEqual(s.Selected, want) {
		t.Errorf("suggested = %v, selected = %v, want %v", s.Suggested, s.Selected, want)
	}
	if s.Fallback || s.Notice != "" {
		t.Error("fallback should not be set when suggestions parse")
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], `"Barbell Back Squat"`) {
		t.Error("suggestion prompt should carry the catalog")
	}
}

func TestSubmitFallsBackOnUnparseableResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Here are some great exercises: squats and planks!"},
		{"no known names", `["Zercher Squat", "Yoga"]`},
		{"empty array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCatalog(t), &fakeClient{replies: []string{tt.reply}})
			s, err := m.Submit(context.Background(), NewSession(), buildMuscle())
			if err != nil {
				t.Fatalf("parse failures must not be fatal: %v", err)
			}
			if s.Stage != Selection {
				t.Errorf("stage = %s, want selection", s.Stage)
			}
			if !s.Fallback || s.Notice != FallbackNotice {
				t.Errorf("fallback = %v, notice = %q", s.Fallback, s.Notice)
			}
			if len(s.Suggested) != 0 || len(s.Selected) != 0 {
				t.Errorf("fallback should leave selections empty: %v / %v", s.Suggested, s.Selected)
			}
		})
	}
}

func TestSubmitLLMFailureKeepsSession(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"transport error", &fakeClient{err: errors.New("dial tcp: connection refused")}},
		{"empty response", &fakeClient{replies: []string{"  \n"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(testCatalog(t), tt.client)
			start := NewSession()
			start.Suggested = []string{"Plank"}

			s, err := m.Submit(context.Background(), start, buildMuscle())
			if !errors.Is(err, ErrLLMCall) {
				t.Fatalf("error = %v, want ErrLLMCall", err)
			}
			if s.Stage != Preferences {
				t.Errorf("stage = %s, want preferences", s.Stage)
			}
			if !reflect.DeepEqual(s.Suggested, []string{"Plank"}) {
				t.Errorf("suggested changed to %v", s.Suggested)
			}
			if !reflect.DeepEqual(s.Profile, start.Profile) {
				t.Error("profile should not change on failure")
			}
		})
	}
}

func TestSubmitRejectsInvalidProfile(t *testing.T) {
	client := &fakeClient{}
	m := New(testCatalog(t), client)

	p := buildMuscle()
	p.Experience = "Elite"
	s, err := m.Submit(context.Background(), NewSession(), p)
	if !errors.Is(err, profile.ErrInvalid) {
		t.Fatalf("error = %v, want profile.ErrInvalid", err)
	}
	if s.Stage != Preferences || len(client.prompts) != 0 {
		t.Error("invalid profile should not advance or call the LLM")
	}
}

func TestSubmitGroupsMode(t *testing.T) {
	client := &fakeClient{}
	m := New(testCatalog(t), client, WithMode(ModeGroups))

	p := buildMuscle()
	p.Groups = []string{"Legs", "Back"}
	s, err := m.Submit(context.Background(), NewSession(), p)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	want := []string{"Barbell Back Squat", "Deadlift", "Leg Press Machine", "Pull-Up", "Barbell Row"}
	if !reflect.DeepEqual(s.Selected, want) {
		t.Errorf("selected = %v, want %v", s.Selected, want)
	}
	if len(client.prompts) != 0 {
		t.Error("group preselection should not call the LLM")
	}

	p.Groups = []string{"Wings"}
	s2, err := m.Submit(context.Background(), NewSession(), p)
	if !errors.Is(err, catalog.ErrUnknownGroup) {
		t.Errorf("error = %v, want ErrUnknownGroup", err)
	}
	if s2.Stage != Preferences {
		t.Error("unknown group should not advance")
	}

	p.Groups = nil
	s3, err := m.Submit(context.Background(), NewSession(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !s3.Fallback {
		t.Error("no groups should fall back to manual browsing")
	}
}

func TestWrongStageTransitions(t *testing.T) {
	m := New(testCatalog(t), &fakeClient{})
	ctx := context.Background()

	pref := NewSession()
	sel := NewSession()
	sel.Stage = Selection
	sel.Selected = []string{"Plank"}
	done := sel
	done.Stage = Workout

	checks := []struct {
		name string
		fn   func() (Session, error)
	}{
		{"submit from selection", func() (Session, error) { return m.Submit(ctx, sel, buildMuscle()) }},
		{"toggle from preferences", func() (Session, error) { return m.Toggle(pref, "Plank") }},
		{"select from workout", func() (Session, error) { return m.SetSelection(done, []string{"Plank"}) }},
		{"build from preferences", func() (Session, error) { return m.Build(ctx, pref) }},
		{"build from workout", func() (Session, error) { return m.Build(ctx, done) }},
		{"regenerate from selection", func() (Session, error) { return m.Regenerate(ctx, sel) }},
	}

	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.fn()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	m := New(testCatalog(t), &fakeClient{})
	s := NewSession()
	s.Stage = Selection
	s.Selected = []string{"Plank"}

	added, err := m.Toggle(s, "Deadlift")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(added.Selected, []string{"Plank", "Deadlift"}) {
		t.Errorf("selected = %v", added.Selected)
	}
	if !reflect.DeepEqual(s.Selected, []string{"Plank"}) {
		t.Error("Toggle modified its input")
	}

	removed, err := m.Toggle(added, "Plank")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(removed.Selected, []string{"Deadlift"}) {
		t.Errorf("selected = %v", removed.Selected)
	}

	if _, err := m.Toggle(s, "plank"); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("error = %v, want ErrUnknownExercise", err)
	}
}

func TestSetSelection(t *testing.T) {
	m := New(testCatalog(t), &fakeClient{})
	s := NewSession()
	s.Stage = Selection

	got, err := m.SetSelection(s, []string{"Plank", "Deadlift", "Plank"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Selected, []string{"Plank", "Deadlift"}) {
		t.Errorf("selected = %v", got.Selected)
	}

	if _, err := m.SetSelection(s, []string{"Plank", "Moonwalk"}); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("error = %v, want ErrUnknownExercise", err)
	}
}

func TestBuildEmptySelection(t *testing.T) {
	client := &fakeClient{}
	m := New(testCatalog(t), client)
	s := NewSession()
	s.Stage = Selection

	got, err := m.Build(context.Background(), s)
	if !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("error = %v, want ErrEmptySelection", err)
	}
	if got.Stage != Selection {
		t.Errorf("stage = %s, want selection", got.Stage)
	}
	if len(client.prompts) != 0 {
		t.Error("empty selection must not call the LLM")
	}
}

func TestBuildAndRegenerate(t *testing.T) {
	client := &fakeClient{replies: []string{"# Plan A", "# Plan B", "# Plan C"}}
	m := New(testCatalog(t), client)
	ctx := context.Background()

	s := NewSession()
	s.Stage = Selection
	s.Profile = buildMuscle()
	s.Selected = []string{"Barbell Back Squat", "Leg Press Machine"}

	built, err := m.Build(ctx, s)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if built.Stage != Workout || built.Variation != 0 {
		t.Errorf("stage = %s, variation = %d", built.Stage, built.Variation)
	}
	if built.Workout == nil || built.Workout.Markdown != "# Plan A" {
		t.Fatalf("workout = %+v", built.Workout)
	}

	again, err := m.Regenerate(ctx, built)
	if err != nil {
		t.Fatalf("Regenerate error: %v", err)
	}
	if again.Variation != 1 || again.Workout.Variation != 1 || again.Workout.Markdown != "# Plan B" {
		t.Errorf("after regenerate: variation = %d, workout = %+v", again.Variation, again.Workout)
	}
	if built.Workout.Markdown != "# Plan A" {
		t.Error("Regenerate modified the previous session's workout")
	}

	third, err := m.Regenerate(ctx, again)
	if err != nil {
		t.Fatal(err)
	}
	if third.Variation != 2 {
		t.Errorf("variation = %d, want 2", third.Variation)
	}

	if len(client.prompts) != 3 {
		t.Fatalf("prompts = %d, want 3", len(client.prompts))
	}
	first, second := client.prompts[0], client.prompts[1]
	if first == second {
		t.Error("regenerate prompt should differ from build prompt")
	}
	if strings.Contains(first, prompt.VariationNote(1)) || !strings.Contains(second, prompt.VariationNote(1)) {
		t.Error("only the regenerate prompt should carry the variation clause")
	}
	for _, name := range s.Selected {
		if !strings.Contains(first, name) {
			t.Errorf("build prompt missing %q", name)
		}
	}
}

func TestBuildLLMFailureKeepsStage(t *testing.T) {
	m := New(testCatalog(t), &fakeClient{err: errors.New("503 overloaded")})
	s := NewSession()
	s.Stage = Selection
	s.Selected = []string{"Plank"}

	got, err := m.Build(context.Background(), s)
	if !errors.Is(err, ErrLLMCall) {
		t.Fatalf("error = %v, want ErrLLMCall", err)
	}
	if got.Stage != Selection || got.Workout != nil {
		t.Error("failed build should leave the session unchanged")
	}
}

func TestRegenerateFailureKeepsWorkout(t *testing.T) {
	client := &fakeClient{replies: []string{"# Plan A"}}
	m := New(testCatalog(t), client)
	s := NewSession()
	s.Stage = Selection
	s.Selected = []string{"Plank"}

	built, err := m.Build(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}

	client.err = errors.New("timeout")
	got, err := m.Regenerate(context.Background(), built)
	if !errors.Is(err, ErrLLMCall) {
		t.Fatalf("error = %v", err)
	}
	if got.Variation != 0 || got.Workout.Markdown != "# Plan A" {
		t.Errorf("failed regenerate changed the session: %+v", got)
	}
}

func TestStartOver(t *testing.T) {
	m := New(testCatalog(t), &fakeClient{})
	p := buildMuscle()
	p.Restrictions = "bad shoulder"

	s := Session{
		Stage:     Workout,
		Profile:   p,
		Suggested: []string{"Plank"},
		Selected:  []string{"Plank", "Deadlift"},
		Fallback:  true,
		Notice:    FallbackNotice,
		Workout:   &Result{Markdown: "# Plan", Variation: 3},
		Variation: 3,
	}

	got := m.StartOver(s)
	if got.Stage != Preferences {
		t.Errorf("stage = %s", got.Stage)
	}
	if !reflect.DeepEqual(got.Profile, p) {
		t.Errorf("profile not retained: %+v", got.Profile)
	}
	if len(got.Suggested) != 0 || len(got.Selected) != 0 || got.Workout != nil || got.Variation != 0 || got.Fallback || got.Notice != "" {
		t.Errorf("start over left state behind: %+v", got)
	}

	// from Preferences it is a no-op apart from clearing
	if again := m.StartOver(got); again.Stage != Preferences {
		t.Error("start over from preferences should stay there")
	}
}

func TestFullFlow(t *testing.T) {
	client := &fakeClient{replies: []string{`["Plank", "Pull-Up"]`, "# Plan"}}
	m := New(testCatalog(t), client)
	ctx := context.Background()

	s, err := m.Submit(ctx, NewSession(), buildMuscle())
	if err != nil {
		t.Fatal(err)
	}
	s, err = m.Toggle(s, "Pull-Up")
	if err != nil {
		t.Fatal(err)
	}
	s, err = m.Toggle(s, "Dead Bug")
	if err != nil {
		t.Fatal(err)
	}
	s, err = m.Build(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.Selected, []string{"Plank", "Dead Bug"}) {
		t.Errorf("selected = %v", s.Selected)
	}
	if !strings.Contains(client.prompts[1], "- Dead Bug") || strings.Contains(client.prompts[1], "- Pull-Up") {
		t.Error("workout prompt should list exactly the selection")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeSuggest, "suggest": ModeSuggest, " Groups ": ModeGroups} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("random"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

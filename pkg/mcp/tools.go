package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Pat-Reen/FitnessChat/pkg/profile"
	"github.com/Pat-Reen/FitnessChat/pkg/suggest"
	"github.com/Pat-Reen/FitnessChat/pkg/wizard"
)

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List catalog exercises. With no arguments returns every exercise; filter by muscle group or fuzzy-search by name."),
	mcp.WithString("group", mcp.Description("Muscle group name (e.g. Back, Legs, Core)")),
	mcp.WithString("query", mcp.Description("Fuzzy search text (e.g. 'squat')")),
)

var toolSuggestExercises = mcp.NewTool("suggest_exercises", withProfileParams(
	mcp.WithDescription("Suggest catalog exercises for a fitness profile. Every returned name is guaranteed to be in the catalog."),
)...)

var toolBuildWorkout = mcp.NewTool("build_workout", withProfileParams(
	mcp.WithDescription("Generate a Markdown workout plan for the given exercises and fitness profile."),
	mcp.WithArray("exercises", mcp.Required(), mcp.WithStringItems(), mcp.Description("Catalog exercise names, exactly as list_exercises returns them")),
	mcp.WithNumber("variation", mcp.Description("Variation number. 0 is the first plan; higher numbers ask for a structurally different plan.")),
)...)

// withProfileParams appends the shared profile arguments to opts.
func withProfileParams(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("goal", mcp.Description("Fitness goal. Defaults to General Fitness."), mcp.Enum(names(profile.Goals)...)),
		mcp.WithString("experience", mcp.Description("Experience level. Defaults to Beginner."), mcp.Enum(names(profile.Experiences)...)),
		mcp.WithString("duration", mcp.Description("Session length. Defaults to 45 min."), mcp.Enum(names(profile.Durations)...)),
		mcp.WithString("focus", mcp.Description("Workout focus"), mcp.Enum(names(profile.Focuses)...)),
		mcp.WithString("restrictions", mcp.Description("Injuries or limitations in free text")),
		mcp.WithArray("groups", mcp.WithStringItems(), mcp.Description("Muscle groups to target")),
	)
}

func names[T ~string](options []T) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = string(o)
	}
	return out
}

// profileFrom builds a profile from tool arguments, defaulting unset fields.
func profileFrom(req mcp.CallToolRequest) (profile.Profile, error) {
	p := profile.Default()
	var err error
	if v := req.GetString("goal", ""); v != "" {
		if p.Goal, err = profile.ParseGoal(v); err != nil {
			return p, err
		}
	}
	if v := req.GetString("experience", ""); v != "" {
		if p.Experience, err = profile.ParseExperience(v); err != nil {
			return p, err
		}
	}
	if v := req.GetString("duration", ""); v != "" {
		if p.Duration, err = profile.ParseDuration(v); err != nil {
			return p, err
		}
	}
	if v := req.GetString("focus", ""); v != "" {
		if p.Focus, err = profile.ParseFocus(v); err != nil {
			return p, err
		}
	}
	p.Restrictions = strings.TrimSpace(req.GetString("restrictions", ""))
	p.Groups = trimAll(req.GetStringSlice("groups", nil))
	return p, nil
}

// trimAll trims each name and drops blanks. Commas inside a name are kept.
func trimAll(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := h.machine.Catalog()

	var exercises []string
	switch group, query := req.GetString("group", ""), req.GetString("query", ""); {
	case group != "":
		list, err := cat.ExercisesFor(group)
		if err != nil {
			return mcp.NewToolResultError(err.Error() + ". Known groups: " + strings.Join(cat.Groups(), ", ")), nil
		}
		exercises = list
	case query != "":
		exercises = cat.Search(query)
	default:
		exercises = cat.Flatten()
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"exercises": exercises})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) suggestExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := profileFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := h.machine.Suggest(ctx, p)
	fallback := false
	switch {
	case errors.Is(err, suggest.ErrParse):
		fallback = true
	case err != nil:
		h.log.Error("suggest_exercises failed", "error", err)
		return mcp.NewToolResultError("suggestion failed: " + err.Error()), nil
	}
	if len(res.Names) == 0 {
		fallback = true
	}

	out := map[string]any{
		"exercises": res.Names,
		"fallback":  fallback,
	}
	if res.Names == nil {
		out["exercises"] = []string{}
	}
	if fallback {
		out["notice"] = wizard.FallbackNotice
	}
	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) buildWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireStringSlice("exercises")
	if err != nil {
		return mcp.NewToolResultError("exercises must be an array of catalog exercise names"), nil
	}
	exercises := trimAll(raw)
	if len(exercises) == 0 {
		return mcp.NewToolResultError(wizard.ErrEmptySelection.Error()), nil
	}
	for _, name := range exercises {
		if !h.machine.Catalog().Contains(name) {
			return mcp.NewToolResultError("exercise not in catalog: " + name), nil
		}
	}

	p, err := profileFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	variation := req.GetInt("variation", 0)
	if variation < 0 {
		return mcp.NewToolResultError("variation must not be negative"), nil
	}

	plan, err := h.machine.Compose(ctx, p, exercises, variation)
	if err != nil {
		h.log.Error("build_workout failed", "error", err)
		return mcp.NewToolResultError("workout generation failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(plan), nil
}

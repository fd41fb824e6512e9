// Package suggest validates the exercise suggestions returned by the LLM.
//
// The model is asked for a bare JSON array of exercise names. Its answer is
// treated as untrusted: anything that does not parse yields no suggestions,
// and names not found verbatim in the master list are dropped.
package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParse means the response held no usable JSON array. Callers fall back to
// manual browsing of the full catalog.
var ErrParse = errors.New("could not parse exercise suggestions")

// Result is the outcome of validating one response.
type Result struct {
	// Names are the accepted suggestions in the model's order.
	Names []string `json:"names"`
	// Dropped are array entries that were not catalog exercises.
	Dropped []string `json:"dropped,omitempty"`
}

// ParseSuggestions returns the catalog exercises named in raw, in the order
// the model gave them. Malformed input yields an empty slice.
func ParseSuggestions(raw string, master []string) []string {
	res, err := Parse(raw, master)
	if err != nil {
		return []string{}
	}
	return res.Names
}

// Parse is ParseSuggestions with diagnostics.
func Parse(raw string, master []string) (Result, error) {
	items, err := decode(raw)
	if err != nil {
		return Result{Names: []string{}}, err
	}

	allowed := make(map[string]struct{}, len(master))
	for _, m := range master {
		allowed[m] = struct{}{}
	}

	res := Result{Names: []string{}}
	seen := make(map[string]struct{})
	for _, item := range items {
		name, ok := item.(string)
		if !ok {
			res.Dropped = append(res.Dropped, fmt.Sprint(item))
			continue
		}
		if _, ok := allowed[name]; !ok {
			res.Dropped = append(res.Dropped, name)
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		res.Names = append(res.Names, name)
	}
	return res, nil
}

func decode(raw string) ([]any, error) {
	s := extractArray(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}

	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return items, nil
}

// extractArray strips a Markdown code fence and any prose around the
// outermost JSON array.
func extractArray(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start != -1 && end != -1 && end > start {
		s = s[start : end+1]
	}

	return strings.TrimSpace(s)
}

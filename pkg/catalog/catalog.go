// Package catalog provides the exercise catalog: muscle groups mapped to
// ordered exercise lists, plus the flattened master list used as the
// allow-list for LLM suggestions.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

// ErrUnknownGroup is returned when a muscle group is not in the catalog.
var ErrUnknownGroup = errors.New("unknown muscle group")

// Group is a named list of exercises.
type Group struct {
	Name      string   `yaml:"name" json:"name"`
	Exercises []string `yaml:"exercises" json:"exercises"`
}

// Catalog is immutable once built.
type Catalog struct {
	groups []Group
	flat   []string
	known  map[string]struct{}
}

type rawCatalog struct {
	Groups []Group `yaml:"groups"`
}

// DefaultCatalogYAML returns the raw bundled catalog
func DefaultCatalogYAML() []byte {
	return defaultCatalogYAML
}

// Default returns the bundled catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(raw.Groups)
}

// New builds a catalog from groups. Blank names are skipped; a group listed
// twice is merged into its first occurrence.
func New(groups []Group) (*Catalog, error) {
	c := &Catalog{known: make(map[string]struct{})}
	pos := make(map[string]int)

	for _, g := range groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return nil, fmt.Errorf("catalog group with empty name")
		}
		i, ok := pos[name]
		if !ok {
			i = len(c.groups)
			pos[name] = i
			c.groups = append(c.groups, Group{Name: name})
		}
		for _, ex := range g.Exercises {
			ex = strings.TrimSpace(ex)
			if ex == "" {
				continue
			}
			c.groups[i].Exercises = append(c.groups[i].Exercises, ex)
			c.known[ex] = struct{}{}
		}
	}
	if len(c.known) == 0 {
		return nil, fmt.Errorf("catalog has no exercises")
	}

	c.flat = make([]string, 0, len(c.known))
	for ex := range c.known {
		c.flat = append(c.flat, ex)
	}
	sort.Strings(c.flat)

	return c, nil
}

// Groups returns group names in catalog order.
func (c *Catalog) Groups() []string {
	names := make([]string, len(c.groups))
	for i, g := range c.groups {
		names[i] = g.Name
	}
	return names
}

// All returns a copy of every group with its exercises.
func (c *Catalog) All() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		out[i] = Group{Name: g.Name, Exercises: append([]string(nil), g.Exercises...)}
	}
	return out
}

// Flatten returns every exercise name once, in sorted order.
func (c *Catalog) Flatten() []string {
	return append([]string(nil), c.flat...)
}

// Len is the number of distinct exercises.
func (c *Catalog) Len() int {
	return len(c.flat)
}

// Contains reports whether name is a catalog exercise (exact match).
func (c *Catalog) Contains(name string) bool {
	_, ok := c.known[name]
	return ok
}

// ExercisesFor returns the exercises of a group in catalog order.
// Group names match case-insensitively.
func (c *Catalog) ExercisesFor(group string) ([]string, error) {
	g, ok := c.lookup(group)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	return append([]string(nil), g.Exercises...), nil
}

// Preselect returns every exercise in the given groups, deduplicated by first
// occurrence across groups.
func (c *Catalog) Preselect(groups []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range groups {
		g, ok := c.lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
		}
		for _, ex := range g.Exercises {
			if _, dup := seen[ex]; dup {
				continue
			}
			seen[ex] = struct{}{}
			out = append(out, ex)
		}
	}
	return out, nil
}

// Search fuzzy-matches query against the master list, best match first.
// An empty query returns the full list.
func (c *Catalog) Search(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.Flatten()
	}
	matches := fuzzy.Find(query, c.flat)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}

func (c *Catalog) lookup(name string) (Group, bool) {
	name = strings.TrimSpace(name)
	for _, g := range c.groups {
		if g.Name == name {
			return g, true
		}
	}
	for _, g := range c.groups {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return Group{}, false
}

package storage

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scope is a container's configured range rule for one feature.
type Scope int

const (
	// ScopeDisabled never lets the container participate.
	ScopeDisabled Scope = iota
	// ScopeInventory only allows the container while it is carried.
	ScopeInventory
	// ScopeLocation allows the container from the same location, optionally
	// bounded by a tile distance.
	ScopeLocation
	// ScopeWorld allows the container from anywhere.
	ScopeWorld
)

var scopeNames = map[Scope]string{
	ScopeDisabled:  "disabled",
	ScopeInventory: "inventory",
	ScopeLocation:  "location",
	ScopeWorld:     "world",
}

// String returns the configuration name of the scope.
func (s Scope) String() string {
	if n, ok := scopeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ParseScope converts a configuration name into a Scope.
func ParseScope(name string) (Scope, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range scopeNames {
		if n == name {
			return s, nil
		}
	}
	return ScopeDisabled, fmt.Errorf("unknown scope %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalYAML accepts the scope name as a YAML scalar.
func (s *Scope) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: scope must be a scalar", node.Line)
	}
	return s.UnmarshalText([]byte(node.Value))
}

// FeatureOptions configures how far a container reaches for one feature.
type FeatureOptions struct {
	Scope Scope `json:"scope" yaml:"scope"`
	// Distance is the range in tiles for ScopeLocation; -1 means the whole
	// location.
	Distance          int      `json:"distance" yaml:"distance"`
	ExcludedLocations []string `json:"excludedLocations,omitempty" yaml:"excluded_locations,omitempty"`
}

// Excludes reports whether name is one of the excluded location names.
func (o FeatureOptions) Excludes(name string) bool {
	for _, n := range o.ExcludedLocations {
		if n == name {
			return true
		}
	}
	return false
}

// Options holds the per-container configuration consulted by the engine.
type Options struct {
	Stash    FeatureOptions `json:"stash" yaml:"stash"`
	Craft    FeatureOptions `json:"craft" yaml:"craft"`
	Priority int            `json:"priority" yaml:"priority"`
	// Unique marks a container kind of which at most one may take part in
	// an operation.
	Unique bool `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Filter restricts stashing to item ids or "category:<name>" entries.
	// An empty filter accepts everything.
	Filter []string `json:"filter,omitempty" yaml:"filter,omitempty"`
	// StashToExistingStacks only stashes items the container already holds.
	StashToExistingStacks bool `json:"stashToExistingStacks,omitempty" yaml:"stash_to_existing_stacks,omitempty"`
}

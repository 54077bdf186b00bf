package reconcile

import (
	"context"
	"time"
)

// Result is the reconciliation output for one rc.conf variable.
type Result struct {
	// Key is the variable name.
	Key string `json:"key"`

	// DefaultPresent indicates whether the shipped defaults assign the key.
	DefaultPresent bool `json:"default_present"`

	// OverridePresent indicates whether the database overrides the key.
	OverridePresent bool `json:"override_present"`

	// PublishedPresent indicates whether the file under the mount point assigns the key.
	PublishedPresent bool `json:"published_present"`

	Default   string `json:"default,omitempty"`
	Override  string `json:"override,omitempty"`
	Published string `json:"published,omitempty"`

	// Effective is the value generation would write: the override if present,
	// otherwise the default.
	Effective string `json:"effective,omitempty"`

	// Mismatch describes every disagreement between the sources,
	// e.g. "published: effective=\"YES\" published=\"NO\"".
	Mismatch []string `json:"mismatch"`
}

// Source loads one view of the configuration as a key/value mapping.
type Source interface {
	// Name identifies the source in errors and cache keys.
	Name() string
	// Load returns the mapping. A source that does not exist yet returns an empty map.
	Load(ctx context.Context) (map[string]string, error)
}

// Spec bundles the three sources and cache settings.
type Spec struct {
	// File is the managed file the sources describe, e.g. "rc.conf".
	File string

	Defaults  Source
	Overrides Source
	Published Source

	// CacheTTL is the time-to-live for cached indices.
	// If zero, caching is disabled.
	CacheTTL time.Duration
}

// CacheKey returns a unique key for caching based on spec parameters.
func (s *Spec) CacheKey() string {
	return s.File + "|" + s.Defaults.Name() + "|" + s.Overrides.Name() + "|" + s.Published.Name()
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionPruneOverride deletes an override that equals its default.
	ActionPruneOverride ActionType = "prune_override"
	// ActionPublish regenerates the managed file.
	ActionPublish ActionType = "publish"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the variable for prune actions and the file for publish actions.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Plan contains reconciliation results and planned actions.
type Plan struct {
	Results []Result    `json:"results"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalKeys is the number of distinct variables across all sources.
	TotalKeys int `json:"total_keys"`

	// Overridden counts variables with a database override.
	Overridden int `json:"overridden"`

	// Redundant counts overrides equal to their default.
	Redundant int `json:"redundant"`

	// Drifted counts variables whose published value differs from the effective one.
	Drifted int `json:"drifted"`

	// PruneActions counts planned override deletions.
	PruneActions int `json:"prune_actions"`

	// PublishActions counts planned regenerations.
	PublishActions int `json:"publish_actions"`
}

// Options controls reconcile behavior for prune/publish operations.
type Options struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool

	// DoPrune enables deletion of overrides equal to their default.
	DoPrune bool

	// DoPublish enables regeneration of a drifted file.
	DoPublish bool

	// Confirmed indicates user has confirmed destructive actions.
	// If false, mutations will not execute regardless of DryRun.
	Confirmed bool
}

// Mutator executes plan actions.
type Mutator interface {
	DeleteOverride(ctx context.Context, key string) error
	Publish(ctx context.Context, file string) error
}

// BatchMutator is implemented by mutators that can delete many overrides at once.
type BatchMutator interface {
	DeleteOverrideBatch(ctx context.Context, keys []string) error
}

package reconcile

import (
	"context"
	"fmt"
	"strings"
)

// ReconcileWithPlan performs reconciliation and returns a plan with results and actions.
// It does NOT execute actions; use ApplyPlan for that.
func ReconcileWithPlan(ctx context.Context, spec *Spec, opts Options) (*Plan, error) {
	cache, err := GetOrBuildCache(ctx, spec)
	if err != nil {
		return nil, err
	}

	results := resultsFromCache(cache)
	summary, actions := buildPlanFromResults(spec.File, results, opts)

	return &Plan{
		Results: results,
		Actions: actions,
		Summary: summary,
	}, nil
}

// ApplyPlan executes the actions in a plan.
// Returns the number of actions executed and any error encountered.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
// Overrides are pruned before the file is published so the published file
// reflects the pruned state.
func ApplyPlan(ctx context.Context, spec *Spec, mutator Mutator, plan *Plan, opts Options) (executed int, err error) {
	// Safety check: do not execute if not confirmed or dry-run
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}
	if mutator == nil {
		return 0, fmt.Errorf("no mutator for %s", spec.File)
	}
	defer InvalidateCache(spec)

	var (
		pruneKeys []string
		publish   []Action
	)
	for _, action := range plan.Actions {
		switch action.Type {
		case ActionPruneOverride:
			pruneKeys = append(pruneKeys, action.Key)
		case ActionPublish:
			publish = append(publish, action)
		}
	}

	if len(pruneKeys) > 0 {
		if batch, ok := mutator.(BatchMutator); ok {
			if err := batch.DeleteOverrideBatch(ctx, pruneKeys); err != nil {
				return executed, fmt.Errorf("failed to batch delete overrides: %w", err)
			}
			executed += len(pruneKeys)
		} else {
			for _, key := range pruneKeys {
				if err := mutator.DeleteOverride(ctx, key); err != nil {
					return executed, fmt.Errorf("failed to delete override %s: %w", key, err)
				}
				executed++
			}
		}
	}

	for _, action := range publish {
		if err := mutator.Publish(ctx, action.Key); err != nil {
			return executed, fmt.Errorf("failed to publish %s: %w", action.Key, err)
		}
		executed++
	}

	return executed, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
// It returns the plan, number of actions executed, and any error.
func ReconcileAndApply(ctx context.Context, spec *Spec, mutator Mutator, opts Options) (*Plan, int, error) {
	plan, err := ReconcileWithPlan(ctx, spec, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := ApplyPlan(ctx, spec, mutator, plan, opts)
	return plan, executed, err
}

// buildPlanFromResults generates a summary and action plan from reconciliation results.
func buildPlanFromResults(file string, results []Result, opts Options) (PlanSummary, []Action) {
	var (
		summary PlanSummary
		actions []Action
		drifted []string
	)

	summary.TotalKeys = len(results)

	for _, result := range results {
		if result.OverridePresent {
			summary.Overridden++
		}
		if result.redundant() {
			summary.Redundant++
			if opts.DoPrune {
				actions = append(actions, Action{
					Type:   ActionPruneOverride,
					Key:    result.Key,
					Reason: fmt.Sprintf("override equals default %q", result.Default),
				})
				summary.PruneActions++
			}
		}
		if result.drifted() {
			summary.Drifted++
			drifted = append(drifted, result.Key)
		}
	}

	// Pruning a redundant override never changes the effective value, so the
	// publish decision does not depend on the prune actions.
	if opts.DoPublish && len(drifted) > 0 {
		actions = append(actions, Action{
			Type:   ActionPublish,
			Key:    file,
			Reason: "drifted: " + strings.Join(drifted, ", "),
		})
		summary.PublishActions++
	}

	return summary, actions
}

// Package reconcile compares three views of a managed rc.conf file: the
// shipped defaults, the database overrides and the file currently published
// under the mount point.
//
// For every variable found in any source the engine reports which sources
// assign it, the effective value (override if present, otherwise default)
// and any mismatch. Two kinds of drift are planned as actions:
//
//   - prune_override: an override repeats its default and can be deleted.
//   - publish: the published file differs from the effective mapping and
//     should be regenerated.
//
// # Architecture
//
// 1. Sources: each view implements Source and returns a key/value mapping.
// FileSource reads a file from disk; SourceFunc adapts services.
//
// 2. Engine: builds the union of keys and a Result per key.
//
// 3. Cache: TTL-based caching of the three mappings with stampede protection,
// used by ReconcileOne and ReconcileWithPlan.
//
// # Usage Example
//
//	spec := &reconcile.Spec{
//	    File:      "rc.conf",
//	    Defaults:  reconcile.StaticSource(defaults.MustLoad().Map()),
//	    Overrides: reconcile.SourceFunc{Label: "overrides", Fn: svc.Values},
//	    Published: reconcile.FileSource{Path: "/etc/rc.conf"},
//	    CacheTTL:  time.Minute,
//	}
//
//	plan, err := reconcile.ReconcileWithPlan(ctx, spec, reconcile.Options{DoPrune: true})
//	executed, err := reconcile.ApplyPlan(ctx, spec, mutator, plan, opts)
//
// Mutations only run with Options.Confirmed set and Options.DryRun unset.
package reconcile

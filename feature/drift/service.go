package drift

import (
	"context"
	"path/filepath"
	"time"

	"rcconf-manager/core/reconcile"
	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/generate"
	"rcconf-manager/feature/overrides"

	"go.uber.org/zap"
)

// Service runs reconciliation for the managed rc.conf.
type Service struct {
	spec    *reconcile.Spec
	mutator *Mutator
	logger  *zap.Logger
}

// NewService builds the reconcile spec from the feature services.
func NewService(defs *defaults.Service, ovr *overrides.Service, gen *generate.Service, ttl time.Duration, logger *zap.Logger) *Service {
	spec := &reconcile.Spec{
		File:      defaults.FileName,
		Defaults:  reconcile.StaticSource(defs.Values()),
		Overrides: reconcile.SourceFunc{Label: "overrides", Fn: ovr.Values},
		Published: reconcile.FileSource{Path: filepath.Join(gen.Mountpoint(), defaults.FileName)},
		CacheTTL:  ttl,
	}
	// Overrides and the published file change outside Apply.
	ovr.OnChange(func(string) { reconcile.InvalidateCache(spec) })
	gen.OnGenerated(func(g generate.Generated) {
		if g.Name == spec.File {
			reconcile.InvalidateCache(spec)
		}
	})

	return &Service{
		spec:    spec,
		mutator: &Mutator{overrides: ovr, generate: gen, logger: logger},
		logger:  logger,
	}
}

// Spec returns the reconcile spec.
func (s *Service) Spec() *reconcile.Spec {
	return s.spec
}

// Mutator returns the mutator plans are applied with.
func (s *Service) Mutator() *Mutator {
	return s.mutator
}

// Report reconciles every variable without planning actions.
func (s *Service) Report(ctx context.Context) (*reconcile.Plan, error) {
	return reconcile.ReconcileWithPlan(ctx, s.spec, reconcile.Options{})
}

// Key reconciles one variable.
func (s *Service) Key(ctx context.Context, key string) (*reconcile.Result, error) {
	return reconcile.ReconcileOne(ctx, s.spec, key)
}

// Apply plans with opts and executes the plan when opts allow it.
func (s *Service) Apply(ctx context.Context, opts reconcile.Options) (*reconcile.Plan, int, error) {
	// The published file and overrides may have changed since the last report.
	reconcile.InvalidateCache(s.spec)

	plan, executed, err := reconcile.ReconcileAndApply(ctx, s.spec, s.mutator, opts)
	if err != nil {
		return plan, executed, err
	}
	s.logger.Info("Reconcile finished",
		zap.Int("actions", len(plan.Actions)),
		zap.Int("executed", executed),
		zap.Bool("dry_run", opts.DryRun))
	return plan, executed, nil
}

// Mutator applies reconcile actions through the feature services.
type Mutator struct {
	overrides *overrides.Service
	generate  *generate.Service
	logger    *zap.Logger
}

// DeleteOverride removes one override.
func (m *Mutator) DeleteOverride(ctx context.Context, key string) error {
	return m.overrides.Delete(ctx, key)
}

// DeleteOverrideBatch removes several overrides in one statement.
func (m *Mutator) DeleteOverrideBatch(ctx context.Context, keys []string) error {
	repo := m.overrides.Repository()
	if repo == nil {
		return overrides.ErrUnavailable
	}
	if err := repo.DeleteBatch(ctx, keys); err != nil {
		return err
	}
	m.logger.Info("Pruned redundant overrides", zap.Strings("keys", keys))
	return nil
}

// Publish regenerates file.
func (m *Mutator) Publish(ctx context.Context, file string) error {
	_, err := m.generate.GenerateFile(ctx, file)
	return err
}

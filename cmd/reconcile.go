package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"rcconf-manager/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pruneOverrides bool
	publishFile    bool
	dryRunDrift    bool
	yesConfirm     bool
)

// reconcileCmd compares defaults, overrides and the published rc.conf.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile defaults, overrides and the published rc.conf",
	Long: `Reconcile the effective configuration against the rc.conf written under
the mount point. Reports redundant overrides and drifted variables.
Optionally prune overrides that equal their default, or publish (regenerate)
the file when it has drifted.

Examples:
  # Report only
  reconcile

  # Prune redundant overrides (with interactive confirmation)
  reconcile --prune

  # Prune and republish with auto-confirm (non-interactive)
  reconcile --prune --publish --yes`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&pruneOverrides, "prune", false, "Delete overrides that equal their default")
	reconcileCmd.Flags().BoolVar(&publishFile, "publish", false, "Regenerate rc.conf when it has drifted")
	reconcileCmd.Flags().BoolVar(&dryRunDrift, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	reconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, appOptions{requireDB: pruneOverrides, events: publishFile})
	if err != nil {
		return err
	}
	defer a.Close()
	l := a.logger

	l.Info("Starting rc.conf reconciliation", zap.String("mountpoint", a.generate.Mountpoint()))

	spec := a.drift.Spec()
	if published, ok := spec.Published.(reconcile.FileSource); ok && !published.Exists() {
		l.Warn("Published file not found, every variable will report as missing", zap.String("path", published.Path))
	}
	opts := reconcile.Options{
		DoPrune:   pruneOverrides,
		DoPublish: publishFile,
		DryRun:    dryRunDrift,
	}

	// Step 1: Plan (always runs)
	plan, err := reconcile.ReconcileWithPlan(ctx, spec, opts)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	// Step 2: Print report
	printReconcileReport(l, plan)

	// Step 3: Check if actions are requested
	if !pruneOverrides && !publishFile {
		l.Info("No actions requested. Use --prune to delete redundant overrides or --publish to regenerate a drifted file.")
		return nil
	}

	if dryRunDrift {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(plan.Actions) == 0 {
		l.Info("No actions required based on current flags.")
		return nil
	}

	// Step 4: Apply (if confirmed)
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	l.Info("Applying actions...")
	executed, err := reconcile.ApplyPlan(ctx, spec, a.drift.Mutator(), plan, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Successfully executed actions", zap.Int("count", executed))
	return nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Reconciliation report",
		zap.Int("total_keys", s.TotalKeys),
		zap.Int("overridden", s.Overridden),
		zap.Int("redundant", s.Redundant),
		zap.Int("drifted", s.Drifted),
	)

	for _, r := range plan.Results {
		if len(r.Mismatch) == 0 {
			continue
		}
		l.Warn("Mismatch",
			zap.String("key", r.Key),
			zap.String("effective", r.Effective),
			zap.Strings("reasons", r.Mismatch),
		)
	}

	if len(plan.Actions) == 0 {
		return
	}
	l.Info("Planned actions",
		zap.Int("prune_actions", s.PruneActions),
		zap.Int("publish_actions", s.PublishActions),
		zap.Int("total_actions", len(plan.Actions)),
	)

	// Show sample of actions (max 5 for logger)
	maxShow := min(len(plan.Actions), 5)
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

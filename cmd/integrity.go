package cmd

import (
	"context"
	"errors"
	"fmt"

	"rcconf-manager/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on defaults, database and storage",
	Long: `Lints the embedded rc.conf, checks the override table schema and verifies
the storage bucket layout and the published copies of generated files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityAll)
	},
}

var integrityDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Lint the embedded rc.conf",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityDefaults)
	},
}

var integrityDatabaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Check the override table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityDatabase)
	},
}

var integrityStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and fix the bucket folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityStorage)
	},
}

var integrityPublishedCmd = &cobra.Command{
	Use:   "published",
	Short: "Check that every managed file has a published copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityPublished)
	},
}

type integrityCheck int

const (
	integrityAll integrityCheck = iota
	integrityDefaults
	integrityDatabase
	integrityStorage
	integrityPublished
)

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(integrityDefaultsCmd, integrityDatabaseCmd, integrityStorageCmd, integrityPublishedCmd)

	integrityStorageCmd.Flags().BoolVar(&fixFlag, "fix", false, "Create missing folders")
}

func runIntegrityChecks(ctx context.Context, only integrityCheck) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, appOptions{requireDB: only == integrityDatabase})
	if err != nil {
		return err
	}
	defer a.Close()
	logg := a.logger

	svc := integrity.NewService(a.store, a.cfg.Storage.Bucket, a.db, a.generate, logg)
	run := func(c integrityCheck) bool { return only == integrityAll || only == c }
	failed := false

	if run(integrityDefaults) {
		logg.Info("Linting embedded rc.conf...")
		report, err := svc.CheckDefaults()
		if err != nil {
			return fmt.Errorf("defaults check failed: %w", err)
		}
		if report.Valid {
			logg.Info("Defaults are valid.", zap.Int("keys", report.Keys))
		} else {
			failed = true
			for _, v := range report.Violations {
				logg.Warn("Lint violation", zap.String("violation", v.String()))
			}
		}
	}

	if run(integrityDatabase) {
		logg.Info("Checking override table schema...")
		report, err := svc.CheckDatabase()
		switch {
		case errors.Is(err, integrity.ErrDatabaseDisabled):
			logg.Info("Database not configured, skipping.")
		case err != nil:
			logg.Error("Database schema check failed", zap.Error(err))
			failed = true
		case report.Matched:
			logg.Info("Override table matches expected definition.", zap.String("table", report.Table))
		default:
			failed = true
			logg.Warn("Override table mismatches found", zap.String("table", report.Table))
			if len(report.MissingColumns) > 0 {
				logg.Warn("Missing Columns", zap.Strings("columns", report.MissingColumns))
			}
			if len(report.TypeMismatches) > 0 {
				logg.Warn("Type Mismatches", zap.Strings("mismatches", report.TypeMismatches))
			}
			for _, e := range report.Errors {
				logg.Error("Inspection Error", zap.String("error", e))
			}
		}
	}

	if run(integrityStorage) {
		logg.Info("Checking folder structure...")
		missing, err := svc.CheckStorage(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled):
			logg.Info("Storage not enabled, skipping.")
		case err != nil:
			return fmt.Errorf("storage check failed: %w", err)
		case len(missing) == 0:
			logg.Info("Structure is intact.")
		default:
			logg.Warn("Missing folders detected", zap.Strings("missing", missing))
			if only == integrityStorage && fixFlag {
				logg.Info("Fixing missing folders...")
				if err := svc.FixStorage(ctx, missing); err != nil {
					return fmt.Errorf("failed to fix structure: %w", err)
				}
				logg.Info("Structure fixed successfully.")
			} else {
				failed = true
				logg.Info("Run 'integrity storage --fix' to create missing folders.")
			}
		}
	}

	if run(integrityPublished) {
		logg.Info("Checking published files...")
		missing, err := svc.CheckPublished(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled):
			logg.Info("Storage not enabled, skipping.")
		case err != nil:
			return fmt.Errorf("published check failed: %w", err)
		case len(missing) == 0:
			logg.Info("Every managed file is published.")
		default:
			failed = true
			logg.Warn("Unpublished files detected", zap.Strings("missing", missing))
		}
	}

	if failed {
		return errors.New("integrity checks reported problems")
	}
	return nil
}

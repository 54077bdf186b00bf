package cmd

import (
	"errors"
	"fmt"

	"rcconf-manager/core/config"
	"rcconf-manager/core/logger"
	"rcconf-manager/core/rcconf"
	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var strictKeys bool

// lintCmd checks an rc.conf file.
var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Lint an rc.conf file",
	Long: `Checks that every line of an rc.conf file is a blank line, a comment or a
double quoted assignment, and that the file survives a parse and write round
trip. Without a file the embedded defaults are linted. With --strict every
documented variable must be assigned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".", configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		source := "(embedded)"
		var doc *rcconf.Document
		if len(args) == 1 {
			source = args[0]
			doc, err = rcconf.ParseFile(source)
		} else {
			doc, err = defaults.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", source, err)
		}

		var keys []string
		if strictKeys || len(args) == 0 {
			keys = defaults.DocumentedKeys
		}

		report := checks.Lint(doc, keys)
		if report.Valid {
			l.Info("rc.conf is valid", zap.String("file", source), zap.Int("keys", report.Keys))
			return nil
		}
		for _, v := range report.Violations {
			l.Warn("Lint violation", zap.String("file", source), zap.String("violation", v.String()))
		}
		return errors.New("lint found violations")
	},
}

func init() {
	lintCmd.Flags().BoolVar(&strictKeys, "strict", false, "Require every documented variable")
	RootCmd.AddCommand(lintCmd)
}

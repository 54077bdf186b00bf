package cmd

import (
	"fmt"
	"os"

	"rcconf-manager/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configFile is the optional JSON, YAML or TOML configuration file.
var configFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "rcconf-manager",
	Short: "rc.conf defaults, overrides and file generation",
	Long: `rcconf-manager ships the default rc.conf of the appliance, stores
administrator overrides in a database and generates the managed files under
the /etc mount point. It runs as an HTTP and NATS service or as one-shot commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// We default to console format to match user expectations (CLI tool)
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			// Absolute fallback if logger creation fails (rare)
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (JSON, YAML or TOML)")
}

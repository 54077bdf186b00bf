package cmd

import (
	"context"
	"fmt"
	"strings"

	"rcconf-manager/core/rcconf"

	"github.com/spf13/cobra"
)

// overrideCmd groups the override store commands.
var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage rc.conf overrides",
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(cmd, func(ctx context.Context, a *application) error {
			rows, err := a.overrides.List(ctx)
			if err != nil {
				return err
			}
			for _, o := range rows {
				fmt.Printf("%s=%s\n", o.Name, rcconf.Quote(o.Value))
			}
			return nil
		})
	},
}

var overrideGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one override",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(cmd, func(ctx context.Context, a *application) error {
			o, err := a.overrides.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(o.Value)
			return nil
		})
	},
}

var overrideSetCmd = &cobra.Command{
	Use:   "set <key> <value...>",
	Short: "Store an override",
	Long: `Stores an override. Several value arguments are joined with spaces, so
list variables can be given unquoted: override set kld_list zfs dtraceall`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(cmd, func(ctx context.Context, a *application) error {
			_, err := a.overrides.Set(ctx, args[0], strings.Join(args[1:], " "))
			return err
		})
	},
}

var overrideUnsetCmd = &cobra.Command{
	Use:     "unset <key>",
	Aliases: []string{"delete"},
	Short:   "Remove an override so the default applies",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(cmd, func(ctx context.Context, a *application) error {
			return a.overrides.Delete(ctx, args[0])
		})
	},
}

var overrideEffectiveCmd = &cobra.Command{
	Use:   "effective",
	Short: "Print the defaults with overrides applied",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOverrides(cmd, func(ctx context.Context, a *application) error {
			doc, err := a.overrides.Effective(ctx)
			if err != nil {
				return err
			}
			fmt.Print(doc.String())
			return nil
		})
	},
}

func init() {
	overrideCmd.AddCommand(overrideListCmd, overrideGetCmd, overrideSetCmd, overrideUnsetCmd, overrideEffectiveCmd)
	RootCmd.AddCommand(overrideCmd)
}

// withOverrides runs fn against an application with a required database.
func withOverrides(cmd *cobra.Command, fn func(ctx context.Context, a *application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApplication(ctx, appOptions{requireDB: true, events: true})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"rcconf-manager/core/events"
	"rcconf-manager/core/storage"
	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/generate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	remoteGenerate  bool
	renderPublished bool
)

// generateCmd writes managed files under the mount point.
var generateCmd = &cobra.Command{
	Use:   "generate [name...]",
	Short: "Generate managed files under the mount point",
	Long: `Renders and writes the named managed files, or every managed file when no
name is given. With --remote the request is sent to a running server over NATS.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApplication(ctx, appOptions{events: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if remoteGenerate {
			return generateRemote(ctx, a, args)
		}

		if len(args) == 0 {
			generated, err := a.generate.GenerateAll(ctx)
			for _, g := range generated {
				logGenerated(a.logger, g)
			}
			return err
		}

		var errs []error
		for _, name := range args {
			g, err := a.generate.GenerateFile(ctx, name)
			if g != nil {
				logGenerated(a.logger, *g)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	},
}

// renderCmd prints a managed file without writing it.
var renderCmd = &cobra.Command{
	Use:   "render [name]",
	Short: "Render a managed file to stdout (default rc.conf)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApplication(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		name := defaults.FileName
		if len(args) == 1 {
			name = args[0]
		}
		var data []byte
		if renderPublished {
			if a.store == nil {
				return errors.New("--published requires storage.enabled")
			}
			data, err = storage.Fetch(ctx, a.store, a.cfg.Storage.Bucket, name)
		} else {
			data, err = a.generate.Render(ctx, name)
		}
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

// filesCmd lists the managed files.
var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List managed files and the template that renders each",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		a, err := newApplication(ctx, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		for _, t := range a.generate.ManagedFiles() {
			source := t.Path
			if t.Embedded {
				source = "(embedded)"
			}
			fmt.Printf("%-32s %-8s %s\n", t.Name, t.Ext, source)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&remoteGenerate, "remote", false, "Ask a running server to generate over NATS")
	renderCmd.Flags().BoolVar(&renderPublished, "published", false, "Print the copy published to storage instead")
	RootCmd.AddCommand(generateCmd, renderCmd, filesCmd)
}

func generateRemote(ctx context.Context, a *application, names []string) error {
	if a.nc == nil {
		return errors.New("--remote requires events.nats_url")
	}

	timeout := time.Duration(a.cfg.Events.RequestTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if len(names) == 0 {
		var resp generate.AllResponse
		if err := events.Call(ctx, a.nc, generate.SubjectGenerateAll, nil, &resp); err != nil {
			return err
		}
		for _, g := range resp.Generated {
			logGenerated(a.logger, g)
		}
		if resp.Errors != "" {
			return errors.New(resp.Errors)
		}
		return nil
	}

	for _, name := range names {
		var g generate.Generated
		if err := events.Call(ctx, a.nc, generate.SubjectGenerateFile, generate.FileRequest{Name: name}, &g); err != nil {
			return err
		}
		logGenerated(a.logger, g)
	}
	return nil
}

func logGenerated(l *zap.Logger, g generate.Generated) {
	l.Info("Generated file",
		zap.String("name", g.Name),
		zap.String("path", g.Path),
		zap.Int("size", g.Size),
		zap.Bool("published", g.Published),
	)
}

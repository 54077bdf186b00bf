package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rcconf-manager/core/events"
	"rcconf-manager/core/loader"
	"rcconf-manager/core/logger"
	"rcconf-manager/core/middleware/auth"
	"rcconf-manager/core/middleware/rayid"

	"rcconf-manager/feature/defaults"
	"rcconf-manager/feature/drift"
	"rcconf-manager/feature/generate"
	"rcconf-manager/feature/integrity"
	"rcconf-manager/feature/overrides"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "rcconf-manager/docs/swagger"
)

// @title rc.conf Manager API
// @version 1.0
// @description API for rc.conf defaults, overrides and generated files.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the rc.conf manager server",
	Long: `Starts the HTTP server and initializes all enabled features. When a NATS
URL is configured, the generation and management RPC services are served too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		// 1. Configuration, logger and optional connections
		a, err := newApplication(ctx, appOptions{events: true})
		if err != nil {
			return err
		}
		defer a.Close()
		logg := a.logger
		zap.ReplaceGlobals(logg)
		cfg := a.cfg

		// 2. Generate every managed file once so the mount point is current
		if generated, err := a.generate.GenerateAll(ctx); err != nil {
			logg.Warn("Initial generation incomplete", zap.Int("generated", len(generated)), zap.Error(err))
		} else {
			logg.Info("Initial generation complete", zap.Int("generated", len(generated)))
		}

		// 3. RPC services
		if a.nc != nil {
			dispatcher := events.NewDispatcher(a.nc, cfg.Events, logg)
			defer dispatcher.Close()
			if err := generate.RegisterRPC(dispatcher, a.generate); err != nil {
				return fmt.Errorf("failed to register rpc services: %w", err)
			}
			logg.Info("RPC services registered", zap.String("queue", cfg.Events.Queue))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		// 5. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(defaults.NewFeature(a.defaults))
		mgr.Register(overrides.NewFeature(a.overrides))
		mgr.Register(generate.NewFeature(a.generate))
		mgr.Register(drift.NewFeature(a.drift))
		mgr.Register(integrity.NewFeature(integrity.NewService(a.store, cfg.Storage.Bucket, a.db, a.generate, logg)))

		// Middleware Registration
		// RayID must be first to trace everything
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		if !cfg.Server.AuthEnabled() {
			logg.Warn("No API key configured, the API is unauthenticated")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

		// 6. Load Features
		if err := mgr.LoadAll(app); err != nil {
			return fmt.Errorf("failed to load features: %w", err)
		}

		// 7. Start Server
		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			errCh <- app.Listen(cfg.Server.Address())
		}()

		// 8. Graceful Shutdown
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-sig:
		}
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout())
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}

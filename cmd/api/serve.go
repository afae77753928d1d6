package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-sla/internal/api/http"
	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the SLA reconciler",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApplication(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	app := fiber.New(fiber.Config{AppName: a.cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, a.metrics, a.cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(a.cfg.App.Name, a.cfg.App.Version, map[string]handlers.Dependency{
			"postgres": a.pg,
			"redis":    a.redis,
		}),
		Tickets:        handlers.NewTicketsHandler(a.tickets),
		SLA:            handlers.NewSLAHandler(a.sla),
		Categories:     handlers.NewCategoriesHandler(a.categories),
		AuthMiddleware: auth.NewAuthMiddleware(a.tokens),
		Metrics:        a.metrics,
	})

	var reconcilerDone <-chan struct{}
	if a.cfg.SLA.ReconcileEnabled {
		reconciler := worker.NewSLAReconciler(a.sla, a.redis, a.metrics, logger,
			a.cfg.SLA.ReconcileInterval(), a.cfg.SLA.ReconcileLockTTL())
		reconcilerDone = reconciler.Start(ctx)
	}

	go func() {
		if err := app.Listen(a.cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	err = app.Shutdown()
	// The pool closes in a.Close, so the last sweep must finish first.
	if reconcilerDone != nil {
		<-reconcilerDone
	}
	return err
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

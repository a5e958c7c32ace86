package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"financeiro/internal/cli"
	apphttp "financeiro/internal/http"
	"financeiro/internal/ledger"
	applog "financeiro/internal/log"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		// No configured logger yet; fall back to defaults.
		cli.Fatal(applog.New(applog.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open store", err)
	}
	defer store.Close()

	movements := ledger.New(store, logger).WithDateCompare(cli.DateCompare(cfg))
	accounts := ledger.NewRegistry(store, logger)

	srv := apphttp.NewServer(":"+cfg.Port, movements, accounts,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(store),
		apphttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
	)
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting financeiro server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		store.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

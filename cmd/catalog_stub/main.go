// Package main runs the stub catalog API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pearguacamole/VroomVault/internal/config"
	"github.com/pearguacamole/VroomVault/internal/platform/logger"
	"github.com/pearguacamole/VroomVault/internal/stubserver/app"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration and serves the API until ctx is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.LoadStub()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Printf("Configuration loaded: %v", cfg)

	lg := logger.New(cfg.Log.Level)
	slog.SetDefault(lg)

	deps := app.SetupDependencies(cfg, lg)
	server := app.SetupHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Stub catalog API started", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("stub catalog API failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		lg.Info("Shutting down stub catalog API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

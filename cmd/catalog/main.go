// Package main is a command-line front end for the car catalog.
//
// Usage:
//
//	catalog signup -name Ann -email ann@example.com -password secret
//	catalog login -email ann@example.com -password secret
//	catalog list
//	catalog search -keyword sedan
//	catalog get -id 7
//	catalog create -title Civic -description Reliable -tags sedan,honda -image front.jpg -image back.jpg
//	catalog update -id 7 -drop 0 -image interior.jpg
//	catalog delete -id 7
//	catalog whoami
//	catalog logout
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pearguacamole/VroomVault/internal/catalog"
	"github.com/pearguacamole/VroomVault/internal/config"
	"github.com/pearguacamole/VroomVault/internal/imageset"
	"github.com/pearguacamole/VroomVault/internal/platform/logger"
	"github.com/pearguacamole/VroomVault/internal/platform/telemetry"
	"github.com/pearguacamole/VroomVault/internal/session"
	"github.com/pearguacamole/VroomVault/internal/view"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds the collaborators of one command invocation.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions session.Backend
	tracer   *tracesdk.TracerProvider
	client   *catalog.Client
	deps     view.Deps
	out      io.Writer
	errOut   io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a, err := newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.close()
	return cmd.run(ctx, a, args[1:])
}

func newApp(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) (*app, error) {
	lg := logger.NewWithWriter(stderr, cfg.Log.Level)

	var tp *tracesdk.TracerProvider
	if cfg.Telemetry.Enabled {
		var err error
		tp, err = telemetry.NewTracerProvider(ctx, "catalog-cli", telemetry.Exporter{
			Endpoint: cfg.Telemetry.Endpoint,
			Insecure: cfg.Telemetry.Insecure,
			Timeout:  cfg.Telemetry.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up tracing: %w", err)
		}
	}

	sessions, err := session.Open(cfg.Session)
	if err != nil {
		if tp != nil {
			_ = tp.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	httpClient := catalog.NewHTTPClient(catalog.TransportConfig{
		Timeout:             cfg.API.Timeout,
		ConsecutiveFailures: cfg.CircuitBreaker.ConsecutiveFailures,
		OpenTimeout:         cfg.CircuitBreaker.OpenTimeout,
		HalfOpenRequests:    uint32(cfg.Compose.Concurrency),
		Tracing:             cfg.Telemetry.Enabled,
		Logger:              lg,
	})
	client := catalog.NewClient(cfg.API.BaseURL, sessions,
		catalog.WithHTTPClient(httpClient),
		catalog.WithLogger(lg),
	)

	ordering := view.LastResolvedWins
	if cfg.Search.Ordering == config.OrderingLastIssued {
		ordering = view.LastIssuedWins
	}
	fetchTimeout := cfg.Compose.FetchTimeout

	a := &app{
		cfg:      cfg,
		logger:   lg,
		sessions: sessions,
		tracer:   tp,
		client:   client,
		out:      stdout,
		errOut:   stderr,
	}
	a.deps = view.Deps{
		Repository: client,
		Fetcher: imageset.FetcherFunc(func(ctx context.Context, url string) ([]byte, string, error) {
			ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			return client.Fetch(ctx, url)
		}),
		Navigator: view.NavigatorFunc(func(route string) {
			fmt.Fprintf(stderr, "-> %s\n", route)
		}),
		Logger:      lg,
		Concurrency: cfg.Compose.Concurrency,
		Ordering:    ordering,
	}
	return a, nil
}

func (a *app) close() {
	if err := a.sessions.Close(); err != nil {
		a.logger.Error("failed to close session store", "error", err)
	}
	if a.tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.Error("failed to flush traces", "error", err)
		}
	}
}

// command is one subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"signup": {summary: "register a new account", run: runSignup},
		"login":  {summary: "sign in and store the token", run: runLogin},
		"logout": {summary: "forget the stored token", run: runLogout},
		"whoami": {summary: "show the signed-in account", run: runWhoami},
		"list":   {summary: "list your cars", run: runList},
		"search": {summary: "search your cars by keyword", run: runSearch},
		"get":    {summary: "show one car", run: runGet},
		"create": {summary: "create a car", run: runCreate},
		"update": {summary: "edit a car", run: runUpdate},
		"delete": {summary: "delete a car", run: runDelete},
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: catalog <command> [flags]")
	fmt.Fprintln(w)
	for _, name := range []string{"signup", "login", "logout", "whoami", "list", "search", "get", "create", "update", "delete"} {
		fmt.Fprintf(w, "  %-8s %s\n", name, commands[name].summary)
	}
}

func newFlagSet(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

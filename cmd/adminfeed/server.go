package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/adminfeed/internal/app"
	"github.com/nhle/adminfeed/internal/credential"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the poller and the local admin API (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live notification console",
	RunE: func(cmd *cobra.Command, args []string) error {
		withAPI, _ := cmd.Flags().GetBool("api")
		return runWatch(cmd.Context(), withAPI)
	},
}

func init() {
	watchCmd.Flags().Bool("api", false, "also serve the local admin API while the console is open")
}

func runServe(parent context.Context) error {
	fmt.Fprintf(os.Stderr, "adminfeed version %s\n", version)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level, os.Stderr)
	slog.SetDefault(logger)

	token, err := credential.LocalToken()
	if err != nil {
		return fmt.Errorf("initializing local API token: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			printWarning("closing storage: %v", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.poller.Run(gctx) })
	g.Go(func() error { return serveHTTP(gctx, rt, token) })
	return g.Wait()
}

// serveHTTP runs the admin API until ctx ends, then shuts it down.
func serveHTTP(ctx context.Context, rt *runtime, token string) error {
	addr := fmt.Sprintf("127.0.0.1:%d", rt.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           rt.handler(token),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("admin API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down admin API")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWatch(parent context.Context, withAPI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The console owns the terminal, so logs go to a file.
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger := newLogger(cfg.Log.Level, logFile)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.poller.Run(gctx) })
	if withAPI {
		token, err := credential.LocalToken()
		if err != nil {
			cancel()
			return fmt.Errorf("initializing local API token: %w", err)
		}
		g.Go(func() error { return serveHTTP(gctx, rt, token) })
	}

	root := app.New(app.Deps{
		Feed:      rt.ledger,
		Sync:      rt.poller,
		Analytics: rt.analytics,
		Bus:       rt.bus,
	})
	_, runErr := tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(gctx)).Run()

	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("running console: %w", runErr)
	}
	return nil
}

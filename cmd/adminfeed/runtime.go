package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/adminfeed/internal/analytics"
	"github.com/nhle/adminfeed/internal/api"
	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/credential"
	"github.com/nhle/adminfeed/internal/ledger"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/source/rest"
	"github.com/nhle/adminfeed/internal/store"
	appsync "github.com/nhle/adminfeed/internal/sync"
)

// runtime is the wired engine shared by serve and watch.
type runtime struct {
	cfg       *model.AppConfig
	store     *store.SQLiteStore
	bus       *bridge.Bus
	ledger    *ledger.Ledger
	analytics *analytics.Aggregator
	poller    *appsync.Poller
	detach    []func()
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newRuntime opens storage, restores the ledger and connects the poller,
// ledger and bus. The caller runs the poller and must call Close.
func newRuntime(ctx context.Context, cfg *model.AppConfig, logger *slog.Logger) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	apiToken, err := credential.APIToken()
	if err != nil {
		return nil, fmt.Errorf("reading API token: %w", err)
	}
	if apiToken == "" {
		logger.Warn("no API token configured; run 'adminfeed setup' or set " + credential.EnvAPIToken)
	}

	s, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	client := rest.NewClient(cfg.API.BaseURL, apiToken,
		rest.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second))

	rt := &runtime{cfg: cfg, store: s, bus: bridge.New()}
	rt.ledger = ledger.New(s, ledger.WithLogger(logger))
	if err := rt.ledger.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	rt.analytics = analytics.New(client, s, analytics.WithLogger(logger))
	rt.poller = appsync.New(client, s, rt.ledger, rt.analytics,
		appsync.WithIntervals(
			time.Duration(cfg.Poll.DetectionIntervalSec)*time.Second,
			time.Duration(cfg.Poll.AnalyticsIntervalSec)*time.Second,
		),
		appsync.WithLogger(logger),
	)

	rt.detach = append(rt.detach, rt.ledger.Attach(rt.bus), rt.poller.Attach(rt.bus))
	return rt, nil
}

// handler returns the local admin API guarded by token.
func (rt *runtime) handler(token string) http.Handler {
	return api.NewHandler(api.Deps{
		Feed:      rt.ledger,
		Analytics: rt.analytics,
		Bus:       rt.bus,
		Token:     token,
	})
}

func (rt *runtime) Close() error {
	for _, d := range rt.detach {
		d()
	}
	return rt.store.Close()
}

// Package analytics computes the dashboard totals and their change
// against the totals recorded by the previous computation.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/source"
	"github.com/nhle/adminfeed/internal/store"
)

// Aggregator fetches its totals independently of the detection cycle and
// keeps its own baseline.
type Aggregator struct {
	src      source.Source
	baseline store.BaselineStore
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.RWMutex
	latest model.Analytics
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) { a.logger = logger }
}

// New creates an Aggregator reading totals from src.
func New(src source.Source, baseline store.BaselineStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		src:      src,
		baseline: baseline,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Compute fetches current totals and derives percentage changes from the
// stored baseline, then records the totals as the next baseline. When any
// fetch fails every metric and change is zero, Error is set and the
// baseline is left alone.
func (a *Aggregator) Compute(ctx context.Context) model.Analytics {
	now := a.now()

	var contacts, portfolio, visits int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cs, err := a.src.FetchContacts(gctx)
		contacts = len(cs)
		return err
	})
	g.Go(func() error {
		items, err := a.src.FetchPortfolioItems(gctx)
		portfolio = len(items)
		return err
	})
	g.Go(func() error {
		total, err := a.src.FetchPageVisitTotal(gctx)
		visits = total
		return err
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("analytics fetch failed", "error", err)
		result := model.Analytics{ComputedAt: now, Error: err.Error()}
		a.setLatest(result)
		return result
	}

	prev, err := a.baseline.LoadBaseline(ctx)
	if err != nil {
		a.logger.Warn("analytics baseline unreadable, treating as absent", "error", err)
		prev = nil
	}

	result := model.Analytics{
		Contacts:       contacts,
		PortfolioItems: portfolio,
		PageVisits:     visits,
		ComputedAt:     now,
	}
	if prev != nil {
		result.ContactsChange = PercentChange(contacts, prev.Contacts)
		result.PortfolioChange = PercentChange(portfolio, prev.PortfolioItems)
		result.VisitsChange = PercentChange(visits, prev.PageVisits)
	}

	if err := a.baseline.SaveBaseline(ctx, result.Totals()); err != nil {
		a.logger.Warn("saving analytics baseline", "error", err)
	}

	a.setLatest(result)
	return result
}

// Latest returns the most recent computation, or the zero value before
// the first one.
func (a *Aggregator) Latest() model.Analytics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// ResetVisits clears the upstream page-visit counter and recomputes.
func (a *Aggregator) ResetVisits(ctx context.Context) (model.Analytics, error) {
	if err := a.src.ResetPageVisits(ctx); err != nil {
		return model.Analytics{}, err
	}
	return a.Compute(ctx), nil
}

func (a *Aggregator) setLatest(v model.Analytics) {
	a.mu.Lock()
	a.latest = v
	a.mu.Unlock()
}

// PercentChange returns (current-previous)/previous*100 rounded to one
// decimal place. It is 0 when previous is 0, so growth from nothing
// reads as 0%.
func PercentChange(current, previous int) float64 {
	if previous == 0 {
		return 0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return math.Round(pct*10) / 10
}

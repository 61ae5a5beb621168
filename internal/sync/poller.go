package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/detect"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/source"
	"github.com/nhle/adminfeed/internal/store"
)

// SyncState represents the current state of a polled resource.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "running"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// ResourceAnalytics labels status and results of the analytics cycle.
const ResourceAnalytics model.ResourceType = "analytics"

// SyncStatus holds the sync state for a single resource.
type SyncStatus struct {
	Resource model.ResourceType
	State    SyncState
	LastSync time.Time
	Error    error
}

// CycleResult reports the outcome of one detection or analytics pass
// over a single resource.
type CycleResult struct {
	Resource      model.ResourceType
	NewCount      int
	Notifications []model.Notification
	Analytics     *model.Analytics
	Err           error
	AuthError     bool
}

// Ledger is the part of the notification ledger the poller writes to.
type Ledger interface {
	Append(ctx context.Context, candidates []model.Notification) ([]model.Notification, error)
	Heartbeat(ctx context.Context) (bool, error)
}

// Analyzer computes dashboard analytics.
type Analyzer interface {
	Compute(ctx context.Context) model.Analytics
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// createdRetention bounds how long a portfolio item reported over the
// bridge is kept in the snapshot while the backend does not list it.
const createdRetention = 10 * time.Minute

type createdItem struct {
	item model.PortfolioItem
	at   time.Time
}

// Default cycle intervals.
const (
	DefaultDetectionInterval = 30 * time.Second
	DefaultAnalyticsInterval = 5 * time.Second
)

// Poller runs the detection cycle and the analytics cycle on their own
// independent intervals.
type Poller struct {
	src       source.Source
	snapshots store.SnapshotStore
	ledger    Ledger
	analyzer  Analyzer

	detectInterval    time.Duration
	analyticsInterval time.Duration
	detectTask        *Task
	analyticsTask     *Task

	mu       gosync.Mutex
	statuses map[model.ResourceType]*SyncStatus
	resultCh chan CycleResult

	// snapMu serializes snapshot read-modify-write between detection
	// passes and portfolio items reported over the bridge.
	snapMu  gosync.Mutex
	created []createdItem

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Poller.
type Option func(*Poller)

// WithIntervals overrides the detection and analytics intervals. Zero
// values keep the defaults.
func WithIntervals(detection, analytics time.Duration) Option {
	return func(p *Poller) {
		if detection > 0 {
			p.detectInterval = detection
		}
		if analytics > 0 {
			p.analyticsInterval = analytics
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) { p.logger = logger }
}

// New creates a Poller. Call Run to start both cycles.
func New(
	src source.Source,
	snapshots store.SnapshotStore,
	ledger Ledger,
	analyzer Analyzer,
	opts ...Option,
) *Poller {
	p := &Poller{
		src:               src,
		snapshots:         snapshots,
		ledger:            ledger,
		analyzer:          analyzer,
		detectInterval:    DefaultDetectionInterval,
		analyticsInterval: DefaultAnalyticsInterval,
		statuses:          make(map[model.ResourceType]*SyncStatus),
		resultCh:          make(chan CycleResult, 16),
		now:               time.Now,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, rt := range model.WatchedResources {
		p.statuses[rt] = &SyncStatus{Resource: rt, State: SyncIdle}
	}
	p.statuses[ResourceAnalytics] = &SyncStatus{Resource: ResourceAnalytics, State: SyncIdle}

	p.detectTask = NewTask("detection", p.detectInterval, func(ctx context.Context) { p.DetectOnce(ctx) })
	p.analyticsTask = NewTask("analytics", p.analyticsInterval, func(ctx context.Context) { p.AnalyticsOnce(ctx) })
	return p
}

// Run drives both cycles until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started",
		"detection_interval", p.detectInterval,
		"analytics_interval", p.analyticsInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.detectTask.Run(gctx) })
	g.Go(func() error { return p.analyticsTask.Run(gctx) })

	err := g.Wait()
	p.logger.Info("poller stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Refresh triggers an immediate detection and analytics pass.
func (p *Poller) Refresh() {
	p.detectTask.Trigger()
	p.analyticsTask.Trigger()
}

// Attach makes refresh events on bus trigger both cycles and folds
// portfolio items created elsewhere into the portfolio snapshot, so the
// next detection pass does not report them a second time.
func (p *Poller) Attach(bus *bridge.Bus) func() {
	unsubRefresh := bus.Subscribe(bridge.TopicRefresh, func(ctx context.Context, ev bridge.Event) error {
		p.Refresh()
		return nil
	})
	unsubCreated := bus.Subscribe(bridge.TopicPortfolioCreated, p.handlePortfolioCreated)
	return func() {
		unsubRefresh()
		unsubCreated()
	}
}

func (p *Poller) handlePortfolioCreated(ctx context.Context, ev bridge.Event) error {
	switch item := ev.Payload.(type) {
	case model.PortfolioItem:
		return p.RecordCreated(ctx, item)
	case *model.PortfolioItem:
		return p.RecordCreated(ctx, *item)
	default:
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
}

// RecordCreated adds item to the stored portfolio snapshot unless the
// snapshot already holds a counterpart of it. The item is carried over
// by later passes until the backend lists it or createdRetention runs out.
func (p *Poller) RecordCreated(ctx context.Context, item model.PortfolioItem) error {
	p.snapMu.Lock()
	defer p.snapMu.Unlock()

	rt := model.ResourcePortfolioItem
	snap, err := p.snapshots.LoadSnapshot(ctx, rt)
	if err != nil {
		return fmt.Errorf("loading %s snapshot: %w", rt, err)
	}
	var items []model.PortfolioItem
	if snap != nil {
		if err := json.Unmarshal(snap.Items, &items); err != nil {
			p.logger.Warn("snapshot unreadable, treating as empty", "resource", rt, "error", err)
			items = nil
		}
	}
	if detect.HasPortfolioCounterpart(item, items) {
		return nil
	}

	now := p.now()
	p.created = append(p.created, createdItem{item: item, at: now})

	data, err := json.Marshal(append(items, item))
	if err != nil {
		return fmt.Errorf("encoding %s snapshot: %w", rt, err)
	}
	return p.snapshots.SaveSnapshot(ctx, model.Snapshot{ResourceType: rt, Items: data, UpdatedAt: now})
}

// carryCreated returns the bridge-reported items that current does not
// list yet. Expired and confirmed items are forgotten. Callers hold snapMu.
func (p *Poller) carryCreated(current []model.PortfolioItem, now time.Time) []model.PortfolioItem {
	var (
		kept  []createdItem
		carry []model.PortfolioItem
	)
	for _, c := range p.created {
		if now.Sub(c.at) > createdRetention || detect.HasPortfolioCounterpart(c.item, current) {
			continue
		}
		kept = append(kept, c)
		carry = append(carry, c.item)
	}
	p.created = kept
	return carry
}

// Results delivers cycle outcomes. Results are dropped when nobody reads.
func (p *Poller) Results() <-chan CycleResult {
	return p.resultCh
}

// Statuses returns the current status of every resource in poll order.
func (p *Poller) Statuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	order := append(append([]model.ResourceType(nil), model.WatchedResources...), ResourceAnalytics)
	statuses := make([]SyncStatus, 0, len(order))
	for _, rt := range order {
		if s, ok := p.statuses[rt]; ok {
			statuses = append(statuses, *s)
		}
	}
	return statuses
}

// DetectOnce runs one detection pass over every watched resource. Each
// resource is handled independently: a failure on one leaves the others
// untouched.
func (p *Poller) DetectOnce(ctx context.Context) []CycleResult {
	results := []CycleResult{
		detectResource(ctx, p, model.ResourceContact, p.src.FetchContacts, detect.Contacts, nil),
		detectResource(ctx, p, model.ResourcePortfolioItem, p.src.FetchPortfolioItems, detect.PortfolioItems, p.carryCreated),
	}

	if _, err := p.ledger.Heartbeat(ctx); err != nil {
		p.logger.Warn("system heartbeat failed", "error", err)
	}
	return results
}

// AnalyticsOnce runs one analytics pass.
func (p *Poller) AnalyticsOnce(ctx context.Context) model.Analytics {
	p.setStatus(ResourceAnalytics, SyncRunning, nil)

	result := p.analyzer.Compute(ctx)

	var err error
	if result.Error != "" {
		err = errors.New(result.Error)
		p.setStatus(ResourceAnalytics, SyncError, err)
	} else {
		p.setStatus(ResourceAnalytics, SyncIdle, nil)
	}
	p.sendResult(CycleResult{Resource: ResourceAnalytics, Analytics: &result, Err: err})
	return result
}

// detectResource fetches the current items of rt, diffs them against the
// stored snapshot, appends new notifications to the ledger and replaces
// the snapshot. Items returned by carry are stored alongside current.
// Nothing is written when the fetch or the ledger write fails.
func detectResource[T any](
	ctx context.Context,
	p *Poller,
	rt model.ResourceType,
	fetch func(context.Context) ([]T, error),
	diff func(previous, current []T, now time.Time) []model.Notification,
	carry func(current []T, now time.Time) []T,
) CycleResult {
	p.setStatus(rt, SyncRunning, nil)

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	current, err := fetch(fetchCtx)
	cancel()
	if err != nil {
		return p.fail(rt, fmt.Errorf("fetching %s: %w", rt, err))
	}
	if current == nil {
		current = []T{}
	}

	p.snapMu.Lock()
	defer p.snapMu.Unlock()

	snap, err := p.snapshots.LoadSnapshot(ctx, rt)
	if err != nil {
		return p.fail(rt, fmt.Errorf("loading %s snapshot: %w", rt, err))
	}

	var previous []T
	if snap != nil {
		if err := json.Unmarshal(snap.Items, &previous); err != nil {
			p.logger.Warn("snapshot unreadable, treating as empty", "resource", rt, "error", err)
			previous = nil
		}
	}

	now := p.now()
	candidates := diff(previous, current, now)
	retained, err := p.ledger.Append(ctx, candidates)
	if err != nil {
		return p.fail(rt, err)
	}

	stored := current
	if carry != nil {
		if extra := carry(current, now); len(extra) > 0 {
			stored = append(append(make([]T, 0, len(current)+len(extra)), current...), extra...)
		}
	}
	items, err := json.Marshal(stored)
	if err != nil {
		return p.fail(rt, fmt.Errorf("encoding %s snapshot: %w", rt, err))
	}
	if err := p.snapshots.SaveSnapshot(ctx, model.Snapshot{
		ResourceType: rt,
		Items:        items,
		UpdatedAt:    now,
	}); err != nil {
		return p.fail(rt, err)
	}

	if len(retained) > 0 {
		p.logger.Info("new items detected", "resource", rt, "count", len(retained))
	}

	p.setStatus(rt, SyncIdle, nil)
	result := CycleResult{Resource: rt, NewCount: len(retained), Notifications: retained}
	p.sendResult(result)
	return result
}

// fail records err as the status of rt and publishes it.
func (p *Poller) fail(rt model.ResourceType, err error) CycleResult {
	p.setStatus(rt, SyncError, err)

	result := CycleResult{Resource: rt, Err: err, AuthError: source.IsAuthError(err)}
	if result.AuthError {
		p.logger.Warn("authentication failed", "resource", rt, "error", err)
	} else {
		p.logger.Warn("detection skipped", "resource", rt, "error", err)
	}
	p.sendResult(result)
	return result
}

// setStatus updates the sync status for a resource.
func (p *Poller) setStatus(rt model.ResourceType, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[rt]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = p.now()
	}
}

// sendResult sends a CycleResult on the result channel without blocking.
func (p *Poller) sendResult(r CycleResult) {
	select {
	case p.resultCh <- r:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// Package ledger keeps the admin notification feed: an ordered,
// deduplicated and size-bounded list of notifications with read state,
// persisted through a store.LedgerStore.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/detect"
	"github.com/nhle/adminfeed/internal/model"
	"github.com/nhle/adminfeed/internal/store"
)

// HeartbeatInterval is the minimum gap between two system heartbeat
// notifications.
const HeartbeatInterval = time.Hour

const (
	heartbeatTitle   = "Dashboard Refreshed"
	heartbeatMessage = "Your dashboard data is up to date"
)

// Ledger is safe for concurrent use. Every mutation is persisted before
// it becomes visible to readers.
type Ledger struct {
	mu     sync.Mutex
	store  store.LedgerStore
	items  []model.Notification
	unread int

	// lastBeat is the last heartbeat fired by this process. It stands in
	// for the stored timestamp when that cannot be written.
	lastBeat time.Time

	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger used for degraded-state warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates an empty ledger backed by s. Call Load to hydrate it.
func New(s store.LedgerStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load replaces the in-memory feed with the persisted one. Unreadable
// state degrades to an empty feed.
func (l *Ledger) Load(ctx context.Context) error {
	items, err := l.store.LoadNotifications(ctx)
	if err != nil {
		l.logger.Warn("notification ledger unreadable, starting empty", "error", err)
		items = nil
	}
	if len(items) > model.MaxNotifications {
		items = items[:model.MaxNotifications]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	l.unread = countUnread(items)
	return nil
}

// Append merges candidates into the feed. Candidates whose ID is already
// present are ignored. The union is ordered newest first and cut to
// model.MaxNotifications. It returns the candidates that survived.
func (l *Ledger) Append(ctx context.Context, candidates []model.Notification) ([]model.Notification, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[string]struct{}, len(l.items)+len(candidates))
	merged := make([]model.Notification, 0, len(l.items)+len(candidates))
	for _, n := range l.items {
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	fresh := make(map[string]struct{}, len(candidates))
	for _, n := range candidates {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		fresh[n.ID] = struct{}{}
		merged = append(merged, n)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.After(merged[j].Timestamp)
	})
	if len(merged) > model.MaxNotifications {
		merged = merged[:model.MaxNotifications]
	}

	if err := l.store.ReplaceNotifications(ctx, merged); err != nil {
		return nil, fmt.Errorf("persisting notifications: %w", err)
	}
	l.items = merged
	l.unread = countUnread(merged)

	var retained []model.Notification
	for _, n := range merged {
		if _, ok := fresh[n.ID]; ok {
			retained = append(retained, n)
		}
	}
	return retained, nil
}

// MarkRead marks one notification as read. Unknown ids are ignored.
func (l *Ledger) MarkRead(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.items {
		if l.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || l.items[idx].Read {
		return nil
	}

	next := cloneItems(l.items)
	next[idx].Read = true
	if err := l.store.ReplaceNotifications(ctx, next); err != nil {
		return fmt.Errorf("persisting read state: %w", err)
	}
	l.items = next
	if l.unread > 0 {
		l.unread--
	}
	return nil
}

// MarkAllRead marks every notification as read.
func (l *Ledger) MarkAllRead(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := cloneItems(l.items)
	for i := range next {
		next[i].Read = true
	}
	if err := l.store.ReplaceNotifications(ctx, next); err != nil {
		return fmt.Errorf("persisting read state: %w", err)
	}
	l.items = next
	l.unread = 0
	return nil
}

// Inject adds a notification stamped with the current time at the head of
// the feed. An empty icon falls back to the type's default glyph.
func (l *Ledger) Inject(
	ctx context.Context,
	typ model.NotificationType,
	title, message, icon string,
	data json.RawMessage,
) (model.Notification, error) {
	if !typ.Valid() {
		return model.Notification{}, fmt.Errorf("invalid notification type %q", typ)
	}
	if icon == "" {
		icon = typ.Icon()
	}

	now := l.now()
	n := model.Notification{
		ID:        model.NewNotificationID(typ, "", now),
		Type:      typ,
		Title:     title,
		Message:   message,
		Timestamp: now,
		Icon:      icon,
		Data:      data,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]model.Notification, 0, len(l.items)+1)
	next = append(next, n)
	next = append(next, l.items...)
	if len(next) > model.MaxNotifications {
		next = next[:model.MaxNotifications]
	}

	if err := l.store.ReplaceNotifications(ctx, next); err != nil {
		return model.Notification{}, fmt.Errorf("persisting notification: %w", err)
	}
	l.items = next
	l.unread = countUnread(next)
	return n, nil
}

// Heartbeat injects a system notification when none has been recorded in
// the last HeartbeatInterval. It reports whether one was injected.
func (l *Ledger) Heartbeat(ctx context.Context) (bool, error) {
	last, err := l.store.LastHeartbeat(ctx)
	if err != nil {
		l.logger.Warn("reading last heartbeat", "error", err)
		last = time.Time{}
	}
	l.mu.Lock()
	if l.lastBeat.After(last) {
		last = l.lastBeat
	}
	l.mu.Unlock()

	now := l.now()
	if !last.IsZero() && now.Sub(last) <= HeartbeatInterval {
		return false, nil
	}

	if _, err := l.Inject(ctx, model.NotificationSystem, heartbeatTitle, heartbeatMessage, "", nil); err != nil {
		return false, err
	}
	l.mu.Lock()
	l.lastBeat = now
	l.mu.Unlock()

	if err := l.store.SetLastHeartbeat(ctx, now); err != nil {
		return true, fmt.Errorf("recording heartbeat time: %w", err)
	}
	return true, nil
}

// List returns a copy of the feed, newest first.
func (l *Ledger) List() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneItems(l.items)
}

// UnreadCount returns the number of unread notifications.
func (l *Ledger) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unread
}

// Get returns the notification with the given id.
func (l *Ledger) Get(id string) (model.Notification, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.items {
		if n.ID == id {
			return n, true
		}
	}
	return model.Notification{}, false
}

// Attach subscribes the ledger to the injection topics of bus and returns
// a function that detaches it.
func (l *Ledger) Attach(bus *bridge.Bus) func() {
	unsubNotify := bus.Subscribe(bridge.TopicNotify, l.handleNotify)
	unsubPortfolio := bus.Subscribe(bridge.TopicPortfolioCreated, l.handlePortfolioCreated)
	return func() {
		unsubNotify()
		unsubPortfolio()
	}
}

func (l *Ledger) handleNotify(ctx context.Context, ev bridge.Event) error {
	var n bridge.NotifyEvent
	switch p := ev.Payload.(type) {
	case bridge.NotifyEvent:
		n = p
	case *bridge.NotifyEvent:
		n = *p
	default:
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}
	_, err := l.Inject(ctx, n.Type, n.Title, n.Message, n.Icon, n.Data)
	return err
}

func (l *Ledger) handlePortfolioCreated(ctx context.Context, ev bridge.Event) error {
	var item model.PortfolioItem
	switch p := ev.Payload.(type) {
	case model.PortfolioItem:
		item = p
	case *model.PortfolioItem:
		item = *p
	default:
		return fmt.Errorf("unexpected payload %T", ev.Payload)
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding portfolio item: %w", err)
	}
	_, err = l.Inject(ctx, model.NotificationPortfolio, "New Portfolio Item",
		detect.PortfolioMessage(item), model.IconPortfolio, data)
	return err
}

func countUnread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

func cloneItems(items []model.Notification) []model.Notification {
	out := make([]model.Notification, len(items))
	copy(out, items)
	return out
}

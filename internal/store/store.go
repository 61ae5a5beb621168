package store

import (
	"context"
	"time"

	"github.com/nhle/adminfeed/internal/model"
)

// SnapshotStore persists the last observed state of each watched
// resource for the detection cycle.
type SnapshotStore interface {
	// LoadSnapshot returns the stored snapshot for rt, or nil when none
	// has been recorded yet.
	LoadSnapshot(ctx context.Context, rt model.ResourceType) (*model.Snapshot, error)

	// SaveSnapshot replaces the stored snapshot for snap.ResourceType.
	SaveSnapshot(ctx context.Context, snap model.Snapshot) error
}

// LedgerStore persists the notification ledger and the time of the last
// system heartbeat notification.
type LedgerStore interface {
	// LoadNotifications returns the ledger in its stored order.
	LoadNotifications(ctx context.Context) ([]model.Notification, error)

	// ReplaceNotifications overwrites the whole ledger with ns.
	ReplaceNotifications(ctx context.Context, ns []model.Notification) error

	// LastHeartbeat returns the zero time when no heartbeat was recorded.
	LastHeartbeat(ctx context.Context) (time.Time, error)
	SetLastHeartbeat(ctx context.Context, at time.Time) error
}

// BaselineStore persists the previous analytics totals. It is kept apart
// from SnapshotStore: both derive from the same upstream resources but
// refresh on independent cadences.
type BaselineStore interface {
	// LoadBaseline returns nil when no baseline has been recorded yet.
	LoadBaseline(ctx context.Context) (*model.AnalyticsSnapshot, error)
	SaveBaseline(ctx context.Context, snap model.AnalyticsSnapshot) error
}

// Store is the full local persistence interface.
type Store interface {
	SnapshotStore
	LedgerStore
	BaselineStore
	Close() error
}

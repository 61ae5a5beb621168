package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/adminfeed/internal/model"
)

// heartbeatKey is the local_state key of the last system notification time.
const heartbeatKey = "last_system_notification"

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
// Pass ":memory:" for an in-memory database (used by tests).
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: keeps :memory: databases shared and avoids
	// "database is locked" between the two polling cycles.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests and diagnostics.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var v int
	if err := s.db.Get(&v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// snapshotRow mirrors the snapshots table.
type snapshotRow struct {
	ResourceType string `db:"resource_type"`
	Items        string `db:"items"`
	UpdatedAt    int64  `db:"updated_at"`
}

// LoadSnapshot returns the stored snapshot for rt, or nil when none exists.
func (s *SQLiteStore) LoadSnapshot(
	ctx context.Context,
	rt model.ResourceType,
) (*model.Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		"SELECT resource_type, items, updated_at FROM snapshots WHERE resource_type = ?",
		string(rt),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s snapshot: %w", rt, err)
	}

	return &model.Snapshot{
		ResourceType: model.ResourceType(row.ResourceType),
		Items:        json.RawMessage(row.Items),
		UpdatedAt:    fromUnixNano(row.UpdatedAt),
	}, nil
}

// SaveSnapshot inserts or replaces the snapshot for snap.ResourceType.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	items := string(snap.Items)
	if items == "" {
		items = "[]"
	}
	updatedAt := snap.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots (resource_type, items, updated_at)
		VALUES (?, ?, ?)`,
		string(snap.ResourceType), items, updatedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving %s snapshot: %w", snap.ResourceType, err)
	}
	return nil
}

// notificationRow mirrors the notifications table.
type notificationRow struct {
	ID        string `db:"id"`
	Position  int    `db:"position"`
	Type      string `db:"type"`
	Title     string `db:"title"`
	Message   string `db:"message"`
	Icon      string `db:"icon"`
	Data      string `db:"data"`
	Read      int    `db:"read"`
	Timestamp int64  `db:"timestamp"`
}

// LoadNotifications returns the ledger in stored order. A data column
// that is no longer valid JSON is dropped rather than failing the load.
func (s *SQLiteStore) LoadNotifications(ctx context.Context) ([]model.Notification, error) {
	var rows []notificationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, position, type, title, message, icon, data, read, timestamp
		FROM notifications ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	notifications := make([]model.Notification, 0, len(rows))
	for _, r := range rows {
		n := model.Notification{
			ID:        r.ID,
			Type:      model.NotificationType(r.Type),
			Title:     r.Title,
			Message:   r.Message,
			Icon:      r.Icon,
			Read:      r.Read != 0,
			Timestamp: fromUnixNano(r.Timestamp),
		}
		if r.Data != "" && json.Valid([]byte(r.Data)) {
			n.Data = json.RawMessage(r.Data)
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

// ReplaceNotifications overwrites the whole ledger in one transaction.
func (s *SQLiteStore) ReplaceNotifications(
	ctx context.Context,
	ns []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO notifications (
			id, position, type, title, message, icon, data, read, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range ns {
		_, err := stmt.ExecContext(ctx,
			n.ID, i, string(n.Type), n.Title, n.Message, n.Icon,
			string(n.Data), boolToInt(n.Read), toUnixNano(n.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("inserting notification %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

// LastHeartbeat returns the time of the last system heartbeat
// notification. A missing or unparsable value yields the zero time.
func (s *SQLiteStore) LastHeartbeat(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.GetContext(ctx, &value,
		"SELECT value FROM local_state WHERE key = ?", heartbeatKey)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("loading last heartbeat: %w", err)
	}

	at, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, nil
	}
	return at, nil
}

// SetLastHeartbeat records at as the last system heartbeat time.
func (s *SQLiteStore) SetLastHeartbeat(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO local_state (key, value, updated_at)
		VALUES (?, ?, ?)`,
		heartbeatKey, at.UTC().Format(time.RFC3339Nano), time.Now().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving last heartbeat: %w", err)
	}
	return nil
}

// baselineRow mirrors the analytics_baseline table.
type baselineRow struct {
	Contacts       int   `db:"contacts"`
	PortfolioItems int   `db:"portfolio_items"`
	PageVisits     int   `db:"page_visits"`
	RecordedAt     int64 `db:"recorded_at"`
}

// LoadBaseline returns the previous analytics totals, or nil when none
// have been recorded.
func (s *SQLiteStore) LoadBaseline(ctx context.Context) (*model.AnalyticsSnapshot, error) {
	var row baselineRow
	err := s.db.GetContext(ctx, &row, `
		SELECT contacts, portfolio_items, page_visits, recorded_at
		FROM analytics_baseline WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading analytics baseline: %w", err)
	}

	return &model.AnalyticsSnapshot{
		Contacts:       row.Contacts,
		PortfolioItems: row.PortfolioItems,
		PageVisits:     row.PageVisits,
		RecordedAt:     fromUnixNano(row.RecordedAt),
	}, nil
}

// SaveBaseline overwrites the analytics baseline.
func (s *SQLiteStore) SaveBaseline(ctx context.Context, snap model.AnalyticsSnapshot) error {
	recordedAt := snap.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analytics_baseline (
			id, contacts, portfolio_items, page_visits, recorded_at
		) VALUES (1, ?, ?, ?, ?)`,
		snap.Contacts, snap.PortfolioItems, snap.PageVisits,
		recordedAt.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving analytics baseline: %w", err)
	}
	return nil
}

// toUnixNano converts t for storage; the zero time is stored as 0.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

// fromUnixNano converts a stored timestamp back to a UTC time.
func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

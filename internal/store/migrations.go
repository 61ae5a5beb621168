package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// Timestamps are stored as UTC unix nanoseconds.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	resource_type TEXT PRIMARY KEY,
	items         TEXT NOT NULL DEFAULT '[]',
	updated_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id        TEXT PRIMARY KEY,
	position  INTEGER NOT NULL,
	type      TEXT NOT NULL,
	title     TEXT NOT NULL,
	message   TEXT NOT NULL DEFAULT '',
	icon      TEXT NOT NULL DEFAULT '',
	data      TEXT NOT NULL DEFAULT '',
	read      INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_position ON notifications(position);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS analytics_baseline (
	id              INTEGER PRIMARY KEY CHECK(id = 1),
	contacts        INTEGER NOT NULL DEFAULT 0,
	portfolio_items INTEGER NOT NULL DEFAULT 0,
	page_visits     INTEGER NOT NULL DEFAULT 0,
	recorded_at     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS local_state (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

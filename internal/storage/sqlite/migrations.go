package sqlite

import (
	"database/sql"
	"fmt"
)

// currentSchemaVersion is stored in PRAGMA user_version after migrations.
const currentSchemaVersion = 1

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
const schema = `
CREATE TABLE IF NOT EXISTS memberships (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'member')),
    active INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- A group has at most one session accepting items or being computed.
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open
    ON sessions(group_id) WHERE status IN ('OPEN', 'PROCESSING');

CREATE TABLE IF NOT EXISTS order_items (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    requested_by TEXT NOT NULL,
    label TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity >= 1),
    options TEXT NOT NULL DEFAULT '[]',
    raw_text TEXT NOT NULL DEFAULT '',
    price TEXT,
    price_confirmed INTEGER NOT NULL DEFAULT 0,
    paid_by TEXT NOT NULL DEFAULT '[]',
    active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL UNIQUE,
    computed_by TEXT NOT NULL,
    total_amount TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE TABLE IF NOT EXISTS settlement_transactions (
    id TEXT PRIMARY KEY,
    settlement_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    amount TEXT NOT NULL,
    status TEXT NOT NULL,
    paid_at INTEGER,
    confirmed_by TEXT,
    UNIQUE (settlement_id, ordinal),
    FOREIGN KEY (settlement_id) REFERENCES settlements(id)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    group_id TEXT NOT NULL,
    entry_type TEXT NOT NULL,
    amount TEXT NOT NULL,
    description TEXT NOT NULL,
    order_item_id TEXT,
    settlement_id TEXT,
    metadata TEXT NOT NULL,
    period TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TRIGGER IF NOT EXISTS ledger_entries_no_update
BEFORE UPDATE ON ledger_entries
BEGIN
    SELECT RAISE(ABORT, 'ledger entries are append-only');
END;

CREATE TRIGGER IF NOT EXISTS ledger_entries_no_delete
BEFORE DELETE ON ledger_entries
BEGIN
    SELECT RAISE(ABORT, 'ledger entries are append-only');
END;

CREATE TABLE IF NOT EXISTS ledger_monthly_totals (
    user_id TEXT NOT NULL,
    period TEXT NOT NULL,
    entry_type TEXT NOT NULL,
    total TEXT NOT NULL,
    entry_count INTEGER NOT NULL,
    PRIMARY KEY (user_id, period, entry_type)
);

CREATE INDEX IF NOT EXISTS idx_memberships_group_id ON memberships(group_id);
CREATE INDEX IF NOT EXISTS idx_order_items_session_id ON order_items(session_id);
CREATE INDEX IF NOT EXISTS idx_settlement_transactions_settlement_id ON settlement_transactions(settlement_id);
CREATE INDEX IF NOT EXISTS idx_settlement_transactions_from ON settlement_transactions(from_user_id, status);
CREATE INDEX IF NOT EXISTS idx_settlement_transactions_to ON settlement_transactions(to_user_id, status);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_created ON ledger_entries(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_type_period ON ledger_entries(user_id, entry_type, period);
`

// runMigrations executes the schema setup and records the schema version.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// currentSchemaVersion is recorded in schema_version after migrations.
const currentSchemaVersion = 1

// schema is idempotent and runs on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memberships (
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK (role IN ('admin', 'member')),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    created_by TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

-- A group has at most one session accepting items or being computed.
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_open
    ON sessions(group_id) WHERE status IN ('OPEN', 'PROCESSING');

CREATE TABLE IF NOT EXISTS order_items (
    seq BIGINT GENERATED ALWAYS AS IDENTITY,
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    requested_by TEXT NOT NULL,
    label TEXT NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity >= 1),
    options JSONB NOT NULL DEFAULT '[]',
    raw_text TEXT NOT NULL DEFAULT '',
    price NUMERIC(14, 2),
    price_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    paid_by JSONB NOT NULL DEFAULT '[]',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL UNIQUE REFERENCES sessions(id),
    computed_by TEXT NOT NULL,
    total_amount NUMERIC(14, 2) NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settlement_transactions (
    id TEXT PRIMARY KEY,
    settlement_id TEXT NOT NULL REFERENCES settlements(id),
    ordinal INTEGER NOT NULL,
    from_user_id TEXT NOT NULL,
    to_user_id TEXT NOT NULL,
    amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
    status TEXT NOT NULL,
    paid_at TIMESTAMPTZ,
    confirmed_by TEXT,
    UNIQUE (settlement_id, ordinal)
);

CREATE TABLE IF NOT EXISTS ledger_entries (
    seq BIGINT GENERATED ALWAYS AS IDENTITY,
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    group_id TEXT NOT NULL,
    entry_type TEXT NOT NULL,
    amount NUMERIC(14, 2) NOT NULL,
    description TEXT NOT NULL,
    order_item_id TEXT,
    settlement_id TEXT,
    metadata JSONB NOT NULL,
    period TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE OR REPLACE FUNCTION ledger_entries_append_only() RETURNS trigger AS $$
BEGIN
    RAISE EXCEPTION 'ledger entries are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS ledger_entries_no_update ON ledger_entries;
CREATE TRIGGER ledger_entries_no_update
    BEFORE UPDATE ON ledger_entries
    FOR EACH ROW EXECUTE FUNCTION ledger_entries_append_only();

DROP TRIGGER IF EXISTS ledger_entries_no_delete ON ledger_entries;
CREATE TRIGGER ledger_entries_no_delete
    BEFORE DELETE ON ledger_entries
    FOR EACH ROW EXECUTE FUNCTION ledger_entries_append_only();

CREATE TABLE IF NOT EXISTS ledger_monthly_totals (
    user_id TEXT NOT NULL,
    period TEXT NOT NULL,
    entry_type TEXT NOT NULL,
    total NUMERIC(14, 2) NOT NULL,
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

// runMigrations applies the schema and records the schema version. Startup
// of several replicas is serialized with an advisory lock.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	const lockID = 7_406_111
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", lockID)

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	err = conn.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := conn.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", currentSchemaVersion); err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
	}
	return nil
}

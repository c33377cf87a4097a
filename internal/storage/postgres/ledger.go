package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/ledger"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

const entryColumns = `id, user_id, session_id, group_id, entry_type, amount::text, description,
	order_item_id, settlement_id, metadata::text, created_at`

// insertEntries appends ledger entries and folds them into the monthly
// rollup inside the caller's transaction.
func insertEntries(ctx context.Context, tx pgx.Tx, entries []models.LedgerEntry) error {
	batch := &pgx.Batch{}
	for i := range entries {
		e := &entries[i]
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return apperr.Persistence("encode entry metadata", err)
		}
		batch.Queue(
			`INSERT INTO ledger_entries (id, user_id, session_id, group_id, entry_type, amount, description,
			                             order_item_id, settlement_id, metadata, period, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10::jsonb, $11, $12)`,
			e.ID, e.UserID, e.SessionID, e.GroupID, e.Type, formatAmount(e.Amount), e.Description,
			nullIfEmpty(e.OrderItemID), nullIfEmpty(e.SettlementID), string(metadata), e.Period(), e.CreatedAt,
		)
	}

	for key, r := range ledger.Rollups(entries) {
		batch.Queue(
			`INSERT INTO ledger_monthly_totals (user_id, period, entry_type, total, entry_count)
			 VALUES ($1, $2, $3, $4::numeric, $5)
			 ON CONFLICT (user_id, period, entry_type) DO UPDATE
			 SET total = ledger_monthly_totals.total + excluded.total,
			     entry_count = ledger_monthly_totals.entry_count + excluded.entry_count`,
			key.UserID, key.Period, key.Type, formatAmount(r.Total), r.Count,
		)
	}

	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperr.Persistence("insert ledger entries", err)
	}
	return nil
}

// ListUserEntries returns one page of the user's entries, newest first.
func (s *PostgresStore) ListUserEntries(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1", userID,
	).Scan(&total); err != nil {
		return nil, 0, apperr.Persistence("count ledger entries", err)
	}

	entries, err := s.queryEntries(ctx,
		"SELECT "+entryColumns+` FROM ledger_entries WHERE user_id = $1
		 ORDER BY created_at DESC, seq DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListUserEntriesSince returns the user's entries of one type from
// fromPeriod onwards, oldest first.
func (s *PostgresStore) ListUserEntriesSince(ctx context.Context, userID string, entryType models.EntryType, fromPeriod string) ([]models.LedgerEntry, error) {
	return s.queryEntries(ctx,
		"SELECT "+entryColumns+` FROM ledger_entries
		 WHERE user_id = $1 AND entry_type = $2 AND period >= $3
		 ORDER BY created_at, seq`,
		userID, entryType, fromPeriod,
	)
}

// MonthlyTotals reads the user's rollup rows from fromPeriod onwards.
func (s *PostgresStore) MonthlyTotals(ctx context.Context, userID, fromPeriod string) ([]storage.MonthlyTotal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, period, entry_type, total::text, entry_count FROM ledger_monthly_totals
		 WHERE user_id = $1 AND period >= $2 ORDER BY period, entry_type`,
		userID, fromPeriod,
	)
	if err != nil {
		return nil, apperr.Persistence("list monthly totals", err)
	}
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.MonthlyTotal, error) {
		var m storage.MonthlyTotal
		var total string
		if err := row.Scan(&m.UserID, &m.Period, &m.Type, &total, &m.EntryCount); err != nil {
			return m, err
		}
		var err error
		m.Total, err = parseAmount(total)
		return m, err
	})
	if err != nil {
		return nil, apperr.Persistence("scan monthly totals", err)
	}
	return totals, nil
}

func (s *PostgresStore) queryEntries(ctx context.Context, query string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence("list ledger entries", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, apperr.Persistence("scan ledger entries", err)
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	var amount, metadata string
	var orderItemID, settlementID *string

	if err := row.Scan(&e.ID, &e.UserID, &e.SessionID, &e.GroupID, &e.Type, &amount, &e.Description,
		&orderItemID, &settlementID, &metadata, &e.CreatedAt); err != nil {
		return e, err
	}

	var err error
	if e.Amount, err = parseAmount(amount); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
		return e, err
	}
	e.OrderItemID = derefString(orderItemID)
	e.SettlementID = derefString(settlementID)
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

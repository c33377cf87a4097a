package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/ledger"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

const entryColumns = `id, user_id, session_id, group_id, entry_type, amount, description,
	order_item_id, settlement_id, metadata, created_at`

// insertEntries appends ledger entries and folds them into the monthly
// rollup. It only runs inside the transaction of the state change the
// entries document.
func insertEntries(ctx context.Context, tx *sql.Tx, entries []models.LedgerEntry) error {
	for i := range entries {
		e := &entries[i]
		metadata, err := marshalJSON(e.Metadata)
		if err != nil {
			return apperr.Persistence("encode entry metadata", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (`+entryColumns+`, period)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.SessionID, e.GroupID, e.Type, formatAmount(e.Amount), e.Description,
			nullIfEmpty(e.OrderItemID), nullIfEmpty(e.SettlementID), metadata, toMillis(e.CreatedAt),
			e.Period(),
		)
		if err != nil {
			return apperr.Persistence("insert ledger entry", err)
		}
	}

	for key, r := range ledger.Rollups(entries) {
		if err := addToRollup(ctx, tx, key, r); err != nil {
			return err
		}
	}
	return nil
}

func addToRollup(ctx context.Context, tx *sql.Tx, key ledger.RollupKey, r ledger.Rollup) error {
	total := r.Total
	count := r.Count

	var existing string
	var existingCount int
	err := tx.QueryRowContext(ctx,
		`SELECT total, entry_count FROM ledger_monthly_totals
		 WHERE user_id = ? AND period = ? AND entry_type = ?`,
		key.UserID, key.Period, key.Type,
	).Scan(&existing, &existingCount)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return apperr.Persistence("read monthly total", err)
	default:
		prev, err := parseAmount(existing)
		if err != nil {
			return apperr.Persistence("read monthly total", err)
		}
		total = total.Add(prev)
		count += existingCount
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_monthly_totals (user_id, period, entry_type, total, entry_count)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, period, entry_type)
		 DO UPDATE SET total = excluded.total, entry_count = excluded.entry_count`,
		key.UserID, key.Period, key.Type, formatAmount(total), count,
	)
	if err != nil {
		return apperr.Persistence("update monthly total", err)
	}
	return nil
}

// ListUserEntries returns one page of the user's entries, newest first.
func (s *SQLiteStore) ListUserEntries(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE user_id = ?", userID,
	).Scan(&total); err != nil {
		return nil, 0, apperr.Persistence("count ledger entries", err)
	}

	entries, err := s.queryEntries(ctx,
		"SELECT "+entryColumns+` FROM ledger_entries WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListUserEntriesSince returns the user's entries of one type from
// fromPeriod onwards, oldest first.
func (s *SQLiteStore) ListUserEntriesSince(ctx context.Context, userID string, entryType models.EntryType, fromPeriod string) ([]models.LedgerEntry, error) {
	return s.queryEntries(ctx,
		"SELECT "+entryColumns+` FROM ledger_entries
		 WHERE user_id = ? AND entry_type = ? AND period >= ?
		 ORDER BY created_at, rowid`,
		userID, entryType, fromPeriod,
	)
}

// MonthlyTotals reads the user's rollup rows from fromPeriod onwards.
func (s *SQLiteStore) MonthlyTotals(ctx context.Context, userID, fromPeriod string) ([]storage.MonthlyTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, period, entry_type, total, entry_count FROM ledger_monthly_totals
		 WHERE user_id = ? AND period >= ? ORDER BY period, entry_type`,
		userID, fromPeriod,
	)
	if err != nil {
		return nil, apperr.Persistence("list monthly totals", err)
	}
	defer rows.Close()

	var totals []storage.MonthlyTotal
	for rows.Next() {
		var m storage.MonthlyTotal
		var total string
		if err := rows.Scan(&m.UserID, &m.Period, &m.Type, &total, &m.EntryCount); err != nil {
			return nil, apperr.Persistence("scan monthly total", err)
		}
		if m.Total, err = parseAmount(total); err != nil {
			return nil, apperr.Persistence("scan monthly total", err)
		}
		totals = append(totals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate monthly totals", err)
	}
	return totals, nil
}

func (s *SQLiteStore) queryEntries(ctx context.Context, query string, args ...any) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Persistence("list ledger entries", err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperr.Persistence("scan ledger entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate ledger entries", err)
	}
	return entries, nil
}

func scanEntry(row rowScanner) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{}
	var amount, metadata string
	var orderItemID, settlementID sql.NullString
	var createdAt int64

	if err := row.Scan(&e.ID, &e.UserID, &e.SessionID, &e.GroupID, &e.Type, &amount, &e.Description,
		&orderItemID, &settlementID, &metadata, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if e.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
		return nil, err
	}
	e.OrderItemID = orderItemID.String
	e.SettlementID = settlementID.String
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

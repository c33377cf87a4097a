package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// SaveSettlement writes the ledger entries, the settlement, its transactions
// and the PROCESSING -> SETTLED transition in one transaction.
func (s *SQLiteStore) SaveSettlement(ctx context.Context, settlement *models.Settlement, entries []models.LedgerEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertEntries(ctx, tx, entries); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, session_id, computed_by, total_amount, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, settlement.SessionID, settlement.ComputedBy, formatAmount(settlement.TotalAmount),
			settlement.Status, toMillis(settlement.CreatedAt), toMillis(settlement.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return apperr.ErrSettlementExists
		}
		if err != nil {
			return apperr.Persistence("insert settlement", err)
		}

		for i := range settlement.Transactions {
			t := &settlement.Transactions[i]
			_, err := tx.ExecContext(ctx,
				`INSERT INTO settlement_transactions (id, settlement_id, ordinal, from_user_id, to_user_id, amount, status)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				t.ID, settlement.ID, t.Ordinal, t.From, t.To, formatAmount(t.Amount), t.Status,
			)
			if err != nil {
				return apperr.Persistence("insert settlement transaction", err)
			}
		}

		return transitionSession(ctx, tx, settlement.SessionID, models.SessionProcessing, settlement.SessionStatus())
	})
}

// ConfirmTransaction marks one transaction PAID, writes its ledger entries
// and completes the settlement and session when nothing is left PENDING.
func (s *SQLiteStore) ConfirmTransaction(ctx context.Context, c models.Confirmation) (bool, error) {
	completed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE settlement_transactions SET status = ?, paid_at = ?, confirmed_by = ?
			 WHERE id = ? AND settlement_id = ? AND status = ?`,
			models.TransactionPaid, toMillis(c.PaidAt), c.ConfirmedBy,
			c.TransactionID, c.SettlementID, models.TransactionPending,
		)
		if err != nil {
			return apperr.Persistence("confirm transaction", err)
		}
		if err := expectOneRow(res, "confirm transaction", apperr.ErrAlreadyConfirmed); err != nil {
			if !errors.Is(err, apperr.ErrAlreadyConfirmed) {
				return err
			}
			var status string
			lookupErr := tx.QueryRowContext(ctx,
				"SELECT status FROM settlement_transactions WHERE id = ? AND settlement_id = ?",
				c.TransactionID, c.SettlementID,
			).Scan(&status)
			if errors.Is(lookupErr, sql.ErrNoRows) {
				return apperr.ErrTransactionNotFound
			}
			if lookupErr != nil {
				return apperr.Persistence("get transaction", lookupErr)
			}
			return err
		}

		if err := insertEntries(ctx, tx, c.Entries); err != nil {
			return err
		}

		var pending int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM settlement_transactions WHERE settlement_id = ? AND status = ?",
			c.SettlementID, models.TransactionPending,
		).Scan(&pending); err != nil {
			return apperr.Persistence("count pending transactions", err)
		}

		now := toMillis(c.PaidAt)
		if pending > 0 {
			if _, err := tx.ExecContext(ctx,
				"UPDATE settlements SET updated_at = ? WHERE id = ?", now, c.SettlementID,
			); err != nil {
				return apperr.Persistence("touch settlement", err)
			}
			return nil
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE settlements SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
			models.SettlementCompleted, now, c.SettlementID, models.SettlementActive,
		)
		if err != nil {
			return apperr.Persistence("complete settlement", err)
		}
		if err := expectOneRow(res, "complete settlement", apperr.ErrStatusMismatch); err != nil {
			return err
		}
		if err := transitionSession(ctx, tx, c.SessionID, models.SessionSettled, models.SessionCompleted); err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

// GetSettlement retrieves a settlement with its transactions.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return s.getSettlement(ctx, "id", settlementID)
}

// GetSettlementBySession retrieves the settlement of a session.
func (s *SQLiteStore) GetSettlementBySession(ctx context.Context, sessionID string) (*models.Settlement, error) {
	return s.getSettlement(ctx, "session_id", sessionID)
}

func (s *SQLiteStore) getSettlement(ctx context.Context, column, value string) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var total string
	var createdAt, updatedAt int64

	// column is one of two constants chosen by the callers above
	err := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, computed_by, total_amount, status, created_at, updated_at
		 FROM settlements WHERE `+column+` = ?`,
		value,
	).Scan(&settlement.ID, &settlement.SessionID, &settlement.ComputedBy, &total,
		&settlement.Status, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSettlementNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get settlement", err)
	}

	if settlement.TotalAmount, err = parseAmount(total); err != nil {
		return nil, apperr.Persistence("get settlement", err)
	}
	settlement.CreatedAt = fromMillis(createdAt)
	settlement.UpdatedAt = fromMillis(updatedAt)

	settlement.Transactions, err = s.listTransactions(ctx, settlement.ID)
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *SQLiteStore) listTransactions(ctx context.Context, settlementID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, settlement_id, ordinal, from_user_id, to_user_id, amount, status, paid_at, confirmed_by
		 FROM settlement_transactions WHERE settlement_id = ? ORDER BY ordinal`,
		settlementID,
	)
	if err != nil {
		return nil, apperr.Persistence("list transactions", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, apperr.Persistence("scan transaction", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate transactions", err)
	}
	return txs, nil
}

func scanTransaction(row rowScanner, extra ...any) (*models.Transaction, error) {
	t := &models.Transaction{}
	var amount string
	var paidAt sql.NullInt64
	var confirmedBy sql.NullString

	dest := append([]any{&t.ID, &t.SettlementID, &t.Ordinal, &t.From, &t.To, &amount, &t.Status,
		&paidAt, &confirmedBy}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return nil, err
	}
	if paidAt.Valid {
		at := fromMillis(paidAt.Int64)
		t.PaidAt = &at
	}
	t.ConfirmedBy = confirmedBy.String
	return t, nil
}

// ListUserSettlements returns settlements the user takes part in, newest first.
func (s *SQLiteStore) ListUserSettlements(ctx context.Context, userID string, status models.SettlementStatus) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM settlements
		 WHERE id IN (SELECT settlement_id FROM settlement_transactions WHERE from_user_id = ? OR to_user_id = ?)
		   AND (? = '' OR status = ?)
		 ORDER BY created_at DESC, id`,
		userID, userID, status, status,
	)
	if err != nil {
		return nil, apperr.Persistence("list user settlements", err)
	}

	// Collect IDs first: the pool has one connection, so rows must be closed
	// before loading each settlement.
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, apperr.Persistence("scan settlement id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate user settlements", err)
	}

	settlements := make([]*models.Settlement, 0, len(ids))
	for _, id := range ids {
		st, err := s.GetSettlement(ctx, id)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, st)
	}
	return settlements, nil
}

// ListPendingTransactions returns the user's unpaid transactions of ACTIVE
// settlements, oldest settlement first.
func (s *SQLiteStore) ListPendingTransactions(ctx context.Context, userID string) ([]storage.PendingTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.settlement_id, t.ordinal, t.from_user_id, t.to_user_id, t.amount, t.status,
		        t.paid_at, t.confirmed_by, st.session_id, se.group_id
		 FROM settlement_transactions t
		 JOIN settlements st ON st.id = t.settlement_id
		 JOIN sessions se ON se.id = st.session_id
		 WHERE t.status = ? AND st.status = ? AND (t.from_user_id = ? OR t.to_user_id = ?)
		 ORDER BY st.created_at, t.ordinal`,
		models.TransactionPending, models.SettlementActive, userID, userID,
	)
	if err != nil {
		return nil, apperr.Persistence("list pending transactions", err)
	}
	defer rows.Close()

	var pending []storage.PendingTransaction
	for rows.Next() {
		var p storage.PendingTransaction
		t, err := scanTransaction(rows, &p.SessionID, &p.GroupID)
		if err != nil {
			return nil, apperr.Persistence("scan pending transaction", err)
		}
		p.Transaction = *t
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate pending transactions", err)
	}
	return pending, nil
}

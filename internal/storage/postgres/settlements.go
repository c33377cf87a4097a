package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

const transactionColumns = `t.id, t.settlement_id, t.ordinal, t.from_user_id, t.to_user_id,
	t.amount::text, t.status, t.paid_at, t.confirmed_by`

// SaveSettlement writes the ledger entries, the settlement, its transactions
// and the PROCESSING -> SETTLED transition in one transaction.
func (s *PostgresStore) SaveSettlement(ctx context.Context, settlement *models.Settlement, entries []models.LedgerEntry) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := insertEntries(ctx, tx, entries); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO settlements (id, session_id, computed_by, total_amount, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)`,
			settlement.ID, settlement.SessionID, settlement.ComputedBy, formatAmount(settlement.TotalAmount),
			settlement.Status, settlement.CreatedAt, settlement.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return apperr.ErrSettlementExists
		}
		if err != nil {
			return apperr.Persistence("insert settlement", err)
		}

		if len(settlement.Transactions) > 0 {
			batch := &pgx.Batch{}
			for _, t := range settlement.Transactions {
				batch.Queue(
					`INSERT INTO settlement_transactions (id, settlement_id, ordinal, from_user_id, to_user_id, amount, status)
					 VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
					t.ID, settlement.ID, t.Ordinal, t.From, t.To, formatAmount(t.Amount), t.Status,
				)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return apperr.Persistence("insert settlement transactions", err)
			}
		}

		return transitionSession(ctx, tx, settlement.SessionID, models.SessionProcessing, settlement.SessionStatus())
	})
}

// ConfirmTransaction marks one transaction PAID, writes its ledger entries
// and completes the settlement and session when nothing is left PENDING.
//
// The settlement row is locked first so confirmations of sibling
// transactions see each other's writes in the completion check.
func (s *PostgresStore) ConfirmTransaction(ctx context.Context, c models.Confirmation) (bool, error) {
	completed := false
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx,
			"SELECT id FROM settlements WHERE id = $1 FOR UPDATE", c.SettlementID,
		).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.ErrSettlementNotFound
		}
		if err != nil {
			return apperr.Persistence("lock settlement", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE settlement_transactions SET status = $1, paid_at = $2, confirmed_by = $3
			 WHERE id = $4 AND settlement_id = $5 AND status = $6`,
			models.TransactionPaid, c.PaidAt, c.ConfirmedBy,
			c.TransactionID, c.SettlementID, models.TransactionPending,
		)
		if err != nil {
			return apperr.Persistence("confirm transaction", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM settlement_transactions WHERE id = $1 AND settlement_id = $2)",
				c.TransactionID, c.SettlementID,
			).Scan(&exists); err != nil {
				return apperr.Persistence("get transaction", err)
			}
			if !exists {
				return apperr.ErrTransactionNotFound
			}
			return apperr.ErrAlreadyConfirmed
		}

		if err := insertEntries(ctx, tx, c.Entries); err != nil {
			return err
		}

		var pending int
		if err := tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM settlement_transactions WHERE settlement_id = $1 AND status = $2",
			c.SettlementID, models.TransactionPending,
		).Scan(&pending); err != nil {
			return apperr.Persistence("count pending transactions", err)
		}

		if pending > 0 {
			if _, err := tx.Exec(ctx,
				"UPDATE settlements SET updated_at = $1 WHERE id = $2", c.PaidAt, c.SettlementID,
			); err != nil {
				return apperr.Persistence("touch settlement", err)
			}
			return nil
		}

		tag, err = tx.Exec(ctx,
			"UPDATE settlements SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4",
			models.SettlementCompleted, c.PaidAt, c.SettlementID, models.SettlementActive,
		)
		if err != nil {
			return apperr.Persistence("complete settlement", err)
		}
		if err := expectOneRow(tag, apperr.ErrStatusMismatch); err != nil {
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
func (s *PostgresStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	return s.getSettlement(ctx, "id", settlementID)
}

// GetSettlementBySession retrieves the settlement of a session.
func (s *PostgresStore) GetSettlementBySession(ctx context.Context, sessionID string) (*models.Settlement, error) {
	return s.getSettlement(ctx, "session_id", sessionID)
}

func (s *PostgresStore) getSettlement(ctx context.Context, column, value string) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var total string

	// column is one of two constants chosen by the callers above
	err := s.pool.QueryRow(ctx,
		`SELECT id, session_id, computed_by, total_amount::text, status, created_at, updated_at
		 FROM settlements WHERE `+column+` = $1`,
		value,
	).Scan(&settlement.ID, &settlement.SessionID, &settlement.ComputedBy, &total,
		&settlement.Status, &settlement.CreatedAt, &settlement.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrSettlementNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get settlement", err)
	}

	if settlement.TotalAmount, err = parseAmount(total); err != nil {
		return nil, apperr.Persistence("get settlement", err)
	}
	settlement.CreatedAt = settlement.CreatedAt.UTC()
	settlement.UpdatedAt = settlement.UpdatedAt.UTC()

	rows, err := s.pool.Query(ctx,
		"SELECT "+transactionColumns+" FROM settlement_transactions t WHERE t.settlement_id = $1 ORDER BY t.ordinal",
		settlement.ID,
	)
	if err != nil {
		return nil, apperr.Persistence("list transactions", err)
	}
	settlement.Transactions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, apperr.Persistence("scan transactions", err)
	}
	if settlement.Transactions == nil {
		settlement.Transactions = []models.Transaction{}
	}
	return settlement, nil
}

func scanTransaction(row pgx.Row, extra ...any) (models.Transaction, error) {
	var t models.Transaction
	var amount string
	var paidAt *time.Time
	var confirmedBy *string

	dest := append([]any{&t.ID, &t.SettlementID, &t.Ordinal, &t.From, &t.To, &amount, &t.Status,
		&paidAt, &confirmedBy}, extra...)
	if err := row.Scan(dest...); err != nil {
		return t, err
	}

	var err error
	if t.Amount, err = parseAmount(amount); err != nil {
		return t, err
	}
	if paidAt != nil {
		at := paidAt.UTC()
		t.PaidAt = &at
	}
	t.ConfirmedBy = derefString(confirmedBy)
	return t, nil
}

// ListUserSettlements returns settlements the user takes part in, newest first.
func (s *PostgresStore) ListUserSettlements(ctx context.Context, userID string, status models.SettlementStatus) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM settlements
		 WHERE id IN (SELECT settlement_id FROM settlement_transactions WHERE from_user_id = $1 OR to_user_id = $1)
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id`,
		userID, string(status),
	)
	if err != nil {
		return nil, apperr.Persistence("list user settlements", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperr.Persistence("scan settlement ids", err)
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
func (s *PostgresStore) ListPendingTransactions(ctx context.Context, userID string) ([]storage.PendingTransaction, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+transactionColumns+`, st.session_id, se.group_id
		 FROM settlement_transactions t
		 JOIN settlements st ON st.id = t.settlement_id
		 JOIN sessions se ON se.id = st.session_id
		 WHERE t.status = $1 AND st.status = $2 AND (t.from_user_id = $3 OR t.to_user_id = $3)
		 ORDER BY st.created_at, t.ordinal`,
		models.TransactionPending, models.SettlementActive, userID,
	)
	if err != nil {
		return nil, apperr.Persistence("list pending transactions", err)
	}
	pending, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (storage.PendingTransaction, error) {
		var p storage.PendingTransaction
		t, err := scanTransaction(row, &p.SessionID, &p.GroupID)
		p.Transaction = t
		return p, err
	})
	if err != nil {
		return nil, apperr.Persistence("scan pending transactions", err)
	}
	return pending, nil
}

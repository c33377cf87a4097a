package settlement

import (
	"context"
	"log/slog"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/metrics"
	"github.com/mmynk/tabsettle/internal/models"
)

// ConfirmTransaction records that the receiver of a transaction got paid.
//
// Only the receiver (transaction.To) may confirm. The PENDING -> PAID
// transition, the paired SETTLEMENT_OUT/SETTLEMENT_IN ledger entries and the
// completion check run in one store transaction, so two concurrent confirms
// of the same transaction cannot both succeed. When the last transaction is
// paid the settlement and the session both become COMPLETED.
func (e *Engine) ConfirmTransaction(ctx context.Context, settlementID, transactionID, confirmerID string) (*models.Settlement, error) {
	settlement, err := e.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	tx := settlement.Transaction(transactionID)
	if tx == nil {
		e.metrics.TransactionConfirmed(metrics.OutcomeRejected)
		return nil, apperr.ErrTransactionNotFound
	}
	if tx.To != confirmerID {
		e.metrics.TransactionConfirmed(metrics.OutcomeRejected)
		return nil, apperr.ErrNotReceiver
	}
	if tx.Status == models.TransactionPaid {
		e.metrics.TransactionConfirmed(metrics.OutcomeRejected)
		return nil, apperr.ErrAlreadyConfirmed
	}

	session, err := e.store.GetSession(ctx, settlement.SessionID)
	if err != nil {
		return nil, err
	}

	paidAt := e.recorder.Now()
	completed, err := e.store.ConfirmTransaction(ctx, models.Confirmation{
		SettlementID:  settlement.ID,
		SessionID:     session.ID,
		TransactionID: tx.ID,
		ConfirmedBy:   confirmerID,
		PaidAt:        paidAt,
		Entries:       e.recorder.TransactionEntries(session, settlement.ID, tx),
	})
	if err != nil {
		if apperr.IsPersistence(err) {
			e.metrics.TransactionConfirmed(metrics.OutcomeFailed)
		} else {
			e.metrics.TransactionConfirmed(metrics.OutcomeRejected)
		}
		return nil, err
	}
	e.metrics.TransactionConfirmed(metrics.OutcomeSuccess)

	slog.Info("Transaction confirmed",
		"settlement_id", settlement.ID,
		"transaction_id", tx.ID,
		"from", tx.From,
		"to", tx.To,
		"amount", tx.Amount.StringFixed(2),
		"completed", completed,
	)

	updated, err := e.store.GetSettlement(ctx, settlement.ID)
	if err != nil {
		// The confirmation is committed; report it from what we already know.
		slog.Warn("Failed to reload settlement after confirmation",
			"settlement_id", settlement.ID,
			"error", err,
		)
		tx.Status = models.TransactionPaid
		tx.PaidAt = &paidAt
		tx.ConfirmedBy = confirmerID
		if completed {
			settlement.Status = models.SettlementCompleted
		}
		updated = settlement
	}

	e.publish(ctx, events.Event{
		Kind:          events.KindPaymentConfirmed,
		GroupID:       session.GroupID,
		SessionID:     session.ID,
		Settlement:    updated,
		TransactionID: tx.ID,
		Completed:     completed,
		At:            paidAt,
	})

	return updated, nil
}

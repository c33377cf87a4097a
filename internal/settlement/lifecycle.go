// Package settlement drives a billing session from OPEN to SETTLED to
// COMPLETED.
//
// State machine:
//
//	OPEN -> PROCESSING -> SETTLED -> COMPLETED
//	PROCESSING -> COMPLETED (plan without transactions)
//	PROCESSING -> OPEN (rollback after a failed computation)
//
// Every transition is a compare-and-set on the session status performed by
// the store, so concurrent requests for the same session cannot both
// proceed. CANCELLED exists in the status enum but nothing moves into it.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/ledger"
	"github.com/mmynk/tabsettle/internal/metrics"
	"github.com/mmynk/tabsettle/internal/models"
)

// Engine computes and confirms settlements.
type Engine struct {
	store     Store
	recorder  *ledger.Recorder
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the ledger recorder (and with it the clock and ID source).
func WithRecorder(r *ledger.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithPublisher sets where lifecycle events go.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine on top of the given store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		recorder:  ledger.NewRecorder(),
		publisher: events.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeSettlement turns the session's priced items into a settlement plan.
//
// Preconditions, checked before any state changes: the session exists, the
// requester is an active admin of the owning group, no settlement exists yet
// and the session is OPEN. The session is then claimed with OPEN ->
// PROCESSING; losing that race yields apperr.ErrSettlementInProgress.
//
// Any failure after the claim moves the session back to OPEN before the
// error is returned.
func (e *Engine) ComputeSettlement(ctx context.Context, sessionID, requesterID string) (*models.Settlement, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := e.requireAdmin(ctx, session.GroupID, requesterID); err != nil {
		e.metrics.SettlementComputed(metrics.OutcomeRejected, 0)
		return nil, err
	}

	if err := e.checkSettleable(ctx, session); err != nil {
		e.metrics.SettlementComputed(metrics.OutcomeRejected, 0)
		return nil, err
	}

	if err := e.store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing); err != nil {
		e.metrics.SettlementComputed(metrics.OutcomeRejected, 0)
		if errors.Is(err, apperr.ErrStatusMismatch) {
			return nil, apperr.ErrSettlementInProgress
		}
		return nil, err
	}
	session.Status = models.SessionProcessing

	settlement, err := e.settle(ctx, session, requesterID)
	if err != nil {
		e.metrics.SettlementComputed(metrics.OutcomeFailed, 0)
		return nil, e.rollback(ctx, session, err)
	}

	e.metrics.SettlementComputed(metrics.OutcomeSuccess, len(settlement.Transactions))
	slog.Info("Settlement computed",
		"session_id", session.ID,
		"settlement_id", settlement.ID,
		"transactions", len(settlement.Transactions),
		"total", settlement.TotalAmount.StringFixed(2),
	)

	e.publish(ctx, events.Event{
		Kind:       events.KindSettlementCalculated,
		GroupID:    session.GroupID,
		SessionID:  session.ID,
		Settlement: settlement,
		At:         settlement.CreatedAt,
	})

	return settlement, nil
}

// GetSettlement returns a settlement by ID to an active member of the
// owning group.
func (e *Engine) GetSettlement(ctx context.Context, settlementID, viewerID string) (*models.Settlement, error) {
	settlement, err := e.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	session, err := e.store.GetSession(ctx, settlement.SessionID)
	if err != nil {
		return nil, err
	}
	if err := e.requireMember(ctx, session.GroupID, viewerID); err != nil {
		return nil, err
	}
	return settlement, nil
}

// GetSessionSettlement returns the settlement of a session to an active
// member of the owning group.
func (e *Engine) GetSessionSettlement(ctx context.Context, sessionID, viewerID string) (*models.Settlement, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := e.requireMember(ctx, session.GroupID, viewerID); err != nil {
		return nil, err
	}
	return e.store.GetSettlementBySession(ctx, sessionID)
}

func (e *Engine) requireMember(ctx context.Context, groupID, userID string) error {
	membership, err := e.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, apperr.ErrMembershipNotFound) {
		return apperr.ErrNotMember
	}
	if err != nil {
		return err
	}
	if !membership.Active {
		return apperr.ErrNotMember
	}
	return nil
}

func (e *Engine) requireAdmin(ctx context.Context, groupID, userID string) error {
	membership, err := e.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, apperr.ErrMembershipNotFound) {
		return apperr.ErrNotGroupAdmin
	}
	if err != nil {
		return err
	}
	if !membership.IsAdmin() {
		return apperr.ErrNotGroupAdmin
	}
	return nil
}

// checkSettleable rejects sessions that already have a settlement or are
// not OPEN.
func (e *Engine) checkSettleable(ctx context.Context, session *models.Session) error {
	_, err := e.store.GetSettlementBySession(ctx, session.ID)
	if err == nil {
		return apperr.ErrSettlementExists
	}
	if !errors.Is(err, apperr.ErrSettlementNotFound) {
		return err
	}

	switch session.Status {
	case models.SessionOpen:
		return nil
	case models.SessionProcessing:
		return apperr.ErrSettlementInProgress
	default:
		return fmt.Errorf("%w: status is %s", apperr.ErrSessionNotOpen, session.Status)
	}
}

// settle runs the computation pipeline for a claimed session and persists
// the result. The ledger entries, the settlement and the SETTLED transition
// are committed together by the store.
func (e *Engine) settle(ctx context.Context, session *models.Session, requesterID string) (*models.Settlement, error) {
	roster, err := e.store.ListActiveMemberIDs(ctx, session.GroupID)
	if err != nil {
		return nil, err
	}

	items, err := e.store.ListActiveItems(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	balances, err := calculator.ComputeBalances(items, roster)
	if err != nil {
		return nil, err
	}

	transfers := calculator.Simplify(balances)
	slog.Debug("Simplified balances",
		"session_id", session.ID,
		"participants", len(balances),
		"transfers", len(transfers),
	)

	// A plan without transfers has nothing to confirm
	status := models.SettlementActive
	if len(transfers) == 0 {
		status = models.SettlementCompleted
	}

	now := e.recorder.Now()
	settlement := &models.Settlement{
		ID:           e.recorder.NewID(),
		SessionID:    session.ID,
		ComputedBy:   requesterID,
		Transactions: make([]models.Transaction, len(transfers)),
		TotalAmount:  calculator.TotalTransferred(transfers),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, t := range transfers {
		settlement.Transactions[i] = models.Transaction{
			ID:           e.recorder.NewID(),
			SettlementID: settlement.ID,
			Ordinal:      i,
			From:         t.From,
			To:           t.To,
			Amount:       t.Amount,
			Status:       models.TransactionPending,
		}
	}

	entries := e.recorder.ItemEntries(session, items)
	if err := e.store.SaveSettlement(ctx, settlement, entries); err != nil {
		return nil, err
	}

	session.Status = settlement.SessionStatus()
	return settlement, nil
}

// rollback returns a claimed session to OPEN and hands back cause. A failed
// rollback is joined onto cause so the caller sees both.
func (e *Engine) rollback(ctx context.Context, session *models.Session, cause error) error {
	// The request context may already be cancelled; the rollback must run anyway.
	rbCtx := context.WithoutCancel(ctx)

	err := e.store.TransitionSession(rbCtx, session.ID, models.SessionProcessing, models.SessionOpen)
	if err != nil {
		slog.Error("Settlement rollback failed",
			"session_id", session.ID,
			"cause", cause,
			"error", err,
		)
		return errors.Join(cause, fmt.Errorf("rollback session %s: %w", session.ID, err))
	}

	session.Status = models.SessionOpen
	e.metrics.SettlementRolledBack()
	slog.Warn("Settlement computation rolled back",
		"session_id", session.ID,
		"error", cause,
	)
	return cause
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish event",
			"kind", event.Kind,
			"session_id", event.SessionID,
			"error", err,
		)
	}
}

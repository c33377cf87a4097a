// Package events publishes settlement lifecycle notifications to
// subscribers such as chat rooms or dashboards.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/tabsettle/internal/models"
)

// Kind names a lifecycle event.
type Kind string

const (
	KindSettlementCalculated Kind = "settlement_calculated"
	KindPaymentConfirmed     Kind = "payment_confirmed"
)

// Event is the payload delivered to subscribers of a group.
type Event struct {
	Kind          Kind               `json:"kind"`
	GroupID       string             `json:"group_id"`
	SessionID     string             `json:"session_id"`
	Settlement    *models.Settlement `json:"settlement,omitempty"`
	TransactionID string             `json:"transaction_id,omitempty"`
	Completed     bool               `json:"completed,omitempty"`
	At            time.Time          `json:"at"`
}

// Publisher delivers events. Publishing happens after the state change is
// committed, so a failed publish never undoes it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default().
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event at INFO level.
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []any{
		"kind", event.Kind,
		"group_id", event.GroupID,
		"session_id", event.SessionID,
	}
	if event.Settlement != nil {
		attrs = append(attrs,
			"settlement_id", event.Settlement.ID,
			"transactions", len(event.Settlement.Transactions),
			"total", event.Settlement.TotalAmount.StringFixed(2),
		)
	}
	if event.TransactionID != "" {
		attrs = append(attrs, "transaction_id", event.TransactionID, "completed", event.Completed)
	}
	p.logger.InfoContext(ctx, "Event published", attrs...)
	return nil
}

// Multi fans an event out to several publishers. Every publisher is called
// even if an earlier one fails.
type Multi []Publisher

// Publish delivers the event to every publisher and joins their errors.
func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Package ledger builds the append-only audit entries for every monetary
// event of a session.
//
// The Recorder only constructs entries. They reach the database through the
// store methods that persist the state change they document (settlement
// creation or transaction confirmation), inside the same database
// transaction. There is no update or delete path for an entry.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// Recorder builds ledger entries with fresh IDs and timestamps.
type Recorder struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithIDs overrides the ID generator (tests).
func WithIDs(newID func() string) Option {
	return func(r *Recorder) { r.newID = newID }
}

// NewRecorder creates a Recorder using the wall clock and random UUIDs.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the recorder's current time.
func (r *Recorder) Now() time.Time {
	return r.now()
}

// NewID returns a fresh identifier from the recorder's generator.
func (r *Recorder) NewID() string {
	return r.newID()
}

// ItemEntries returns one CONSUMPTION entry per settleable item and one
// PAYMENT entry per payer allocation. Items that do not take part in the
// settlement produce nothing.
func (r *Recorder) ItemEntries(session *models.Session, items []models.OrderItem) []models.LedgerEntry {
	at := r.now()
	var entries []models.LedgerEntry

	for i := range items {
		item := &items[i]
		if !item.Settleable() {
			continue
		}
		unitPrice := item.Price.Round(2)

		entries = append(entries, models.LedgerEntry{
			ID:          r.newID(),
			UserID:      item.RequestedBy,
			SessionID:   session.ID,
			GroupID:     session.GroupID,
			Type:        models.EntryConsumption,
			Amount:      item.Total().Round(2),
			Description: fmt.Sprintf("Consumed: %dx %s", item.Quantity, item.Label),
			OrderItemID: item.ID,
			Metadata: models.EntryMetadata{
				ItemName:     item.Label,
				Quantity:     item.Quantity,
				UnitPrice:    &unitPrice,
				RelatedUsers: item.PayerIDs(),
			},
			CreatedAt: at,
		})

		for _, p := range item.PaidBy {
			entries = append(entries, models.LedgerEntry{
				ID:          r.newID(),
				UserID:      p.UserID,
				SessionID:   session.ID,
				GroupID:     session.GroupID,
				Type:        models.EntryPayment,
				Amount:      p.Amount.Round(2),
				Description: fmt.Sprintf("Paid for: %s (%s)", item.Label, item.RequestedBy),
				OrderItemID: item.ID,
				Metadata: models.EntryMetadata{
					ItemName:     item.Label,
					Quantity:     item.Quantity,
					UnitPrice:    &unitPrice,
					RelatedUsers: []string{item.RequestedBy},
				},
				CreatedAt: at,
			})
		}
	}

	return entries
}

// TransactionEntries returns the SETTLEMENT_OUT entry for the payer and the
// SETTLEMENT_IN entry for the receiver of a confirmed transaction.
func (r *Recorder) TransactionEntries(session *models.Session, settlementID string, tx *models.Transaction) []models.LedgerEntry {
	at := r.now()
	amount := tx.Amount.Round(2)

	return []models.LedgerEntry{
		{
			ID:           r.newID(),
			UserID:       tx.From,
			SessionID:    session.ID,
			GroupID:      session.GroupID,
			Type:         models.EntrySettlementOut,
			Amount:       amount,
			Description:  fmt.Sprintf("Settlement payment to %s", tx.To),
			SettlementID: settlementID,
			Metadata:     models.EntryMetadata{RelatedUsers: []string{tx.To}},
			CreatedAt:    at,
		},
		{
			ID:           r.newID(),
			UserID:       tx.To,
			SessionID:    session.ID,
			GroupID:      session.GroupID,
			Type:         models.EntrySettlementIn,
			Amount:       amount,
			Description:  fmt.Sprintf("Settlement received from %s", tx.From),
			SettlementID: settlementID,
			Metadata:     models.EntryMetadata{RelatedUsers: []string{tx.From}},
			CreatedAt:    at,
		},
	}
}

// RollupKey identifies one monthly rollup bucket.
type RollupKey struct {
	UserID string
	Period string
	Type   models.EntryType
}

// Rollup is the running total of one bucket.
type Rollup struct {
	Total decimal.Decimal
	Count int
}

// Rollups sums entry amounts per user, month and type. Stores apply the
// result to the monthly rollup table in the same transaction that inserts
// the entries.
func Rollups(entries []models.LedgerEntry) map[RollupKey]Rollup {
	rollups := make(map[RollupKey]Rollup)
	for _, e := range entries {
		key := RollupKey{UserID: e.UserID, Period: e.Period(), Type: e.Type}
		r := rollups[key]
		r.Total = r.Total.Add(e.Amount)
		r.Count++
		rollups[key] = r
	}
	return rollups
}

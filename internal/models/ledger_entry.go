package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	// EntryConsumption records what a user ordered.
	EntryConsumption EntryType = "CONSUMPTION"
	// EntryPayment records what a user paid towards an item.
	EntryPayment EntryType = "PAYMENT"
	// EntrySettlementIn records money received through a confirmed transaction.
	EntrySettlementIn EntryType = "SETTLEMENT_IN"
	// EntrySettlementOut records money paid through a confirmed transaction.
	EntrySettlementOut EntryType = "SETTLEMENT_OUT"
)

// EntryTypes lists every entry type in reporting order.
var EntryTypes = []EntryType{EntryConsumption, EntryPayment, EntrySettlementIn, EntrySettlementOut}

// EntryMetadata is denormalized so historical reports survive later edits to
// the originating item or settlement.
type EntryMetadata struct {
	ItemName     string           `json:"item_name,omitempty"`
	Quantity     int              `json:"quantity,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	RelatedUsers []string         `json:"related_users,omitempty"`
}

// LedgerEntry is an append-only audit record. Entries are never updated or
// deleted; corrections would be new offsetting entries.
type LedgerEntry struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	SessionID    string          `json:"session_id"`
	GroupID      string          `json:"group_id"`
	Type         EntryType       `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	OrderItemID  string          `json:"order_item_id,omitempty"`
	SettlementID string          `json:"settlement_id,omitempty"`
	Metadata     EntryMetadata   `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Period returns the YYYY-MM bucket the entry belongs to.
func (e *LedgerEntry) Period() string {
	return PeriodOf(e.CreatedAt)
}

// PeriodOf formats t as a YYYY-MM rollup bucket in UTC.
func PeriodOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

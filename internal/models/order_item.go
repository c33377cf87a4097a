package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayerAllocation records that UserID paid Amount towards an item.
type PayerAllocation struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderItem is an item requested within a session.
//
// Pricing and payer assignment are done by collaborators. Once PriceConfirmed
// is set, the PaidBy allocations must sum to Price * Quantity.
type OrderItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// SessionID is the session the item was ordered in.
	SessionID string `json:"session_id"`

	// RequestedBy is the user who consumed the item.
	RequestedBy string `json:"requested_by"`

	// Label is the item name, e.g. "Iced latte".
	Label string `json:"label"`

	// Quantity is at least 1.
	Quantity int `json:"quantity"`

	// Options are free-form modifiers ("no sugar", "large").
	Options []string `json:"options,omitempty"`

	// RawText is the message the item was extracted from.
	RawText string `json:"raw_text"`

	// Price is the unit price; nil until a collaborator confirms it.
	Price *decimal.Decimal `json:"price,omitempty"`

	PriceConfirmed bool              `json:"price_confirmed"`
	PaidBy         []PayerAllocation `json:"paid_by,omitempty"`

	// Active is false once the item is soft-deleted.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
}

// Total returns Price * Quantity, or zero when the price is unknown.
func (i *OrderItem) Total() decimal.Decimal {
	if i.Price == nil {
		return decimal.Zero
	}
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPaid returns the sum of all payer allocations.
func (i *OrderItem) TotalPaid() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range i.PaidBy {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Settleable reports whether the item takes part in a settlement.
func (i *OrderItem) Settleable() bool {
	return i.Active && i.PriceConfirmed && i.Price != nil
}

// PayerIDs returns the ids of every payer, in allocation order.
func (i *OrderItem) PayerIDs() []string {
	ids := make([]string, len(i.PaidBy))
	for k, p := range i.PaidBy {
		ids[k] = p.UserID
	}
	return ids
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the overall state of a settlement plan.
type SettlementStatus string

const (
	SettlementActive    SettlementStatus = "ACTIVE"
	SettlementCompleted SettlementStatus = "COMPLETED"
	SettlementCancelled SettlementStatus = "CANCELLED"
)

// TransactionStatus moves PENDING -> PAID exactly once.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionPaid    TransactionStatus = "PAID"
)

// Transaction is one pairwise payment obligation: From pays To.
type Transaction struct {
	// ID is stable and independent of the parent settlement.
	ID string `json:"id"`

	SettlementID string `json:"settlement_id"`

	// Ordinal preserves the order the simplifier emitted the transaction in.
	Ordinal int `json:"ordinal"`

	From   string            `json:"from"`
	To     string            `json:"to"`
	Amount decimal.Decimal   `json:"amount"`
	Status TransactionStatus `json:"status"`

	// PaidAt and ConfirmedBy are set when the receiver confirms.
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ConfirmedBy string     `json:"confirmed_by,omitempty"`
}

// Involves reports whether userID is either party of the transaction.
func (t *Transaction) Involves(userID string) bool {
	return t.From == userID || t.To == userID
}

// Settlement is the computed payment plan for exactly one session.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// SessionID is unique: a session has at most one settlement.
	SessionID string `json:"session_id"`

	// ComputedBy is the admin who requested the computation.
	ComputedBy string `json:"computed_by"`

	Transactions []Transaction    `json:"transactions"`
	TotalAmount  decimal.Decimal  `json:"total_amount"`
	Status       SettlementStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction returns the transaction with the given id, or nil.
func (s *Settlement) Transaction(id string) *Transaction {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return &s.Transactions[i]
		}
	}
	return nil
}

// FullyPaid reports whether every transaction is PAID. A settlement without
// transactions is trivially paid.
func (s *Settlement) FullyPaid() bool {
	for _, t := range s.Transactions {
		if t.Status != TransactionPaid {
			return false
		}
	}
	return true
}

// SessionStatus returns the status the owning session takes when the
// settlement is saved: COMPLETED when there is nothing left to confirm,
// SETTLED otherwise.
func (s *Settlement) SessionStatus() SessionStatus {
	if s.Status == SettlementCompleted {
		return SessionCompleted
	}
	return SessionSettled
}

// Confirmation carries everything the store needs to mark one transaction
// paid together with its ledger entries.
type Confirmation struct {
	SettlementID  string
	SessionID     string
	TransactionID string
	ConfirmedBy   string
	PaidAt        time.Time
	Entries       []LedgerEntry
}

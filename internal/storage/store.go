// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// Store defines the interface for all persistence operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the settlement core or the service layer.
type Store interface {
	SessionStore
	MembershipStore
	ItemStore
	SettlementStore
	LedgerStore

	// Close releases any resources held by the store.
	Close() error
}

// SessionStore persists billing sessions.
type SessionStore interface {
	// CreateSession persists a new OPEN session. Returns
	// apperr.ErrSessionAlreadyOpen if the group already has one.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by ID.
	// Returns apperr.ErrSessionNotFound if it does not exist.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// TransitionSession moves a session from one status to another with a
	// single conditional update. Returns apperr.ErrStatusMismatch if the
	// session was not in the expected status.
	TransitionSession(ctx context.Context, sessionID string, from, to models.SessionStatus) error
}

// MembershipStore reads and writes group memberships.
type MembershipStore interface {
	// UpsertMembership creates or replaces a membership.
	UpsertMembership(ctx context.Context, m *models.Membership) error

	// GetMembership returns apperr.ErrMembershipNotFound when the user was
	// never a member of the group.
	GetMembership(ctx context.Context, groupID, userID string) (*models.Membership, error)

	// ListActiveMemberIDs returns the current roster, sorted by user ID.
	ListActiveMemberIDs(ctx context.Context, groupID string) ([]string, error)
}

// ItemStore persists order items. Every mutation is conditional on the
// owning session being OPEN and returns apperr.ErrSessionNotOpen otherwise.
type ItemStore interface {
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error

	// GetOrderItem returns apperr.ErrItemNotFound if it does not exist.
	GetOrderItem(ctx context.Context, itemID string) (*models.OrderItem, error)

	// ListActiveItems returns the non-deleted items of a session in creation order.
	ListActiveItems(ctx context.Context, sessionID string) ([]models.OrderItem, error)

	// PriceOrderItem sets the unit price and payer allocations and marks the
	// price as confirmed.
	PriceOrderItem(ctx context.Context, itemID string, price decimal.Decimal, paidBy []models.PayerAllocation) error

	// DeactivateOrderItem soft-deletes an item.
	DeactivateOrderItem(ctx context.Context, itemID string) error
}

// SettlementStore persists settlements and their transactions.
type SettlementStore interface {
	// GetSettlement returns apperr.ErrSettlementNotFound if it does not exist.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// GetSettlementBySession returns apperr.ErrSettlementNotFound if the
	// session has no settlement.
	GetSettlementBySession(ctx context.Context, sessionID string) (*models.Settlement, error)

	// SaveSettlement inserts the ledger entries, the settlement and its
	// transactions, and moves the session PROCESSING -> SETTLED, all in one
	// database transaction. A settlement saved as COMPLETED (no transactions)
	// moves the session straight to COMPLETED. Nothing is written if any step
	// fails.
	SaveSettlement(ctx context.Context, settlement *models.Settlement, entries []models.LedgerEntry) error

	// ConfirmTransaction marks one transaction PAID and inserts its ledger
	// entries in one database transaction. When no PENDING transaction
	// remains, the settlement becomes COMPLETED and the session COMPLETED in
	// the same transaction and completed is true. A transaction that is
	// already PAID yields apperr.ErrAlreadyConfirmed.
	ConfirmTransaction(ctx context.Context, c models.Confirmation) (completed bool, err error)

	// ListUserSettlements returns settlements where the user is a party of at
	// least one transaction, newest first. An empty status matches all.
	ListUserSettlements(ctx context.Context, userID string, status models.SettlementStatus) ([]*models.Settlement, error)

	// ListPendingTransactions returns every PENDING transaction of an ACTIVE
	// settlement that involves the user.
	ListPendingTransactions(ctx context.Context, userID string) ([]PendingTransaction, error)
}

// LedgerStore reads ledger entries and the monthly rollup. Entries are only
// written by SettlementStore methods.
type LedgerStore interface {
	// ListUserEntries returns a page of entries, newest first, and the total
	// number of entries for the user.
	ListUserEntries(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, int, error)

	// ListUserEntriesSince returns the user's entries of one type whose
	// period is at or after fromPeriod (YYYY-MM), oldest first.
	ListUserEntriesSince(ctx context.Context, userID string, entryType models.EntryType, fromPeriod string) ([]models.LedgerEntry, error)

	// MonthlyTotals returns the user's rollup rows whose period is at or
	// after fromPeriod. An empty fromPeriod returns every month.
	MonthlyTotals(ctx context.Context, userID, fromPeriod string) ([]MonthlyTotal, error)
}

// PendingTransaction is an unpaid transaction with the session it settles.
type PendingTransaction struct {
	models.Transaction
	SessionID string
	GroupID   string
}

// MonthlyTotal is one row of the monthly ledger rollup.
type MonthlyTotal struct {
	UserID     string
	Period     string
	Type       models.EntryType
	Total      decimal.Decimal
	EntryCount int
}

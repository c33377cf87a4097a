// Package reports answers the read-side questions about a user's money:
// paged ledger history, what they owe and are owed, and spending trends.
//
// Reports read the ledger, the monthly rollup and pending transactions.
// They never write.
package reports

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// SummaryMonths is the rollup window of BalanceSummary, current month included.
	SummaryMonths = 6

	DefaultAnalyticsMonths = 6
	MaxAnalyticsMonths     = 24

	topItemsLimit = 10
)

// Store is the subset of storage.Store the reports read from.
type Store interface {
	ListUserEntries(ctx context.Context, userID string, limit, offset int) ([]models.LedgerEntry, int, error)
	ListUserEntriesSince(ctx context.Context, userID string, entryType models.EntryType, fromPeriod string) ([]models.LedgerEntry, error)
	MonthlyTotals(ctx context.Context, userID, fromPeriod string) ([]storage.MonthlyTotal, error)
	ListUserSettlements(ctx context.Context, userID string, status models.SettlementStatus) ([]*models.Settlement, error)
	ListPendingTransactions(ctx context.Context, userID string) ([]storage.PendingTransaction, error)
}

// Reporter builds user-facing reports.
type Reporter struct {
	store Store
	now   func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock overrides the time source used for "this month" windows.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.now = now }
}

// NewReporter creates a Reporter reading from store.
func NewReporter(store Store, opts ...Option) *Reporter {
	r := &Reporter{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PagedLedgerEntries is one page of a user's ledger, newest first.
type PagedLedgerEntries struct {
	Entries    []models.LedgerEntry `json:"entries"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalCount int                  `json:"total_count"`
	TotalPages int                  `json:"total_pages"`
	HasNext    bool                 `json:"has_next"`
	HasPrev    bool                 `json:"has_prev"`
}

// ListUserLedger returns one page of the user's ledger entries.
// A page below 1 means the first page; a page size below 1 means
// DefaultPageSize and sizes above MaxPageSize are capped.
func (r *Reporter) ListUserLedger(ctx context.Context, userID string, page, pageSize int) (*PagedLedgerEntries, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "is required")
	}
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}

	offset := (page - 1) * pageSize
	entries, total, err := r.store.ListUserEntries(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return &PagedLedgerEntries{
		Entries:    entries,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasNext:    offset+pageSize < total,
		HasPrev:    page > 1,
	}, nil
}

// ListUserSettlements returns the settlements the user is a party of, each
// with only the transactions that involve the user. An empty status matches
// every settlement.
func (r *Reporter) ListUserSettlements(ctx context.Context, userID string, status models.SettlementStatus) ([]*models.Settlement, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "is required")
	}
	switch status {
	case "", models.SettlementActive, models.SettlementCompleted, models.SettlementCancelled:
	default:
		return nil, apperr.Invalid("status", "unknown settlement status %q", status)
	}

	settlements, err := r.store.ListUserSettlements(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	for _, s := range settlements {
		mine := make([]models.Transaction, 0, len(s.Transactions))
		for _, t := range s.Transactions {
			if t.Involves(userID) {
				mine = append(mine, t)
			}
		}
		s.Transactions = mine
	}
	return settlements, nil
}

// periodsBack returns the YYYY-MM period n-1 months before now, so a window
// of n periods ends with the current month.
func periodsBack(now time.Time, n int) string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return models.PeriodOf(first.AddDate(0, -(n - 1), 0))
}

// sumBy groups entries by key and returns the groups ordered by total
// descending, then key ascending.
func sumBy(entries []models.LedgerEntry, key func(*models.LedgerEntry) string) []Spend {
	index := map[string]int{}
	var spends []Spend
	for i := range entries {
		e := &entries[i]
		k := key(e)
		j, ok := index[k]
		if !ok {
			j = len(spends)
			index[k] = j
			spends = append(spends, Spend{Key: k, Amount: decimal.Zero})
		}
		spends[j].Amount = spends[j].Amount.Add(e.Amount)
		spends[j].Count++
	}

	sort.Slice(spends, func(a, b int) bool {
		if c := spends[a].Amount.Cmp(spends[b].Amount); c != 0 {
			return c > 0
		}
		return spends[a].Key < spends[b].Key
	})
	return spends
}

// Spend is an aggregated amount for one group, item name or period.
type Spend struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// Direction tells whether a pending transaction is money coming in or going out.
type Direction string

const (
	DirectionIncoming Direction = "INCOMING"
	DirectionOutgoing Direction = "OUTGOING"
)

// PendingTransaction is an unpaid obligation seen from one user's side.
type PendingTransaction struct {
	Direction     Direction       `json:"direction"`
	Counterparty  string          `json:"counterparty"`
	Amount        decimal.Decimal `json:"amount"`
	SettlementID  string          `json:"settlement_id"`
	TransactionID string          `json:"transaction_id"`
	SessionID     string          `json:"session_id"`
	GroupID       string          `json:"group_id"`
}

// MonthlyTotal is one rollup bucket.
type MonthlyTotal struct {
	Period string           `json:"period"`
	Type   models.EntryType `json:"type"`
	Total  decimal.Decimal  `json:"total"`
	Count  int              `json:"count"`
}

// LifetimeStats sums every ledger entry the user ever had.
type LifetimeStats struct {
	TotalSpent decimal.Decimal `json:"total_spent"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	EntryCount int             `json:"entry_count"`
}

// BalanceSummary is the dashboard view of a user's money.
type BalanceSummary struct {
	// Owing is what the user still has to pay; Owed is what others still
	// have to pay the user. Net = Owed - Owing.
	Owing decimal.Decimal `json:"owing"`
	Owed  decimal.Decimal `json:"owed"`
	Net   decimal.Decimal `json:"net"`

	Pending        []PendingTransaction `json:"pending"`
	ThisMonthSpend decimal.Decimal      `json:"this_month_spend"`
	Monthly        []MonthlyTotal       `json:"monthly"`
	GroupSpending  []Spend              `json:"group_spending"`
	Lifetime       LifetimeStats        `json:"lifetime"`
}

// BalanceSummary computes the user's outstanding balances from PENDING
// transactions of ACTIVE settlements plus spending figures from the ledger.
func (r *Reporter) BalanceSummary(ctx context.Context, userID string) (*BalanceSummary, error) {
	if userID == "" {
		return nil, apperr.Invalid("user_id", "is required")
	}

	pending, err := r.store.ListPendingTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{
		Owing:          decimal.Zero,
		Owed:           decimal.Zero,
		ThisMonthSpend: decimal.Zero,
		Pending:        make([]PendingTransaction, 0, len(pending)),
		Monthly:        []MonthlyTotal{},
		Lifetime:       LifetimeStats{TotalSpent: decimal.Zero, TotalPaid: decimal.Zero},
	}

	for _, p := range pending {
		view := PendingTransaction{
			Amount:        p.Amount,
			SettlementID:  p.SettlementID,
			TransactionID: p.ID,
			SessionID:     p.SessionID,
			GroupID:       p.GroupID,
		}
		switch userID {
		case p.From:
			view.Direction = DirectionOutgoing
			view.Counterparty = p.To
			summary.Owing = summary.Owing.Add(p.Amount)
		case p.To:
			view.Direction = DirectionIncoming
			view.Counterparty = p.From
			summary.Owed = summary.Owed.Add(p.Amount)
		default:
			continue
		}
		summary.Pending = append(summary.Pending, view)
	}
	summary.Owing = summary.Owing.Round(2)
	summary.Owed = summary.Owed.Round(2)
	summary.Net = summary.Owed.Sub(summary.Owing)

	now := r.now()
	thisMonth := models.PeriodOf(now)
	windowStart := periodsBack(now, SummaryMonths)

	// One pass over the whole rollup gives lifetime stats and the window.
	totals, err := r.store.MonthlyTotals(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	for _, t := range totals {
		summary.Lifetime.EntryCount += t.EntryCount
		switch t.Type {
		case models.EntryConsumption:
			summary.Lifetime.TotalSpent = summary.Lifetime.TotalSpent.Add(t.Total)
			if t.Period == thisMonth {
				summary.ThisMonthSpend = t.Total
			}
		case models.EntryPayment:
			summary.Lifetime.TotalPaid = summary.Lifetime.TotalPaid.Add(t.Total)
		}
		if t.Period >= windowStart {
			summary.Monthly = append(summary.Monthly, MonthlyTotal{
				Period: t.Period,
				Type:   t.Type,
				Total:  t.Total,
				Count:  t.EntryCount,
			})
		}
	}

	consumed, err := r.store.ListUserEntriesSince(ctx, userID, models.EntryConsumption, thisMonth)
	if err != nil {
		return nil, err
	}
	summary.GroupSpending = sumBy(consumed, func(e *models.LedgerEntry) string { return e.GroupID })
	if summary.GroupSpending == nil {
		summary.GroupSpending = []Spend{}
	}

	return summary, nil
}

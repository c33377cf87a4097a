package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

// Epsilon is the rounding tolerance used for every money comparison.
var Epsilon = decimal.New(1, -2) // 0.01

// Balances maps a user ID to a signed net amount.
// Positive = owed money, Negative = owes money.
type Balances map[string]decimal.Decimal

// Sum returns the total of all balances. It is zero (within Epsilon) for any
// map produced by ComputeBalances.
func (b Balances) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range b {
		sum = sum.Add(v)
	}
	return sum
}

// SortedUserIDs returns the user IDs in ascending order.
func (b Balances) SortedUserIDs() []string {
	ids := make([]string, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ComputeBalances reduces priced, payer-assigned order items into one net
// balance per participant.
//
// Algorithm:
// - Every roster member starts at 0, even without activity
// - Items that are inactive or not price-confirmed are skipped
// - For each remaining item: requester -= price*quantity, each payer += allocation
// - Users outside the roster are still accounted so no money disappears
//
// Returns ErrNoConfirmedItems when nothing qualifies, ErrAllocationMismatch
// when an item's allocations do not cover its total, and ErrUnbalanced when
// the result does not net to zero.
func ComputeBalances(items []models.OrderItem, roster []string) (Balances, error) {
	balances := make(Balances, len(roster))
	for _, userID := range roster {
		balances[userID] = decimal.Zero
	}

	consumed := 0
	for i := range items {
		item := &items[i]
		if !item.Settleable() {
			continue
		}

		total := item.Total()
		paid := item.TotalPaid()
		if total.Sub(paid).Abs().GreaterThan(Epsilon) {
			return nil, fmt.Errorf("%w: item %s (%s) total %s, paid %s",
				apperr.ErrAllocationMismatch, item.ID, item.Label, total.StringFixed(2), paid.StringFixed(2))
		}

		// Debit the consumer
		balances[item.RequestedBy] = balances[item.RequestedBy].Sub(total)

		// Credit the payers
		for _, p := range item.PaidBy {
			balances[p.UserID] = balances[p.UserID].Add(p.Amount)
		}
		consumed++
	}

	if consumed == 0 {
		return nil, apperr.ErrNoConfirmedItems
	}

	if sum := balances.Sum(); sum.Abs().GreaterThan(Epsilon) {
		return nil, fmt.Errorf("%w: sum is %s", apperr.ErrUnbalanced, sum.String())
	}

	return balances, nil
}

package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one payment the simplifier proposes: From pays To.
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type party struct {
	userID    string
	remaining decimal.Decimal
}

// Simplify turns a balance map into pairwise transfers using greedy minimum
// cash flow.
//
// Algorithm:
// - Debtors have balance < -0.01, creditors have balance > 0.01
// - Both lists are sorted by magnitude descending, ties by user ID ascending
// - The largest debtor pays the largest creditor min(debt, credit), rounded to 2dp
// - A party whose remaining amount drops below 0.01 is settled and skipped
//
// The result is deterministic for identical input and moves exactly the sum
// of creditor balances (within rounding). It does not guarantee the minimum
// number of transfers; that problem is much harder and the greedy plan is
// what groups get.
func Simplify(balances Balances) []Transfer {
	var debtors, creditors []party
	for _, userID := range balances.SortedUserIDs() {
		balance := balances[userID]
		if balance.LessThan(Epsilon.Neg()) {
			debtors = append(debtors, party{userID: userID, remaining: balance.Abs()})
		} else if balance.GreaterThan(Epsilon) {
			creditors = append(creditors, party{userID: userID, remaining: balance})
		}
	}

	sortParties(debtors)
	sortParties(creditors)

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)

		if rounded := amount.Round(2); rounded.IsPositive() {
			transfers = append(transfers, Transfer{
				From:   debtor.userID,
				To:     creditor.userID,
				Amount: rounded,
			})
		}

		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if debtor.remaining.LessThan(Epsilon) {
			i++
		}
		if creditor.remaining.LessThan(Epsilon) {
			j++
		}
	}

	return transfers
}

// sortParties orders by remaining amount descending, then user ID ascending.
func sortParties(parties []party) {
	sort.SliceStable(parties, func(a, b int) bool {
		if c := parties[a].remaining.Cmp(parties[b].remaining); c != 0 {
			return c > 0
		}
		return parties[a].userID < parties[b].userID
	})
}

// TotalTransferred sums the amounts of all transfers.
func TotalTransferred(transfers []Transfer) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transfers {
		total = total.Add(t.Amount)
	}
	return total
}

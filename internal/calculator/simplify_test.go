package calculator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
)

// netFromTransfers replays transfers: receivers gain, payers lose.
func netFromTransfers(transfers []Transfer) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for _, tr := range transfers {
		net[tr.To] = net[tr.To].Add(tr.Amount)
		net[tr.From] = net[tr.From].Sub(tr.Amount)
	}
	return net
}

func assertReproducesBalances(t *testing.T, balances Balances, transfers []Transfer) {
	t.Helper()
	net := netFromTransfers(transfers)
	for userID, want := range balances {
		if net[userID].Sub(want).Abs().GreaterThan(Epsilon) {
			t.Errorf("%s: transfers net %s, balance %s", userID, net[userID], want)
		}
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		balances Balances
		want     []Transfer
	}{
		{
			name:     "three user scenario",
			balances: Balances{"A": d("-240"), "B": d("210"), "C": d("30")},
			want: []Transfer{
				{From: "A", To: "B", Amount: d("210")},
				{From: "A", To: "C", Amount: d("30")},
			},
		},
		{
			name:     "all zero",
			balances: Balances{"A": d("0"), "B": d("0")},
			want:     nil,
		},
		{
			name:     "noise below epsilon is ignored",
			balances: Balances{"A": d("-0.004"), "B": d("0.004")},
			want:     nil,
		},
		{
			name:     "two debtors one creditor",
			balances: Balances{"A": d("-10"), "B": d("-25.50"), "C": d("35.50")},
			want: []Transfer{
				{From: "B", To: "C", Amount: d("25.50")},
				{From: "A", To: "C", Amount: d("10")},
			},
		},
		{
			name:     "ties broken by user id",
			balances: Balances{"z": d("-5"), "y": d("-5"), "b": d("5"), "a": d("5")},
			want: []Transfer{
				{From: "y", To: "a", Amount: d("5")},
				{From: "z", To: "b", Amount: d("5")},
			},
		},
		{
			name:     "debtor spans creditors",
			balances: Balances{"A": d("-100"), "B": d("60"), "C": d("40")},
			want: []Transfer{
				{From: "A", To: "B", Amount: d("60")},
				{From: "A", To: "C", Amount: d("40")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Simplify(tt.balances)
			if len(got) != len(tt.want) {
				t.Fatalf("Simplify() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].From != tt.want[i].From || got[i].To != tt.want[i].To || !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("transfer %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
			assertReproducesBalances(t, tt.balances, got)
		})
	}
}

func TestSimplify_Deterministic(t *testing.T) {
	balances := Balances{"a": d("-30"), "b": d("-30"), "c": d("20"), "d": d("20"), "e": d("20")}

	first := Simplify(balances)
	for i := 0; i < 20; i++ {
		again := Simplify(balances)
		if fmt.Sprint(again) != fmt.Sprint(first) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

// hasDust reports a non-zero balance at or below the epsilon, which the
// simplifier deliberately ignores.
func hasDust(balances Balances) bool {
	for _, v := range balances {
		if !v.IsZero() && v.Abs().LessThanOrEqual(Epsilon) {
			return true
		}
	}
	return false
}

func TestSimplify_RandomBalancesNetToZero(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(8)
		balances := make(Balances, n)
		sum := decimal.Zero
		for u := 0; u < n-1; u++ {
			cents := rng.Int63n(200000) - 100000
			v := decimal.New(cents, -2)
			balances[fmt.Sprintf("u%d", u)] = v
			sum = sum.Add(v)
		}
		balances[fmt.Sprintf("u%d", n-1)] = sum.Neg()
		if hasDust(balances) {
			continue
		}

		transfers := Simplify(balances)

		creditTotal := decimal.Zero
		for _, v := range balances {
			if v.IsPositive() {
				creditTotal = creditTotal.Add(v)
			}
		}
		if TotalTransferred(transfers).Sub(creditTotal).Abs().GreaterThan(Epsilon) {
			t.Fatalf("round %d: transferred %s, creditors %s", round, TotalTransferred(transfers), creditTotal)
		}
		for _, tr := range transfers {
			if !tr.Amount.IsPositive() {
				t.Fatalf("round %d: non-positive transfer %+v", round, tr)
			}
			if tr.From == tr.To {
				t.Fatalf("round %d: self transfer %+v", round, tr)
			}
		}
		assertReproducesBalances(t, balances, transfers)
		if len(transfers) > n-1 {
			t.Errorf("round %d: %d transfers for %d users", round, len(transfers), n)
		}
	}
}

func TestComputeThenSimplify_Scenario(t *testing.T) {
	items := []models.OrderItem{
		item("1", "A", "300", 1, paid("B", "300")),
		item("2", "B", "90", 1, paid("C", "90")),
		item("3", "C", "60", 1, paid("A", "60")),
	}

	balances, err := ComputeBalances(items, []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("ComputeBalances() error: %v", err)
	}

	got := Simplify(balances)
	if len(got) != 2 {
		t.Fatalf("expected 2 transfers, got %v", got)
	}
	if got[0].From != "A" || got[0].To != "B" || !got[0].Amount.Equal(d("210")) {
		t.Errorf("first transfer = %+v, want A->B 210", got[0])
	}
	if got[1].From != "A" || got[1].To != "C" || !got[1].Amount.Equal(d("30")) {
		t.Errorf("second transfer = %+v, want A->C 30", got[1])
	}
}

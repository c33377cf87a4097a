package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func price(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// item builds an active, price-confirmed item.
func item(id, requester, unitPrice string, qty int, paidBy ...models.PayerAllocation) models.OrderItem {
	return models.OrderItem{
		ID:             id,
		RequestedBy:    requester,
		Label:          "item " + id,
		Quantity:       qty,
		Price:          price(unitPrice),
		PriceConfirmed: true,
		PaidBy:         paidBy,
		Active:         true,
	}
}

func paid(userID, amount string) models.PayerAllocation {
	return models.PayerAllocation{UserID: userID, Amount: d(amount)}
}

func assertBalance(t *testing.T, balances Balances, userID, want string) {
	t.Helper()
	got, ok := balances[userID]
	if !ok {
		t.Errorf("%s: missing balance", userID)
		return
	}
	if got.Sub(d(want)).Abs().GreaterThan(Epsilon) {
		t.Errorf("%s balance = %s, want %s", userID, got, want)
	}
}

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name         string
		items        []models.OrderItem
		roster       []string
		wantErr      error
		validateFunc func(t *testing.T, balances Balances)
	}{
		{
			name: "three users round robin",
			items: []models.OrderItem{
				item("1", "A", "300", 1, paid("B", "300")),
				item("2", "B", "90", 1, paid("C", "90")),
				item("3", "C", "60", 1, paid("A", "60")),
			},
			roster: []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, balances Balances) {
				// A = -300 + 60, B = -90 + 300, C = -60 + 90
				assertBalance(t, balances, "A", "-240")
				assertBalance(t, balances, "B", "210")
				assertBalance(t, balances, "C", "30")
			},
		},
		{
			name: "self pay nets to zero",
			items: []models.OrderItem{
				item("1", "A", "12.50", 2, paid("A", "25")),
			},
			roster: []string{"A", "B"},
			validateFunc: func(t *testing.T, balances Balances) {
				assertBalance(t, balances, "A", "0")
				assertBalance(t, balances, "B", "0")
			},
		},
		{
			name: "quantity multiplies unit price and split payers",
			items: []models.OrderItem{
				item("1", "A", "4.25", 3, paid("B", "6.00"), paid("C", "6.75")),
			},
			roster: []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, balances Balances) {
				assertBalance(t, balances, "A", "-12.75")
				assertBalance(t, balances, "B", "6")
				assertBalance(t, balances, "C", "6.75")
			},
		},
		{
			name: "idle roster member is initialized",
			items: []models.OrderItem{
				item("1", "A", "10", 1, paid("B", "10")),
			},
			roster: []string{"A", "B", "Idle"},
			validateFunc: func(t *testing.T, balances Balances) {
				assertBalance(t, balances, "Idle", "0")
				if len(balances) != 3 {
					t.Errorf("expected 3 balances, got %d", len(balances))
				}
			},
		},
		{
			name: "user outside roster is still accounted",
			items: []models.OrderItem{
				item("1", "Former", "10", 1, paid("A", "10")),
			},
			roster: []string{"A"},
			validateFunc: func(t *testing.T, balances Balances) {
				assertBalance(t, balances, "Former", "-10")
				assertBalance(t, balances, "A", "10")
			},
		},
		{
			name: "unconfirmed and inactive items are excluded",
			items: []models.OrderItem{
				item("1", "A", "10", 1, paid("B", "10")),
				{ID: "2", RequestedBy: "A", Quantity: 1, Active: true, PriceConfirmed: false, Price: price("99")},
				func() models.OrderItem {
					i := item("3", "B", "50", 1, paid("A", "50"))
					i.Active = false
					return i
				}(),
			},
			roster: []string{"A", "B"},
			validateFunc: func(t *testing.T, balances Balances) {
				assertBalance(t, balances, "A", "-10")
				assertBalance(t, balances, "B", "10")
			},
		},
		{
			name: "no confirmed items",
			items: []models.OrderItem{
				{ID: "1", RequestedBy: "A", Quantity: 1, Active: true},
			},
			roster:  []string{"A"},
			wantErr: apperr.ErrNoConfirmedItems,
		},
		{
			name:    "empty item list",
			roster:  []string{"A", "B"},
			wantErr: apperr.ErrNoConfirmedItems,
		},
		{
			name: "payer sum below item total",
			items: []models.OrderItem{
				item("1", "A", "100", 1, paid("B", "60")),
			},
			roster:  []string{"A", "B"},
			wantErr: apperr.ErrAllocationMismatch,
		},
		{
			name: "payer sum within rounding tolerance",
			items: []models.OrderItem{
				item("1", "A", "10", 1, paid("B", "3.33"), paid("C", "3.33"), paid("D", "3.33")),
			},
			roster: []string{"A", "B", "C", "D"},
			validateFunc: func(t *testing.T, balances Balances) {
				if balances.Sum().Abs().GreaterThan(Epsilon) {
					t.Errorf("sum = %s, want ~0", balances.Sum())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := ComputeBalances(tt.items, tt.roster)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeBalances() error = %v, want %v", err, tt.wantErr)
				}
				if !apperr.IsValidation(err) {
					t.Errorf("expected validation error, got kind %q", apperr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeBalances() unexpected error: %v", err)
			}
			if balances.Sum().Abs().GreaterThan(Epsilon) {
				t.Errorf("zero-sum violated: sum = %s", balances.Sum())
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, balances)
			}
		})
	}
}

func TestComputeBalances_ItemCancellation(t *testing.T) {
	// Requester is the sole payer: consumption debit is offset by the payment credit.
	items := []models.OrderItem{item("1", "A", "7.40", 3, paid("A", "22.20"))}

	balances, err := ComputeBalances(items, []string{"A"})
	if err != nil {
		t.Fatalf("ComputeBalances() error: %v", err)
	}
	if !balances["A"].IsZero() {
		t.Errorf("A balance = %s, want 0", balances["A"])
	}
}

func TestBalances_SortedUserIDs(t *testing.T) {
	b := Balances{"carol": d("1"), "alice": d("-2"), "bob": d("1")}
	got := b.SortedUserIDs()
	want := []string{"alice", "bob", "carol"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("SortedUserIDs() = %v, want %v", got, want)
		}
	}
}

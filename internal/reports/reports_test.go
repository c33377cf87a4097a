package reports_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/ledger"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/reports"
	"github.com/mmynk/tabsettle/internal/settlement"
	"github.com/mmynk/tabsettle/internal/storage/sqlite"
)

var (
	august  = time.Date(2026, 8, 10, 19, 0, 0, 0, time.UTC)
	october = time.Date(2026, 10, 5, 12, 0, 0, 0, time.UTC)
	today   = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type item struct {
	requester, label, price, payer string
}

// history holds two settled sessions of group g:
//   - August: A owes B 210 (confirmed) and C 30 (pending)
//   - October: A owes B 12 (pending) for a coffee
type history struct {
	store    *sqlite.SQLiteStore
	august   *models.Settlement
	october  *models.Settlement
	reporter *reports.Reporter
}

func newHistory(t *testing.T) history {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for _, m := range []models.Membership{
		{GroupID: "g", UserID: "A", Role: models.RoleAdmin, Active: true},
		{GroupID: "g", UserID: "B", Role: models.RoleMember, Active: true},
		{GroupID: "g", UserID: "C", Role: models.RoleMember, Active: true},
	} {
		require.NoError(t, store.UpsertMembership(ctx, &m))
	}

	clock := august
	engine := settlement.NewEngine(store, settlement.WithRecorder(
		ledger.NewRecorder(ledger.WithClock(func() time.Time { return clock })),
	))

	settle := func(title string, items []item) *models.Settlement {
		session := &models.Session{GroupID: "g", CreatedBy: "A", Title: title}
		require.NoError(t, store.CreateSession(ctx, session))
		for _, it := range items {
			oi := &models.OrderItem{SessionID: session.ID, RequestedBy: it.requester, Label: it.label, Quantity: 1}
			require.NoError(t, store.CreateOrderItem(ctx, oi))
			price := dec(it.price)
			require.NoError(t, store.PriceOrderItem(ctx, oi.ID, price,
				[]models.PayerAllocation{{UserID: it.payer, Amount: price}}))
		}
		st, err := engine.ComputeSettlement(ctx, session.ID, "A")
		require.NoError(t, err)
		return st
	}

	h := history{store: store}
	h.august = settle("Team dinner", []item{
		{"A", "Wagyu", "300", "B"},
		{"B", "Pasta", "90", "C"},
		{"C", "Salad", "60", "A"},
	})
	_, err = engine.ConfirmTransaction(ctx, h.august.ID, h.august.Transactions[0].ID, "B")
	require.NoError(t, err)

	clock = october
	h.october = settle("Coffee run", []item{{"A", "Coffee", "12", "B"}})

	h.reporter = reports.NewReporter(store, reports.WithClock(func() time.Time { return today }))
	return h
}

func TestListUserLedger(t *testing.T) {
	ctx := context.Background()
	h := newHistory(t)

	t.Run("first page", func(t *testing.T) {
		page, err := h.reporter.ListUserLedger(ctx, "A", 1, 3)
		require.NoError(t, err)

		assert.Equal(t, 4, page.TotalCount)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
		require.Len(t, page.Entries, 3)
		assert.Equal(t, "Consumed: 1x Coffee", page.Entries[0].Description)
	})

	t.Run("last page", func(t *testing.T) {
		page, err := h.reporter.ListUserLedger(ctx, "A", 2, 3)
		require.NoError(t, err)

		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
		assert.Len(t, page.Entries, 1)
	})

	t.Run("defaults and caps", func(t *testing.T) {
		page, err := h.reporter.ListUserLedger(ctx, "A", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, reports.DefaultPageSize, page.PageSize)
		assert.Equal(t, 1, page.TotalPages)

		page, err = h.reporter.ListUserLedger(ctx, "A", 1, 1000)
		require.NoError(t, err)
		assert.Equal(t, reports.MaxPageSize, page.PageSize)
	})

	t.Run("user without entries", func(t *testing.T) {
		page, err := h.reporter.ListUserLedger(ctx, "nobody", 1, 20)
		require.NoError(t, err)
		assert.Zero(t, page.TotalCount)
		assert.Zero(t, page.TotalPages)
		assert.Empty(t, page.Entries)
		assert.False(t, page.HasNext)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := h.reporter.ListUserLedger(ctx, "", 1, 20)
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestBalanceSummary(t *testing.T) {
	ctx := context.Background()
	h := newHistory(t)

	summary, err := h.reporter.BalanceSummary(ctx, "A")
	require.NoError(t, err)

	assert.Equal(t, "42.00", summary.Owing.StringFixed(2))
	assert.True(t, summary.Owed.IsZero())
	assert.Equal(t, "-42.00", summary.Net.StringFixed(2))

	require.Len(t, summary.Pending, 2)
	for _, p := range summary.Pending {
		assert.Equal(t, reports.DirectionOutgoing, p.Direction)
		assert.Equal(t, "g", p.GroupID)
	}
	assert.Equal(t, "C", summary.Pending[0].Counterparty)
	assert.Equal(t, h.august.ID, summary.Pending[0].SettlementID)
	assert.Equal(t, "B", summary.Pending[1].Counterparty)

	assert.Equal(t, "12.00", summary.ThisMonthSpend.StringFixed(2))
	assert.Equal(t, "312.00", summary.Lifetime.TotalSpent.StringFixed(2))
	assert.Equal(t, "60.00", summary.Lifetime.TotalPaid.StringFixed(2))
	assert.Equal(t, 4, summary.Lifetime.EntryCount)

	require.Len(t, summary.Monthly, 4)
	assert.Equal(t, "2026-08", summary.Monthly[0].Period)
	assert.Equal(t, models.EntryConsumption, summary.Monthly[0].Type)
	assert.Equal(t, "2026-10", summary.Monthly[3].Period)

	require.Len(t, summary.GroupSpending, 1)
	assert.Equal(t, "g", summary.GroupSpending[0].Key)
	assert.Equal(t, 1, summary.GroupSpending[0].Count)

	t.Run("receiver side", func(t *testing.T) {
		summary, err := h.reporter.BalanceSummary(ctx, "C")
		require.NoError(t, err)

		assert.Equal(t, "30.00", summary.Owed.StringFixed(2))
		assert.Equal(t, "30.00", summary.Net.StringFixed(2))
		require.Len(t, summary.Pending, 1)
		assert.Equal(t, reports.DirectionIncoming, summary.Pending[0].Direction)
		assert.Equal(t, "A", summary.Pending[0].Counterparty)
		assert.True(t, summary.ThisMonthSpend.IsZero())
		assert.Empty(t, summary.GroupSpending)
	})
}

func TestSpendingAnalytics(t *testing.T) {
	ctx := context.Background()
	h := newHistory(t)

	analytics, err := h.reporter.SpendingAnalytics(ctx, "A", 0)
	require.NoError(t, err)
	assert.Equal(t, reports.DefaultAnalyticsMonths, analytics.Months)

	require.Len(t, analytics.MonthlyTrend, 2)
	assert.Equal(t, "2026-08", analytics.MonthlyTrend[0].Period)
	assert.Equal(t, "300.00", analytics.MonthlyTrend[0].Total.StringFixed(2))
	assert.Equal(t, "2026-10", analytics.MonthlyTrend[1].Period)

	require.Len(t, analytics.TopItems, 2)
	assert.Equal(t, "Wagyu", analytics.TopItems[0].Key)
	assert.Equal(t, "Coffee", analytics.TopItems[1].Key)

	t.Run("short window", func(t *testing.T) {
		analytics, err := h.reporter.SpendingAnalytics(ctx, "A", 2)
		require.NoError(t, err)
		require.Len(t, analytics.MonthlyTrend, 1)
		require.Len(t, analytics.TopItems, 1)
		assert.Equal(t, "Coffee", analytics.TopItems[0].Key)
	})

	t.Run("window out of range", func(t *testing.T) {
		_, err := h.reporter.SpendingAnalytics(ctx, "A", reports.MaxAnalyticsMonths+1)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestListUserSettlements(t *testing.T) {
	ctx := context.Background()
	h := newHistory(t)

	settlements, err := h.reporter.ListUserSettlements(ctx, "C", "")
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, h.august.ID, settlements[0].ID)
	require.Len(t, settlements[0].Transactions, 1)
	assert.Equal(t, "C", settlements[0].Transactions[0].To)

	settlements, err = h.reporter.ListUserSettlements(ctx, "A", models.SettlementActive)
	require.NoError(t, err)
	require.Len(t, settlements, 2)
	assert.Equal(t, h.october.ID, settlements[0].ID)

	settlements, err = h.reporter.ListUserSettlements(ctx, "B", models.SettlementCompleted)
	require.NoError(t, err)
	assert.Empty(t, settlements)

	_, err = h.reporter.ListUserSettlements(ctx, "A", "DONE")
	assert.True(t, apperr.IsValidation(err))
}

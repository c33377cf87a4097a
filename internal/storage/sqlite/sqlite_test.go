package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedTime = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// settledFixture is a session with a saved two-transaction settlement:
// A pays B 210 and A pays C 30.
type settledFixture struct {
	session    *models.Session
	settlement *models.Settlement
}

func newSettledFixture(t *testing.T, store *SQLiteStore, groupID string) settledFixture {
	t.Helper()
	ctx := context.Background()

	session := &models.Session{GroupID: groupID, CreatedBy: "A", Title: "Lunch"}
	require.NoError(t, store.CreateSession(ctx, session))
	require.NoError(t, store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing))

	stID := uuid.New().String()
	settlement := &models.Settlement{
		ID:          stID,
		SessionID:   session.ID,
		ComputedBy:  "A",
		TotalAmount: dec("240"),
		Status:      models.SettlementActive,
		CreatedAt:   fixedTime,
		UpdatedAt:   fixedTime,
		Transactions: []models.Transaction{
			{ID: uuid.New().String(), SettlementID: stID, Ordinal: 0, From: "A", To: "B", Amount: dec("210"), Status: models.TransactionPending},
			{ID: uuid.New().String(), SettlementID: stID, Ordinal: 1, From: "A", To: "C", Amount: dec("30"), Status: models.TransactionPending},
		},
	}
	entries := []models.LedgerEntry{
		{ID: uuid.New().String(), UserID: "A", SessionID: session.ID, GroupID: groupID, Type: models.EntryConsumption,
			Amount: dec("300"), Description: "Consumed: 1x Steak", Metadata: models.EntryMetadata{ItemName: "Steak", Quantity: 1}, CreatedAt: fixedTime},
		{ID: uuid.New().String(), UserID: "B", SessionID: session.ID, GroupID: groupID, Type: models.EntryPayment,
			Amount: dec("300"), Description: "Paid for: Steak (A)", Metadata: models.EntryMetadata{RelatedUsers: []string{"A"}}, CreatedAt: fixedTime},
	}
	require.NoError(t, store.SaveSettlement(ctx, settlement, entries))

	session.Status = models.SessionSettled
	return settledFixture{session: session, settlement: settlement}
}

func confirmation(f settledFixture, ordinal int, at time.Time) models.Confirmation {
	tx := f.settlement.Transactions[ordinal]
	return models.Confirmation{
		SettlementID:  f.settlement.ID,
		SessionID:     f.session.ID,
		TransactionID: tx.ID,
		ConfirmedBy:   tx.To,
		PaidAt:        at,
		Entries: []models.LedgerEntry{
			{ID: uuid.New().String(), UserID: tx.From, SessionID: f.session.ID, GroupID: f.session.GroupID,
				Type: models.EntrySettlementOut, Amount: tx.Amount, SettlementID: f.settlement.ID, CreatedAt: at},
			{ID: uuid.New().String(), UserID: tx.To, SessionID: f.session.ID, GroupID: f.session.GroupID,
				Type: models.EntrySettlementIn, Amount: tx.Amount, SettlementID: f.settlement.ID, CreatedAt: at},
		},
	}
}

func TestSQLiteStore_Pragmas(t *testing.T) {
	store := newTestStore(t)

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestSQLiteStore_Sessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateSession generates ID and opens", func(t *testing.T) {
		session := &models.Session{GroupID: "g-create", CreatedBy: "alice", Title: "Coffee"}
		require.NoError(t, store.CreateSession(ctx, session))

		assert.NotEmpty(t, session.ID)
		assert.Equal(t, models.SessionOpen, session.Status)

		got, err := store.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "Coffee", got.Title)
		assert.Equal(t, models.SessionOpen, got.Status)
		assert.Equal(t, session.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	})

	t.Run("only one open session per group", func(t *testing.T) {
		first := &models.Session{GroupID: "g-one", CreatedBy: "alice", Title: "First"}
		require.NoError(t, store.CreateSession(ctx, first))

		second := &models.Session{GroupID: "g-one", CreatedBy: "alice", Title: "Second"}
		assert.ErrorIs(t, store.CreateSession(ctx, second), apperr.ErrSessionAlreadyOpen)

		other := &models.Session{GroupID: "g-two", CreatedBy: "alice", Title: "Other group"}
		assert.NoError(t, store.CreateSession(ctx, other))
	})

	t.Run("processing session still blocks a new one", func(t *testing.T) {
		first := &models.Session{GroupID: "g-proc", CreatedBy: "alice", Title: "First"}
		require.NoError(t, store.CreateSession(ctx, first))
		require.NoError(t, store.TransitionSession(ctx, first.ID, models.SessionOpen, models.SessionProcessing))

		second := &models.Session{GroupID: "g-proc", CreatedBy: "alice", Title: "Second"}
		assert.ErrorIs(t, store.CreateSession(ctx, second), apperr.ErrSessionAlreadyOpen)

		require.NoError(t, store.TransitionSession(ctx, first.ID, models.SessionProcessing, models.SessionSettled))
		assert.NoError(t, store.CreateSession(ctx, second))
	})

	t.Run("TransitionSession is compare-and-set", func(t *testing.T) {
		session := &models.Session{GroupID: "g-cas", CreatedBy: "alice", Title: "CAS"}
		require.NoError(t, store.CreateSession(ctx, session))

		require.NoError(t, store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing))
		err := store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing)
		assert.ErrorIs(t, err, apperr.ErrStatusMismatch)

		got, err := store.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionProcessing, got.Status)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := store.GetSession(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, apperr.ErrSessionNotFound)

		err = store.TransitionSession(ctx, "nonexistent-id", models.SessionOpen, models.SessionProcessing)
		assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	})
}

func TestSQLiteStore_Memberships(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{GroupID: "g", UserID: "carol", Role: models.RoleMember, Active: true}))
	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{GroupID: "g", UserID: "alice", Role: models.RoleAdmin, Active: true}))
	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{GroupID: "g", UserID: "bob", Role: models.RoleMember, Active: true}))
	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{GroupID: "other", UserID: "dave", Role: models.RoleMember, Active: true}))

	// bob leaves
	require.NoError(t, store.UpsertMembership(ctx, &models.Membership{GroupID: "g", UserID: "bob", Role: models.RoleMember, Active: false}))

	ids, err := store.ListActiveMemberIDs(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, ids)

	m, err := store.GetMembership(ctx, "g", "alice")
	require.NoError(t, err)
	assert.True(t, m.IsAdmin())

	m, err = store.GetMembership(ctx, "g", "bob")
	require.NoError(t, err)
	assert.False(t, m.Active)

	_, err = store.GetMembership(ctx, "g", "zed")
	assert.ErrorIs(t, err, apperr.ErrMembershipNotFound)
}

func TestSQLiteStore_OrderItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := &models.Session{GroupID: "g", CreatedBy: "alice", Title: "Lunch"}
	require.NoError(t, store.CreateSession(ctx, session))

	item := &models.OrderItem{
		SessionID:   session.ID,
		RequestedBy: "alice",
		Label:       "Latte",
		Quantity:    2,
		Options:     []string{"oat milk"},
		RawText:     "2 oat lattes please",
	}
	require.NoError(t, store.CreateOrderItem(ctx, item))
	assert.NotEmpty(t, item.ID)

	t.Run("round trip before pricing", func(t *testing.T) {
		got, err := store.GetOrderItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Latte", got.Label)
		assert.Equal(t, 2, got.Quantity)
		assert.Equal(t, []string{"oat milk"}, got.Options)
		assert.Nil(t, got.Price)
		assert.False(t, got.PriceConfirmed)
		assert.Empty(t, got.PaidBy)
		assert.True(t, got.Active)
	})

	t.Run("PriceOrderItem confirms price and payers", func(t *testing.T) {
		paidBy := []models.PayerAllocation{
			{UserID: "bob", Amount: dec("6")},
			{UserID: "carol", Amount: dec("3")},
		}
		require.NoError(t, store.PriceOrderItem(ctx, item.ID, dec("4.50"), paidBy))

		got, err := store.GetOrderItem(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Price)
		assert.True(t, dec("4.5").Equal(*got.Price))
		assert.True(t, got.PriceConfirmed)
		require.Len(t, got.PaidBy, 2)
		assert.Equal(t, "bob", got.PaidBy[0].UserID)
		assert.True(t, dec("6").Equal(got.PaidBy[0].Amount))
		assert.True(t, got.Settleable())
	})

	t.Run("deactivated items drop out of the active list", func(t *testing.T) {
		other := &models.OrderItem{SessionID: session.ID, RequestedBy: "bob", Label: "Tea", Quantity: 1}
		require.NoError(t, store.CreateOrderItem(ctx, other))

		items, err := store.ListActiveItems(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		require.NoError(t, store.DeactivateOrderItem(ctx, other.ID))

		items, err = store.ListActiveItems(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)

		assert.ErrorIs(t, store.DeactivateOrderItem(ctx, other.ID), apperr.ErrItemNotFound)
		assert.ErrorIs(t, store.PriceOrderItem(ctx, other.ID, dec("1"), nil), apperr.ErrItemNotFound)
	})

	t.Run("missing item and session", func(t *testing.T) {
		_, err := store.GetOrderItem(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, apperr.ErrItemNotFound)

		err = store.CreateOrderItem(ctx, &models.OrderItem{SessionID: "nonexistent-id", RequestedBy: "a", Label: "x", Quantity: 1})
		assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	})

	t.Run("items are frozen once the session leaves OPEN", func(t *testing.T) {
		require.NoError(t, store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing))

		err := store.CreateOrderItem(ctx, &models.OrderItem{SessionID: session.ID, RequestedBy: "a", Label: "Late", Quantity: 1})
		assert.ErrorIs(t, err, apperr.ErrSessionNotOpen)
		assert.ErrorIs(t, store.PriceOrderItem(ctx, item.ID, dec("9"), nil), apperr.ErrSessionNotOpen)
		assert.ErrorIs(t, store.DeactivateOrderItem(ctx, item.ID), apperr.ErrSessionNotOpen)

		got, err := store.GetOrderItem(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, dec("4.5").Equal(*got.Price))
	})
}

func TestSQLiteStore_SaveSettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	f := newSettledFixture(t, store, "g")

	t.Run("settlement round trip", func(t *testing.T) {
		got, err := store.GetSettlement(ctx, f.settlement.ID)
		require.NoError(t, err)

		assert.Equal(t, f.session.ID, got.SessionID)
		assert.Equal(t, models.SettlementActive, got.Status)
		assert.True(t, dec("240").Equal(got.TotalAmount))
		assert.Equal(t, fixedTime, got.CreatedAt)
		require.Len(t, got.Transactions, 2)
		assert.Equal(t, "B", got.Transactions[0].To)
		assert.Equal(t, "C", got.Transactions[1].To)
		assert.True(t, dec("30").Equal(got.Transactions[1].Amount))
		assert.Nil(t, got.Transactions[0].PaidAt)

		bySession, err := store.GetSettlementBySession(ctx, f.session.ID)
		require.NoError(t, err)
		assert.Equal(t, f.settlement.ID, bySession.ID)
	})

	t.Run("session moves to SETTLED", func(t *testing.T) {
		got, err := store.GetSession(ctx, f.session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionSettled, got.Status)
	})

	t.Run("ledger entries and rollup are written", func(t *testing.T) {
		entries, total, err := store.ListUserEntries(ctx, "A", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryConsumption, entries[0].Type)
		assert.Equal(t, "Steak", entries[0].Metadata.ItemName)
		assert.Empty(t, entries[0].SettlementID)

		totals, err := store.MonthlyTotals(ctx, "B", "")
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, "2026-10", totals[0].Period)
		assert.Equal(t, models.EntryPayment, totals[0].Type)
		assert.True(t, dec("300").Equal(totals[0].Total))
		assert.Equal(t, 1, totals[0].EntryCount)
	})

	t.Run("missing settlement", func(t *testing.T) {
		_, err := store.GetSettlement(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, apperr.ErrSettlementNotFound)
		_, err = store.GetSettlementBySession(ctx, "nonexistent-id")
		assert.ErrorIs(t, err, apperr.ErrSettlementNotFound)
	})
}

func TestSQLiteStore_SaveSettlementIsAtomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Session is OPEN, not PROCESSING, so the final transition fails.
	session := &models.Session{GroupID: "g", CreatedBy: "A", Title: "Lunch"}
	require.NoError(t, store.CreateSession(ctx, session))

	settlement := &models.Settlement{
		ID: uuid.New().String(), SessionID: session.ID, ComputedBy: "A", TotalAmount: dec("5"),
		Status: models.SettlementActive, CreatedAt: fixedTime, UpdatedAt: fixedTime,
	}
	entries := []models.LedgerEntry{{
		ID: uuid.New().String(), UserID: "A", SessionID: session.ID, GroupID: "g",
		Type: models.EntryConsumption, Amount: dec("5"), CreatedAt: fixedTime,
	}}

	err := store.SaveSettlement(ctx, settlement, entries)
	assert.ErrorIs(t, err, apperr.ErrStatusMismatch)

	_, err = store.GetSettlementBySession(ctx, session.ID)
	assert.ErrorIs(t, err, apperr.ErrSettlementNotFound)

	_, total, err := store.ListUserEntries(ctx, "A", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	totals, err := store.MonthlyTotals(ctx, "A", "")
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestSQLiteStore_LedgerIsAppendOnly(t *testing.T) {
	store := newTestStore(t)
	newSettledFixture(t, store, "g")

	_, err := store.db.Exec("UPDATE ledger_entries SET amount = '0.00'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	_, err = store.db.Exec("DELETE FROM ledger_entries")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append-only")

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM ledger_entries").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_ConfirmTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newSettledFixture(t, store, "g")
	paidAt := fixedTime.Add(time.Hour)

	t.Run("first confirmation leaves the settlement active", func(t *testing.T) {
		completed, err := store.ConfirmTransaction(ctx, confirmation(f, 0, paidAt))
		require.NoError(t, err)
		assert.False(t, completed)

		got, err := store.GetSettlement(ctx, f.settlement.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SettlementActive, got.Status)
		assert.Equal(t, models.TransactionPaid, got.Transactions[0].Status)
		assert.Equal(t, "B", got.Transactions[0].ConfirmedBy)
		require.NotNil(t, got.Transactions[0].PaidAt)
		assert.Equal(t, paidAt, *got.Transactions[0].PaidAt)
		assert.Equal(t, models.TransactionPending, got.Transactions[1].Status)
	})

	t.Run("double confirmation is rejected without new entries", func(t *testing.T) {
		_, before, err := store.ListUserEntries(ctx, "B", 10, 0)
		require.NoError(t, err)

		_, err = store.ConfirmTransaction(ctx, confirmation(f, 0, paidAt))
		assert.ErrorIs(t, err, apperr.ErrAlreadyConfirmed)

		_, after, err := store.ListUserEntries(ctx, "B", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		c := confirmation(f, 1, paidAt)
		c.TransactionID = "nonexistent-id"
		_, err := store.ConfirmTransaction(ctx, c)
		assert.ErrorIs(t, err, apperr.ErrTransactionNotFound)
	})

	t.Run("pending transactions are listed per user", func(t *testing.T) {
		pending, err := store.ListPendingTransactions(ctx, "A")
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "C", pending[0].To)
		assert.Equal(t, f.session.ID, pending[0].SessionID)
		assert.Equal(t, "g", pending[0].GroupID)

		pending, err = store.ListPendingTransactions(ctx, "B")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("last confirmation completes settlement and session", func(t *testing.T) {
		completed, err := store.ConfirmTransaction(ctx, confirmation(f, 1, paidAt))
		require.NoError(t, err)
		assert.True(t, completed)

		got, err := store.GetSettlement(ctx, f.settlement.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SettlementCompleted, got.Status)
		assert.True(t, got.FullyPaid())

		session, err := store.GetSession(ctx, f.session.ID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionCompleted, session.Status)

		pending, err := store.ListPendingTransactions(ctx, "A")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("settlement entries reach the rollup", func(t *testing.T) {
		totals, err := store.MonthlyTotals(ctx, "A", "2026-10")
		require.NoError(t, err)

		byType := make(map[models.EntryType]decimal.Decimal)
		for _, m := range totals {
			byType[m.Type] = m.Total
		}
		assert.True(t, dec("300").Equal(byType[models.EntryConsumption]))
		assert.True(t, dec("240").Equal(byType[models.EntrySettlementOut]))
	})
}

func TestSQLiteStore_ConcurrentConfirm(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newSettledFixture(t, store, "g")

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.ConfirmTransaction(ctx, confirmation(f, 0, fixedTime))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrAlreadyConfirmed)
	}
	assert.Equal(t, 1, succeeded)

	entries, _, err := store.ListUserEntries(ctx, "B", 50, 0)
	require.NoError(t, err)
	settlementIn := 0
	for _, e := range entries {
		if e.Type == models.EntrySettlementIn {
			settlementIn++
		}
	}
	assert.Equal(t, 1, settlementIn)
}

func TestSQLiteStore_ConcurrentClaim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := &models.Session{GroupID: "g", CreatedBy: "A", Title: "Race"}
	require.NoError(t, store.CreateSession(ctx, session))

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.TransitionSession(ctx, session.ID, models.SessionOpen, models.SessionProcessing)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, succeeded)
}

func TestSQLiteStore_ListUserEntriesPaging(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	f := newSettledFixture(t, store, "g")

	// A ends up with one consumption and two settlement entries
	_, err := store.ConfirmTransaction(ctx, confirmation(f, 0, fixedTime.Add(time.Minute)))
	require.NoError(t, err)
	_, err = store.ConfirmTransaction(ctx, confirmation(f, 1, fixedTime.Add(2*time.Minute)))
	require.NoError(t, err)

	page, total, err := store.ListUserEntries(ctx, "A", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt), "newest first")

	last, _, err := store.ListUserEntries(ctx, "A", 2, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "Steak", last[0].Metadata.ItemName)

	since, err := store.ListUserEntriesSince(ctx, "A", models.EntrySettlementOut, "2026-10")
	require.NoError(t, err)
	assert.Len(t, since, 2)

	since, err = store.ListUserEntriesSince(ctx, "A", models.EntrySettlementOut, "2026-11")
	require.NoError(t, err)
	assert.Empty(t, since)
}

func TestSQLiteStore_ListUserSettlements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var fixtures []settledFixture
	for i := 0; i < 2; i++ {
		fixtures = append(fixtures, newSettledFixture(t, store, fmt.Sprintf("g%d", i)))
	}
	_, err := store.ConfirmTransaction(ctx, confirmation(fixtures[0], 0, fixedTime))
	require.NoError(t, err)
	_, err = store.ConfirmTransaction(ctx, confirmation(fixtures[0], 1, fixedTime))
	require.NoError(t, err)

	all, err := store.ListUserSettlements(ctx, "C", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := store.ListUserSettlements(ctx, "C", models.SettlementCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, fixtures[0].settlement.ID, completed[0].ID)

	none, err := store.ListUserSettlements(ctx, "Z", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

const itemColumns = `id, session_id, requested_by, label, quantity, options, raw_text,
	price, price_confirmed, paid_by, active, created_at`

// CreateOrderItem persists a new item if its session is OPEN.
func (s *SQLiteStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	// Generate ID if not set
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Active = true

	options, err := marshalJSON(nonNil(item.Options))
	if err != nil {
		return apperr.Persistence("encode item options", err)
	}
	paidBy, err := marshalJSON(nonNilAllocations(item.PaidBy))
	if err != nil {
		return apperr.Persistence("encode payer allocations", err)
	}
	var price any
	if item.Price != nil {
		price = formatAmount(*item.Price)
	}

	// Insert only while the session accepts items
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO order_items (`+itemColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?
		 WHERE EXISTS (SELECT 1 FROM sessions WHERE id = ? AND status = 'OPEN')`,
		item.ID, item.SessionID, item.RequestedBy, item.Label, item.Quantity, options, item.RawText,
		price, boolToInt(item.PriceConfirmed), paidBy, toMillis(item.CreatedAt),
		item.SessionID,
	)
	if err != nil {
		return apperr.Persistence("insert order item", err)
	}
	return s.explainSessionMiss(ctx, res, "insert order item", item.SessionID)
}

// GetOrderItem retrieves an item by ID, active or not.
func (s *SQLiteStore) GetOrderItem(ctx context.Context, itemID string) (*models.OrderItem, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM order_items WHERE id = ?",
		itemID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrItemNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get order item", err)
	}
	return item, nil
}

// ListActiveItems returns the session's non-deleted items in creation order.
func (s *SQLiteStore) ListActiveItems(ctx context.Context, sessionID string) ([]models.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+` FROM order_items
		 WHERE session_id = ? AND active = 1 ORDER BY created_at, rowid`,
		sessionID,
	)
	if err != nil {
		return nil, apperr.Persistence("list order items", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, apperr.Persistence("scan order item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate order items", err)
	}
	return items, nil
}

// PriceOrderItem confirms an item's unit price and payer allocations.
func (s *SQLiteStore) PriceOrderItem(ctx context.Context, itemID string, price decimal.Decimal, paidBy []models.PayerAllocation) error {
	encoded, err := marshalJSON(nonNilAllocations(paidBy))
	if err != nil {
		return apperr.Persistence("encode payer allocations", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE order_items SET price = ?, price_confirmed = 1, paid_by = ?
		 WHERE id = ? AND active = 1
		   AND session_id IN (SELECT id FROM sessions WHERE status = 'OPEN')`,
		formatAmount(price), encoded, itemID,
	)
	if err != nil {
		return apperr.Persistence("price order item", err)
	}
	return s.explainItemMiss(ctx, res, "price order item", itemID)
}

// DeactivateOrderItem soft-deletes an item.
func (s *SQLiteStore) DeactivateOrderItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE order_items SET active = 0
		 WHERE id = ? AND active = 1
		   AND session_id IN (SELECT id FROM sessions WHERE status = 'OPEN')`,
		itemID,
	)
	if err != nil {
		return apperr.Persistence("deactivate order item", err)
	}
	return s.explainItemMiss(ctx, res, "deactivate order item", itemID)
}

// explainSessionMiss maps a zero-row conditional write on a session's items
// to not-found or not-open.
func (s *SQLiteStore) explainSessionMiss(ctx context.Context, res sql.Result, op, sessionID string) error {
	err := expectOneRow(res, op, apperr.ErrSessionNotOpen)
	if !errors.Is(err, apperr.ErrSessionNotOpen) {
		return err
	}
	if _, getErr := s.GetSession(ctx, sessionID); getErr != nil {
		return getErr
	}
	return err
}

// explainItemMiss maps a zero-row conditional item update to item-not-found
// (missing or deleted) or session-not-open.
func (s *SQLiteStore) explainItemMiss(ctx context.Context, res sql.Result, op, itemID string) error {
	err := expectOneRow(res, op, apperr.ErrSessionNotOpen)
	if !errors.Is(err, apperr.ErrSessionNotOpen) {
		return err
	}
	item, getErr := s.GetOrderItem(ctx, itemID)
	if getErr != nil {
		return getErr
	}
	if !item.Active {
		return apperr.ErrItemNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var options, paidBy string
	var price sql.NullString
	var createdAt int64

	if err := row.Scan(&item.ID, &item.SessionID, &item.RequestedBy, &item.Label, &item.Quantity,
		&options, &item.RawText, &price, &item.PriceConfirmed, &paidBy, &item.Active, &createdAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(options), &item.Options); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paidBy), &item.PaidBy); err != nil {
		return nil, err
	}
	if price.Valid {
		p, err := parseAmount(price.String)
		if err != nil {
			return nil, err
		}
		item.Price = &p
	}
	item.CreatedAt = fromMillis(createdAt)
	return item, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilAllocations(a []models.PayerAllocation) []models.PayerAllocation {
	if a == nil {
		return []models.PayerAllocation{}
	}
	return a
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/models"
)

const itemColumns = `id, session_id, requested_by, label, quantity, options::text, raw_text,
	price::text, price_confirmed, paid_by::text, active, created_at`

// CreateOrderItem persists a new item if its session is OPEN.
func (s *PostgresStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	item.Active = true

	options, err := json.Marshal(nonNil(item.Options))
	if err != nil {
		return apperr.Persistence("encode item options", err)
	}
	paidBy, err := json.Marshal(nonNilAllocations(item.PaidBy))
	if err != nil {
		return apperr.Persistence("encode payer allocations", err)
	}
	var price *string
	if item.Price != nil {
		p := formatAmount(*item.Price)
		price = &p
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO order_items (id, session_id, requested_by, label, quantity, options, raw_text,
		                          price, price_confirmed, paid_by, active, created_at)
		 SELECT $1, $2, $3, $4, $5, $6::jsonb, $7, $8::numeric, $9, $10::jsonb, TRUE, $11
		 WHERE EXISTS (SELECT 1 FROM sessions WHERE id = $2 AND status = 'OPEN')`,
		item.ID, item.SessionID, item.RequestedBy, item.Label, item.Quantity, string(options), item.RawText,
		price, item.PriceConfirmed, string(paidBy), item.CreatedAt,
	)
	if err != nil {
		return apperr.Persistence("insert order item", err)
	}
	if err := expectOneRow(tag, apperr.ErrSessionNotOpen); err != nil {
		if _, getErr := s.GetSession(ctx, item.SessionID); getErr != nil {
			return getErr
		}
		return err
	}
	return nil
}

// GetOrderItem retrieves an item by ID, active or not.
func (s *PostgresStore) GetOrderItem(ctx context.Context, itemID string) (*models.OrderItem, error) {
	item, err := scanItem(s.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM order_items WHERE id = $1",
		itemID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrItemNotFound
	}
	if err != nil {
		return nil, apperr.Persistence("get order item", err)
	}
	return item, nil
}

// ListActiveItems returns the session's non-deleted items in creation order.
func (s *PostgresStore) ListActiveItems(ctx context.Context, sessionID string) ([]models.OrderItem, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+itemColumns+` FROM order_items
		 WHERE session_id = $1 AND active ORDER BY created_at, seq`,
		sessionID,
	)
	if err != nil {
		return nil, apperr.Persistence("list order items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OrderItem, error) {
		item, err := scanItem(row)
		if err != nil {
			return models.OrderItem{}, err
		}
		return *item, nil
	})
	if err != nil {
		return nil, apperr.Persistence("scan order items", err)
	}
	return items, nil
}

// PriceOrderItem confirms an item's unit price and payer allocations.
func (s *PostgresStore) PriceOrderItem(ctx context.Context, itemID string, price decimal.Decimal, paidBy []models.PayerAllocation) error {
	encoded, err := json.Marshal(nonNilAllocations(paidBy))
	if err != nil {
		return apperr.Persistence("encode payer allocations", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE order_items SET price = $1::numeric, price_confirmed = TRUE, paid_by = $2::jsonb
		 WHERE id = $3 AND active
		   AND session_id IN (SELECT id FROM sessions WHERE status = 'OPEN')`,
		formatAmount(price), string(encoded), itemID,
	)
	if err != nil {
		return apperr.Persistence("price order item", err)
	}
	return s.explainItemMiss(ctx, tag, itemID)
}

// DeactivateOrderItem soft-deletes an item.
func (s *PostgresStore) DeactivateOrderItem(ctx context.Context, itemID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE order_items SET active = FALSE
		 WHERE id = $1 AND active
		   AND session_id IN (SELECT id FROM sessions WHERE status = 'OPEN')`,
		itemID,
	)
	if err != nil {
		return apperr.Persistence("deactivate order item", err)
	}
	return s.explainItemMiss(ctx, tag, itemID)
}

// explainItemMiss maps a zero-row conditional item update to item-not-found
// (missing or deleted) or session-not-open.
func (s *PostgresStore) explainItemMiss(ctx context.Context, tag pgconn.CommandTag, itemID string) error {
	err := expectOneRow(tag, apperr.ErrSessionNotOpen)
	if err == nil {
		return nil
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

func scanItem(row pgx.Row) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var options, paidBy string
	var price *string

	if err := row.Scan(&item.ID, &item.SessionID, &item.RequestedBy, &item.Label, &item.Quantity,
		&options, &item.RawText, &price, &item.PriceConfirmed, &paidBy, &item.Active, &item.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(options), &item.Options); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paidBy), &item.PaidBy); err != nil {
		return nil, err
	}
	if price != nil {
		p, err := parseAmount(*price)
		if err != nil {
			return nil, err
		}
		item.Price = &p
	}
	item.CreatedAt = item.CreatedAt.UTC()
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

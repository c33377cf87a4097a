package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/apperr"
	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// IntakeService lets group members manage rosters, sessions and order items
// so a session can be driven up to settlement.
type IntakeService struct {
	store storage.Store
}

// NewIntakeService creates a new IntakeService with the given storage backend.
func NewIntakeService(store storage.Store) *IntakeService {
	return &IntakeService{store: store}
}

// AddGroupMember adds or updates a member of a group. The first member of an
// empty group may only add themselves, and always as admin.
func (s *IntakeService) AddGroupMember(ctx context.Context, req *connect.Request[AddGroupMemberRequest]) (*connect.Response[AddGroupMemberResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("AddGroupMember", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("AddGroupMember", err)
	}

	slog.Info("AddGroupMember request received",
		"group_id", req.Msg.GroupID,
		"user_id", req.Msg.UserID,
		"role", req.Msg.Role,
	)

	roster, err := s.store.ListActiveMemberIDs(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("AddGroupMember", err)
	}

	membership := &models.Membership{
		GroupID: req.Msg.GroupID,
		UserID:  req.Msg.UserID,
		Role:    req.Msg.Role,
		Active:  true,
	}

	if len(roster) == 0 {
		// Bootstrap: the founder becomes the first admin
		if req.Msg.UserID != caller {
			return nil, toConnectError("AddGroupMember", apperr.ErrAdminRequired)
		}
		membership.Role = models.RoleAdmin
	} else if err := s.requireAdmin(ctx, req.Msg.GroupID, caller); err != nil {
		return nil, toConnectError("AddGroupMember", err)
	}

	if err := s.store.UpsertMembership(ctx, membership); err != nil {
		return nil, toConnectError("AddGroupMember", err)
	}

	slog.Info("Member added", "group_id", membership.GroupID, "user_id", membership.UserID, "role", membership.Role)

	return connect.NewResponse(&AddGroupMemberResponse{Membership: membership}), nil
}

// OpenSession opens a new session in a group. A group has at most one open
// session at a time.
func (s *IntakeService) OpenSession(ctx context.Context, req *connect.Request[OpenSessionRequest]) (*connect.Response[SessionResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("OpenSession", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("OpenSession", err)
	}

	slog.Info("OpenSession request received", "group_id", req.Msg.GroupID, "title", req.Msg.Title)

	if _, err := s.requireMember(ctx, req.Msg.GroupID, caller); err != nil {
		return nil, toConnectError("OpenSession", err)
	}

	session := &models.Session{
		GroupID:   req.Msg.GroupID,
		CreatedBy: caller,
		Title:     req.Msg.Title,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, toConnectError("OpenSession", err)
	}

	slog.Info("Session opened", "session_id", session.ID, "group_id", session.GroupID)

	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// GetSession returns a session with its active order items.
func (s *IntakeService) GetSession(ctx context.Context, req *connect.Request[GetSessionRequest]) (*connect.Response[SessionResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("GetSession", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("GetSession", err)
	}

	session, err := s.store.GetSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError("GetSession", err)
	}
	if _, err := s.requireMember(ctx, session.GroupID, caller); err != nil {
		return nil, toConnectError("GetSession", err)
	}

	items, err := s.store.ListActiveItems(ctx, session.ID)
	if err != nil {
		return nil, toConnectError("GetSession", err)
	}

	slog.Info("GetSession successful", "session_id", session.ID, "status", session.Status, "items", len(items))

	return connect.NewResponse(&SessionResponse{Session: session, Items: items}), nil
}

// AddOrderItem records an item requested in an open session.
func (s *IntakeService) AddOrderItem(ctx context.Context, req *connect.Request[AddOrderItemRequest]) (*connect.Response[OrderItemResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("AddOrderItem", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("AddOrderItem", err)
	}

	slog.Info("AddOrderItem request received",
		"session_id", req.Msg.SessionID,
		"label", req.Msg.Label,
		"quantity", req.Msg.Quantity,
	)

	session, err := s.store.GetSession(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError("AddOrderItem", err)
	}
	if _, err := s.requireMember(ctx, session.GroupID, caller); err != nil {
		return nil, toConnectError("AddOrderItem", err)
	}

	requestedBy := req.Msg.RequestedBy
	if requestedBy == "" {
		requestedBy = caller
	} else if requestedBy != caller {
		if _, err := s.requireMember(ctx, session.GroupID, requestedBy); err != nil {
			return nil, toConnectError("AddOrderItem", apperr.Invalid("requested_by", "%s is not a member of the group", requestedBy))
		}
	}

	item := &models.OrderItem{
		SessionID:   session.ID,
		RequestedBy: requestedBy,
		Label:       req.Msg.Label,
		Quantity:    req.Msg.Quantity,
		Options:     req.Msg.Options,
		RawText:     req.Msg.RawText,
	}
	if err := s.store.CreateOrderItem(ctx, item); err != nil {
		return nil, toConnectError("AddOrderItem", err)
	}

	slog.Info("Order item added", "item_id", item.ID, "session_id", item.SessionID)

	return connect.NewResponse(&OrderItemResponse{Item: item}), nil
}

// ConfirmItemPrice sets an item's unit price and who paid for it. The
// allocations must add up to price * quantity.
func (s *IntakeService) ConfirmItemPrice(ctx context.Context, req *connect.Request[ConfirmItemPriceRequest]) (*connect.Response[OrderItemResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}

	slog.Info("ConfirmItemPrice request received",
		"item_id", req.Msg.ItemID,
		"price", req.Msg.Price.String(),
		"payers", len(req.Msg.PaidBy),
	)

	item, session, err := s.itemWithSession(ctx, req.Msg.ItemID)
	if err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}
	if _, err := s.requireMember(ctx, session.GroupID, caller); err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}

	roster, err := s.store.ListActiveMemberIDs(ctx, session.GroupID)
	if err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}
	if err := checkAllocations(item, req.Msg, roster); err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}

	price := req.Msg.Price.Round(2)
	if err := s.store.PriceOrderItem(ctx, item.ID, price, req.Msg.PaidBy); err != nil {
		return nil, toConnectError("ConfirmItemPrice", err)
	}

	item.Price = &price
	item.PriceConfirmed = true
	item.PaidBy = req.Msg.PaidBy

	slog.Info("Item price confirmed", "item_id", item.ID, "total", item.Total().StringFixed(2))

	return connect.NewResponse(&OrderItemResponse{Item: item}), nil
}

// RemoveOrderItem soft-deletes an item. Only the requester or a group admin
// may remove it.
func (s *IntakeService) RemoveOrderItem(ctx context.Context, req *connect.Request[RemoveOrderItemRequest]) (*connect.Response[OrderItemResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("RemoveOrderItem", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("RemoveOrderItem", err)
	}

	slog.Info("RemoveOrderItem request received", "item_id", req.Msg.ItemID)

	item, session, err := s.itemWithSession(ctx, req.Msg.ItemID)
	if err != nil {
		return nil, toConnectError("RemoveOrderItem", err)
	}

	if item.RequestedBy != caller {
		m, err := s.store.GetMembership(ctx, session.GroupID, caller)
		if err != nil && !errors.Is(err, apperr.ErrMembershipNotFound) {
			return nil, toConnectError("RemoveOrderItem", err)
		}
		if !m.IsAdmin() {
			return nil, toConnectError("RemoveOrderItem", apperr.ErrNotItemOwner)
		}
	}

	if err := s.store.DeactivateOrderItem(ctx, item.ID); err != nil {
		return nil, toConnectError("RemoveOrderItem", err)
	}
	item.Active = false

	slog.Info("Order item removed", "item_id", item.ID, "session_id", item.SessionID)

	return connect.NewResponse(&OrderItemResponse{Item: item}), nil
}

func (s *IntakeService) itemWithSession(ctx context.Context, itemID string) (*models.OrderItem, *models.Session, error) {
	item, err := s.store.GetOrderItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !item.Active {
		return nil, nil, apperr.ErrItemNotFound
	}
	session, err := s.store.GetSession(ctx, item.SessionID)
	if err != nil {
		return nil, nil, err
	}
	return item, session, nil
}

func (s *IntakeService) requireMember(ctx context.Context, groupID, userID string) (*models.Membership, error) {
	m, err := s.store.GetMembership(ctx, groupID, userID)
	if errors.Is(err, apperr.ErrMembershipNotFound) {
		return nil, apperr.ErrNotMember
	}
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, apperr.ErrNotMember
	}
	return m, nil
}

func (s *IntakeService) requireAdmin(ctx context.Context, groupID, userID string) error {
	m, err := s.requireMember(ctx, groupID, userID)
	if errors.Is(err, apperr.ErrNotMember) {
		return apperr.ErrAdminRequired
	}
	if err != nil {
		return err
	}
	if !m.IsAdmin() {
		return apperr.ErrAdminRequired
	}
	return nil
}

// checkAllocations validates a price confirmation against the item and the
// group roster.
func checkAllocations(item *models.OrderItem, req *ConfirmItemPriceRequest, roster []string) error {
	if !req.Price.IsPositive() {
		return apperr.Invalid("price", "must be positive")
	}

	seen := make(map[string]bool, len(req.PaidBy))
	paid := decimal.Zero
	for _, p := range req.PaidBy {
		if p.UserID == "" {
			return apperr.Invalid("paid_by", "payer user id is required")
		}
		if seen[p.UserID] {
			return apperr.Invalid("paid_by", "payer %s listed twice", p.UserID)
		}
		seen[p.UserID] = true
		if !p.Amount.IsPositive() {
			return apperr.Invalid("paid_by", "amount for %s must be positive", p.UserID)
		}
		if !slices.Contains(roster, p.UserID) {
			return apperr.Invalid("paid_by", "%s is not a member of the group", p.UserID)
		}
		paid = paid.Add(p.Amount)
	}

	total := req.Price.Round(2).Mul(decimal.NewFromInt(int64(item.Quantity)))
	if paid.Sub(total).Abs().GreaterThan(calculator.Epsilon) {
		return fmt.Errorf("%w: paid %s, total %s", apperr.ErrAllocationMismatch, paid.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

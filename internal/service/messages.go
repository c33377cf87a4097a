package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/reports"
)

// Requests carry no caller identity: the caller is always the user of the
// bearer token.

type ComputeSettlementRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// GetSettlementRequest looks a settlement up by its ID or by its session.
type GetSettlementRequest struct {
	SettlementID string `json:"settlement_id" validate:"required_without=SessionID"`
	SessionID    string `json:"session_id" validate:"required_without=SettlementID"`
}

type ConfirmTransactionRequest struct {
	SettlementID  string `json:"settlement_id" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"required"`
}

type ListUserSettlementsRequest struct {
	Status models.SettlementStatus `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED CANCELLED"`
}

type SettlementResponse struct {
	Settlement *models.Settlement `json:"settlement"`
}

type ListUserSettlementsResponse struct {
	Settlements []*models.Settlement `json:"settlements"`
}

type ListUserLedgerRequest struct {
	Page     int `json:"page" validate:"min=0"`
	PageSize int `json:"page_size" validate:"min=0"`
}

type ListUserLedgerResponse struct {
	Ledger *reports.PagedLedgerEntries `json:"ledger"`
}

type GetBalanceSummaryRequest struct{}

type GetBalanceSummaryResponse struct {
	Summary *reports.BalanceSummary `json:"summary"`
}

type GetSpendingAnalyticsRequest struct {
	Months int `json:"months" validate:"min=0,max=24"`
}

type GetSpendingAnalyticsResponse struct {
	Analytics *reports.SpendingAnalytics `json:"analytics"`
}

type AddGroupMemberRequest struct {
	GroupID string      `json:"group_id" validate:"required"`
	UserID  string      `json:"user_id" validate:"required"`
	Role    models.Role `json:"role" validate:"required,oneof=admin member"`
}

type AddGroupMemberResponse struct {
	Membership *models.Membership `json:"membership"`
}

type OpenSessionRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
}

type GetSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type SessionResponse struct {
	Session *models.Session    `json:"session"`
	Items   []models.OrderItem `json:"items,omitempty"`
}

type AddOrderItemRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	// RequestedBy defaults to the caller.
	RequestedBy string   `json:"requested_by"`
	Label       string   `json:"label" validate:"required,max=200"`
	Quantity    int      `json:"quantity" validate:"min=1"`
	Options     []string `json:"options" validate:"max=20,dive,max=100"`
	RawText     string   `json:"raw_text" validate:"max=2000"`
}

type ConfirmItemPriceRequest struct {
	ItemID string                   `json:"item_id" validate:"required"`
	Price  decimal.Decimal          `json:"price"`
	PaidBy []models.PayerAllocation `json:"paid_by" validate:"min=1,dive"`
}

type RemoveOrderItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type OrderItemResponse struct {
	Item *models.OrderItem `json:"item"`
}

package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/reports"
	"github.com/mmynk/tabsettle/internal/settlement"
)

// SettlementService exposes settlement computation and payment confirmation.
type SettlementService struct {
	engine   *settlement.Engine
	reporter *reports.Reporter
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(engine *settlement.Engine, reporter *reports.Reporter) *SettlementService {
	return &SettlementService{engine: engine, reporter: reporter}
}

// ComputeSettlement computes the payment plan of a session. Only admins of
// the session's group may call it.
func (s *SettlementService) ComputeSettlement(ctx context.Context, req *connect.Request[ComputeSettlementRequest]) (*connect.Response[SettlementResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ComputeSettlement", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("ComputeSettlement", err)
	}

	slog.Info("ComputeSettlement request received",
		"session_id", req.Msg.SessionID,
		"requester", caller,
	)

	st, err := s.engine.ComputeSettlement(ctx, req.Msg.SessionID, caller)
	if err != nil {
		return nil, toConnectError("ComputeSettlement", err)
	}

	return connect.NewResponse(&SettlementResponse{Settlement: st}), nil
}

// GetSettlement returns a settlement by ID or by session. Only members of
// the session's group may read it.
func (s *SettlementService) GetSettlement(ctx context.Context, req *connect.Request[GetSettlementRequest]) (*connect.Response[SettlementResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("GetSettlement", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("GetSettlement", err)
	}

	slog.Info("GetSettlement request received",
		"settlement_id", req.Msg.SettlementID,
		"session_id", req.Msg.SessionID,
	)

	resp := &SettlementResponse{}
	if req.Msg.SettlementID != "" {
		resp.Settlement, err = s.engine.GetSettlement(ctx, req.Msg.SettlementID, caller)
	} else {
		resp.Settlement, err = s.engine.GetSessionSettlement(ctx, req.Msg.SessionID, caller)
	}
	if err != nil {
		return nil, toConnectError("GetSettlement", err)
	}

	return connect.NewResponse(resp), nil
}

// ConfirmTransaction records that the caller, as receiver, got paid.
func (s *SettlementService) ConfirmTransaction(ctx context.Context, req *connect.Request[ConfirmTransactionRequest]) (*connect.Response[SettlementResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ConfirmTransaction", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("ConfirmTransaction", err)
	}

	slog.Info("ConfirmTransaction request received",
		"settlement_id", req.Msg.SettlementID,
		"transaction_id", req.Msg.TransactionID,
		"confirmer", caller,
	)

	st, err := s.engine.ConfirmTransaction(ctx, req.Msg.SettlementID, req.Msg.TransactionID, caller)
	if err != nil {
		return nil, toConnectError("ConfirmTransaction", err)
	}

	return connect.NewResponse(&SettlementResponse{Settlement: st}), nil
}

// ListUserSettlements lists the caller's settlements, optionally by status.
func (s *SettlementService) ListUserSettlements(ctx context.Context, req *connect.Request[ListUserSettlementsRequest]) (*connect.Response[ListUserSettlementsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ListUserSettlements", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("ListUserSettlements", err)
	}

	settlements, err := s.reporter.ListUserSettlements(ctx, caller, req.Msg.Status)
	if err != nil {
		return nil, toConnectError("ListUserSettlements", err)
	}

	slog.Info("ListUserSettlements successful", "user_id", caller, "count", len(settlements))

	return connect.NewResponse(&ListUserSettlementsResponse{Settlements: settlements}), nil
}

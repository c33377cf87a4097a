package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	SettlementServiceName = "tabsettle.v1.SettlementService"
	LedgerServiceName     = "tabsettle.v1.LedgerService"
	IntakeServiceName     = "tabsettle.v1.IntakeService"
)

// Procedure paths, one per RPC.
const (
	ComputeSettlementProcedure   = "/" + SettlementServiceName + "/ComputeSettlement"
	GetSettlementProcedure       = "/" + SettlementServiceName + "/GetSettlement"
	ConfirmTransactionProcedure  = "/" + SettlementServiceName + "/ConfirmTransaction"
	ListUserSettlementsProcedure = "/" + SettlementServiceName + "/ListUserSettlements"

	ListUserLedgerProcedure       = "/" + LedgerServiceName + "/ListUserLedger"
	GetBalanceSummaryProcedure    = "/" + LedgerServiceName + "/GetBalanceSummary"
	GetSpendingAnalyticsProcedure = "/" + LedgerServiceName + "/GetSpendingAnalytics"

	AddGroupMemberProcedure   = "/" + IntakeServiceName + "/AddGroupMember"
	OpenSessionProcedure      = "/" + IntakeServiceName + "/OpenSession"
	GetSessionProcedure       = "/" + IntakeServiceName + "/GetSession"
	AddOrderItemProcedure     = "/" + IntakeServiceName + "/AddOrderItem"
	ConfirmItemPriceProcedure = "/" + IntakeServiceName + "/ConfirmItemPrice"
	RemoveOrderItemProcedure  = "/" + IntakeServiceName + "/RemoveOrderItem"
)

// Services groups the RPC implementations served by NewHandler.
type Services struct {
	Settlement *SettlementService
	Ledger     *LedgerService
	Intake     *IntakeService
}

func unary[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// NewHandler mounts every procedure on a new mux. opts typically carry the
// interceptor chain.
func NewHandler(svc Services, opts ...connect.HandlerOption) *http.ServeMux {
	mux := http.NewServeMux()

	unary(mux, ComputeSettlementProcedure, svc.Settlement.ComputeSettlement, opts)
	unary(mux, GetSettlementProcedure, svc.Settlement.GetSettlement, opts)
	unary(mux, ConfirmTransactionProcedure, svc.Settlement.ConfirmTransaction, opts)
	unary(mux, ListUserSettlementsProcedure, svc.Settlement.ListUserSettlements, opts)

	unary(mux, ListUserLedgerProcedure, svc.Ledger.ListUserLedger, opts)
	unary(mux, GetBalanceSummaryProcedure, svc.Ledger.GetBalanceSummary, opts)
	unary(mux, GetSpendingAnalyticsProcedure, svc.Ledger.GetSpendingAnalytics, opts)

	unary(mux, AddGroupMemberProcedure, svc.Intake.AddGroupMember, opts)
	unary(mux, OpenSessionProcedure, svc.Intake.OpenSession, opts)
	unary(mux, GetSessionProcedure, svc.Intake.GetSession, opts)
	unary(mux, AddOrderItemProcedure, svc.Intake.AddOrderItem, opts)
	unary(mux, ConfirmItemPriceProcedure, svc.Intake.ConfirmItemPrice, opts)
	unary(mux, RemoveOrderItemProcedure, svc.Intake.RemoveOrderItem, opts)

	return mux
}

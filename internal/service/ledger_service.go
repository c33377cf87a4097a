package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/reports"
)

// LedgerService exposes the caller's ledger history and dashboards.
type LedgerService struct {
	reporter *reports.Reporter
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(reporter *reports.Reporter) *LedgerService {
	return &LedgerService{reporter: reporter}
}

// ListUserLedger returns one page of the caller's ledger, newest first.
func (s *LedgerService) ListUserLedger(ctx context.Context, req *connect.Request[ListUserLedgerRequest]) (*connect.Response[ListUserLedgerResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("ListUserLedger", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("ListUserLedger", err)
	}

	page, err := s.reporter.ListUserLedger(ctx, caller, req.Msg.Page, req.Msg.PageSize)
	if err != nil {
		return nil, toConnectError("ListUserLedger", err)
	}

	slog.Info("ListUserLedger successful",
		"user_id", caller,
		"page", page.Page,
		"entries", len(page.Entries),
		"total", page.TotalCount,
	)

	return connect.NewResponse(&ListUserLedgerResponse{Ledger: page}), nil
}

// GetBalanceSummary returns what the caller owes, is owed and has spent.
func (s *LedgerService) GetBalanceSummary(ctx context.Context, req *connect.Request[GetBalanceSummaryRequest]) (*connect.Response[GetBalanceSummaryResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("GetBalanceSummary", err)
	}

	summary, err := s.reporter.BalanceSummary(ctx, caller)
	if err != nil {
		return nil, toConnectError("GetBalanceSummary", err)
	}

	return connect.NewResponse(&GetBalanceSummaryResponse{Summary: summary}), nil
}

// GetSpendingAnalytics returns the caller's consumption trend and top items.
func (s *LedgerService) GetSpendingAnalytics(ctx context.Context, req *connect.Request[GetSpendingAnalyticsRequest]) (*connect.Response[GetSpendingAnalyticsResponse], error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, toConnectError("GetSpendingAnalytics", err)
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError("GetSpendingAnalytics", err)
	}

	analytics, err := s.reporter.SpendingAnalytics(ctx, caller, req.Msg.Months)
	if err != nil {
		return nil, toConnectError("GetSpendingAnalytics", err)
	}

	return connect.NewResponse(&GetSpendingAnalyticsResponse{Analytics: analytics}), nil
}

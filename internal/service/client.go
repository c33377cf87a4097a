package service

import (
	"connectrpc.com/connect"
)

// Client calls every procedure served by NewHandler.
type Client struct {
	ComputeSettlement   *connect.Client[ComputeSettlementRequest, SettlementResponse]
	GetSettlement       *connect.Client[GetSettlementRequest, SettlementResponse]
	ConfirmTransaction  *connect.Client[ConfirmTransactionRequest, SettlementResponse]
	ListUserSettlements *connect.Client[ListUserSettlementsRequest, ListUserSettlementsResponse]

	ListUserLedger       *connect.Client[ListUserLedgerRequest, ListUserLedgerResponse]
	GetBalanceSummary    *connect.Client[GetBalanceSummaryRequest, GetBalanceSummaryResponse]
	GetSpendingAnalytics *connect.Client[GetSpendingAnalyticsRequest, GetSpendingAnalyticsResponse]

	AddGroupMember   *connect.Client[AddGroupMemberRequest, AddGroupMemberResponse]
	OpenSession      *connect.Client[OpenSessionRequest, SessionResponse]
	GetSession       *connect.Client[GetSessionRequest, SessionResponse]
	AddOrderItem     *connect.Client[AddOrderItemRequest, OrderItemResponse]
	ConfirmItemPrice *connect.Client[ConfirmItemPriceRequest, OrderItemResponse]
	RemoveOrderItem  *connect.Client[RemoveOrderItemRequest, OrderItemResponse]
}

// NewClient creates a Client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		ComputeSettlement:   connect.NewClient[ComputeSettlementRequest, SettlementResponse](httpClient, baseURL+ComputeSettlementProcedure, opts...),
		GetSettlement:       connect.NewClient[GetSettlementRequest, SettlementResponse](httpClient, baseURL+GetSettlementProcedure, opts...),
		ConfirmTransaction:  connect.NewClient[ConfirmTransactionRequest, SettlementResponse](httpClient, baseURL+ConfirmTransactionProcedure, opts...),
		ListUserSettlements: connect.NewClient[ListUserSettlementsRequest, ListUserSettlementsResponse](httpClient, baseURL+ListUserSettlementsProcedure, opts...),

		ListUserLedger:       connect.NewClient[ListUserLedgerRequest, ListUserLedgerResponse](httpClient, baseURL+ListUserLedgerProcedure, opts...),
		GetBalanceSummary:    connect.NewClient[GetBalanceSummaryRequest, GetBalanceSummaryResponse](httpClient, baseURL+GetBalanceSummaryProcedure, opts...),
		GetSpendingAnalytics: connect.NewClient[GetSpendingAnalyticsRequest, GetSpendingAnalyticsResponse](httpClient, baseURL+GetSpendingAnalyticsProcedure, opts...),

		AddGroupMember:   connect.NewClient[AddGroupMemberRequest, AddGroupMemberResponse](httpClient, baseURL+AddGroupMemberProcedure, opts...),
		OpenSession:      connect.NewClient[OpenSessionRequest, SessionResponse](httpClient, baseURL+OpenSessionProcedure, opts...),
		GetSession:       connect.NewClient[GetSessionRequest, SessionResponse](httpClient, baseURL+GetSessionProcedure, opts...),
		AddOrderItem:     connect.NewClient[AddOrderItemRequest, OrderItemResponse](httpClient, baseURL+AddOrderItemProcedure, opts...),
		ConfirmItemPrice: connect.NewClient[ConfirmItemPriceRequest, OrderItemResponse](httpClient, baseURL+ConfirmItemPriceProcedure, opts...),
		RemoveOrderItem:  connect.NewClient[RemoveOrderItemRequest, OrderItemResponse](httpClient, baseURL+RemoveOrderItemProcedure, opts...),
	}
}

package swaprouter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SwapRequest describes one atomic conversion. ExecuteSwap either delivers
// at least MinAmountOut of ToAsset or fails without moving anything.
type SwapRequest struct {
	FromAsset    string          `json:"from_asset"`
	ToAsset      string          `json:"to_asset"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	MinAmountOut decimal.Decimal `json:"min_amount_out"`
	Deadline     time.Time       `json:"deadline"`
	RouteData    string          `json:"route_data,omitempty"`
}

type Quote struct {
	EstimatedOut  decimal.Decimal `json:"estimated_out"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}

// SwapRouter is the consumed swap/bridge execution capability.
type SwapRouter interface {
	// SimulateRoute is a read-only pre-flight estimate.
	SimulateRoute(ctx context.Context, fromAsset, toAsset string, amountIn decimal.Decimal) (Quote, error)
	ExecuteSwap(ctx context.Context, req SwapRequest) (decimal.Decimal, error)
	GetSupportedBridges(ctx context.Context) ([]string, error)
}

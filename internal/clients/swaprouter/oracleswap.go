package swaprouter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/types"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// OracleSwapRouter fills conversions at the oracle's fair price minus a
// configurable fee. It backs local development and the test suite; the
// min-output and deadline rules match the external router contract.
type OracleSwapRouter struct {
	oracle          oracle.PriceOracle
	settlementAsset string
	feeBps          int64
	now             func() time.Time
}

func NewOracleSwapRouter(priceOracle oracle.PriceOracle, settlementAsset string, feeBps int64) *OracleSwapRouter {
	return &OracleSwapRouter{
		oracle:          priceOracle,
		settlementAsset: settlementAsset,
		feeBps:          feeBps,
		now:             time.Now,
	}
}

// SetFeeBps adjusts the simulated execution fee. Used by tests to force
// fills below the guard's minimum output.
func (r *OracleSwapRouter) SetFeeBps(feeBps int64) {
	r.feeBps = feeBps
}

func (r *OracleSwapRouter) SimulateRoute(ctx context.Context, fromAsset, toAsset string, amountIn decimal.Decimal) (Quote, error) {
	gross, err := r.convert(ctx, fromAsset, toAsset, amountIn)
	if err != nil {
		return Quote{}, err
	}
	fee := gross.Mul(decimal.NewFromInt(r.feeBps)).Div(decimal.NewFromInt(types.WeightScale))
	return Quote{EstimatedOut: gross.Sub(fee), EstimatedCost: fee}, nil
}

func (r *OracleSwapRouter) ExecuteSwap(ctx context.Context, req SwapRequest) (decimal.Decimal, error) {
	if !req.Deadline.IsZero() && r.now().After(req.Deadline) {
		return decimal.Zero, vaulterr.Newf(vaulterr.KindValidation, "deadline_passed",
			"swap %s->%s deadline %s has passed", req.FromAsset, req.ToAsset, req.Deadline)
	}
	if !req.AmountIn.IsPositive() {
		return decimal.Zero, vaulterr.Newf(vaulterr.KindValidation, "invalid_amount",
			"swap amount must be positive, got %s", req.AmountIn)
	}

	out, err := r.convert(ctx, req.FromAsset, req.ToAsset, req.AmountIn)
	if err != nil {
		return decimal.Zero, err
	}
	fee := out.Mul(decimal.NewFromInt(r.feeBps)).Div(decimal.NewFromInt(types.WeightScale))
	out = out.Sub(fee)

	if out.LessThan(req.MinAmountOut) {
		return decimal.Zero, vaulterr.Newf(vaulterr.KindSlippageExceeded, "slippage_exceeded",
			"swap %s->%s output %s below minimum %s", req.FromAsset, req.ToAsset, out, req.MinAmountOut)
	}
	return out, nil
}

func (r *OracleSwapRouter) GetSupportedBridges(ctx context.Context) ([]string, error) {
	return []string{"internal"}, nil
}

func (r *OracleSwapRouter) convert(ctx context.Context, fromAsset, toAsset string, amountIn decimal.Decimal) (decimal.Decimal, error) {
	// Oracle prices are quoted in settlement units per asset unit.
	switch {
	case fromAsset == r.settlementAsset:
		price, err := r.oracle.GetPrice(ctx, toAsset)
		if err != nil {
			return decimal.Zero, err
		}
		return amountIn.Div(price.Price), nil
	case toAsset == r.settlementAsset:
		price, err := r.oracle.GetPrice(ctx, fromAsset)
		if err != nil {
			return decimal.Zero, err
		}
		return amountIn.Mul(price.Price), nil
	default:
		fromPrice, err := r.oracle.GetPrice(ctx, fromAsset)
		if err != nil {
			return decimal.Zero, err
		}
		toPrice, err := r.oracle.GetPrice(ctx, toAsset)
		if err != nil {
			return decimal.Zero, err
		}
		return amountIn.Mul(fromPrice.Price).Div(toPrice.Price), nil
	}
}

package guard

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/observability"
	"github.com/packlabs/packvault-backend/internal/types"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

const (
	// DefaultMaxSlippageBps is the ceiling for any conversion's tolerated
	// shortfall. Callers may request a tighter bound, never a looser one.
	DefaultMaxSlippageBps int64 = 200
	// DefaultDeviationBps is the post-trade price deviation threshold.
	// Breaches are flagged for alerting, not aborted.
	DefaultDeviationBps int64 = 150
)

// Guard derives minimum-acceptable outputs for conversions and checks
// realized execution prices against the oracle.
type Guard struct {
	log            *logger.Logger
	metrics        *observability.Metrics
	maxSlippageBps int64
	deviationBps   int64
}

func New(log *logger.Logger, metrics *observability.Metrics, maxSlippageBps, deviationBps int64) *Guard {
	if maxSlippageBps <= 0 {
		maxSlippageBps = DefaultMaxSlippageBps
	}
	if deviationBps <= 0 {
		deviationBps = DefaultDeviationBps
	}
	return &Guard{
		log:            log.With("component", "Guard"),
		metrics:        metrics,
		maxSlippageBps: maxSlippageBps,
		deviationBps:   deviationBps,
	}
}

func (g *Guard) MaxSlippageBps() int64 {
	return g.maxSlippageBps
}

// ResolveSlippage validates a caller-supplied tolerance override.
// Zero means use the ceiling.
func (g *Guard) ResolveSlippage(overrideBps int64) (int64, error) {
	if overrideBps == 0 {
		return g.maxSlippageBps, nil
	}
	if overrideBps < 0 || overrideBps > g.maxSlippageBps {
		return 0, vaulterr.Newf(vaulterr.KindValidation, "invalid_slippage",
			"slippage override %d bps outside (0, %d]", overrideBps, g.maxSlippageBps)
	}
	return overrideBps, nil
}

// MinimumOutput returns the least acceptable amount of asset received for
// amountIn settlement units.
func (g *Guard) MinimumOutput(ctx context.Context, priceOracle oracle.PriceOracle, asset string, amountIn decimal.Decimal, slippageBps int64) (decimal.Decimal, error) {
	price, err := g.price(ctx, priceOracle, asset)
	if err != nil {
		return decimal.Zero, err
	}
	return amountIn.Div(price).Mul(g.retainedFraction(slippageBps)), nil
}

// MinimumProceeds returns the least acceptable settlement-currency proceeds
// for selling amountIn units of asset.
func (g *Guard) MinimumProceeds(ctx context.Context, priceOracle oracle.PriceOracle, asset string, amountIn decimal.Decimal, slippageBps int64) (decimal.Decimal, error) {
	price, err := g.price(ctx, priceOracle, asset)
	if err != nil {
		return decimal.Zero, err
	}
	return amountIn.Mul(price).Mul(g.retainedFraction(slippageBps)), nil
}

// CheckExecution compares a realized conversion price against the oracle.
// A deviation beyond the threshold is logged and counted but does not fail
// the trade.
func (g *Guard) CheckExecution(ctx context.Context, priceOracle oracle.PriceOracle, asset string, executionPrice decimal.Decimal) {
	ok, err := priceOracle.ValidatePrice(ctx, asset, executionPrice)
	if err != nil {
		g.log.Warn("Execution price validation unavailable", "asset", asset, "error", err)
		return
	}
	if !ok {
		g.log.Warn("Execution price outside deviation threshold",
			"asset", asset,
			"execution_price", executionPrice.String(),
			"threshold_bps", g.deviationBps,
		)
		g.metrics.IncPriceDeviation(asset)
	}
}

func (g *Guard) price(ctx context.Context, priceOracle oracle.PriceOracle, asset string) (decimal.Decimal, error) {
	quote, err := priceOracle.GetPrice(ctx, asset)
	if err != nil {
		return decimal.Zero, err
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, vaulterr.Newf(vaulterr.KindValidation, "invalid_price",
			"oracle price for %s not positive: %s", asset, quote.Price)
	}
	return quote.Price, nil
}

func (g *Guard) retainedFraction(slippageBps int64) decimal.Decimal {
	scale := decimal.NewFromInt(types.WeightScale)
	return scale.Sub(decimal.NewFromInt(slippageBps)).Div(scale)
}

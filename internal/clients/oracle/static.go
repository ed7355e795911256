package oracle

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// StaticOracle serves prices from an in-memory table. It backs local
// development (no feed provider configured) and the test suite.
type StaticOracle struct {
	mu           sync.RWMutex
	prices       map[string]decimal.Decimal
	deviationBps int64
}

func NewStaticOracle(prices map[string]decimal.Decimal, deviationBps int64) *StaticOracle {
	table := make(map[string]decimal.Decimal, len(prices))
	for asset, price := range prices {
		table[asset] = price
	}
	return &StaticOracle{prices: table, deviationBps: deviationBps}
}

// SetPrice replaces the quoted price for asset.
func (o *StaticOracle) SetPrice(asset string, price decimal.Decimal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.prices[asset] = price
}

func (o *StaticOracle) GetPrice(ctx context.Context, asset string) (Price, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	price, ok := o.prices[asset]
	if !ok {
		return Price{}, vaulterr.Newf(vaulterr.KindValidation, "unknown_asset", "no price for asset %q", asset)
	}
	return Price{
		Asset:         asset,
		Price:         price,
		ConfidenceBps: 10000,
		Source:        "static",
	}, nil
}

func (o *StaticOracle) GetPrices(ctx context.Context, assets []string) ([]Price, error) {
	results := make([]Price, 0, len(assets))
	for _, asset := range assets {
		price, err := o.GetPrice(ctx, asset)
		if err != nil {
			return nil, err
		}
		results = append(results, price)
	}
	return results, nil
}

func (o *StaticOracle) ValidatePrice(ctx context.Context, asset string, executionPrice decimal.Decimal) (bool, error) {
	fair, err := o.GetPrice(ctx, asset)
	if err != nil {
		return false, err
	}
	return WithinDeviation(fair.Price, executionPrice, o.deviationBps), nil
}

func (o *StaticOracle) GetPriceSource(ctx context.Context, asset string) (string, error) {
	if _, err := o.GetPrice(ctx, asset); err != nil {
		return "", err
	}
	return "static", nil
}

package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/clients/oracle"
	"github.com/packlabs/packvault-backend/internal/types"
)

// basketValue prices a pack's holdings at current oracle quotes.
// Constituents with a zero balance contribute nothing and are not priced.
func basketValue(ctx context.Context, priceOracle oracle.PriceOracle, pack *types.Pack) (decimal.Decimal, error) {
	assets := make([]string, 0, len(pack.Allocations))
	for _, alloc := range pack.Allocations {
		if alloc.CurrentBalance.IsPositive() {
			assets = append(assets, alloc.Asset)
		}
	}
	if len(assets) == 0 {
		return decimal.Zero, nil
	}

	prices, err := priceOracle.GetPrices(ctx, assets)
	if err != nil {
		return decimal.Zero, err
	}
	priceByAsset := make(map[string]decimal.Decimal, len(prices))
	for _, price := range prices {
		priceByAsset[price.Asset] = price.Price
	}

	total := decimal.Zero
	for _, alloc := range pack.Allocations {
		if !alloc.CurrentBalance.IsPositive() {
			continue
		}
		price, ok := priceByAsset[alloc.Asset]
		if !ok {
			return decimal.Zero, fmt.Errorf("oracle returned no price for %s", alloc.Asset)
		}
		total = total.Add(alloc.CurrentBalance.Mul(price))
	}
	return total, nil
}

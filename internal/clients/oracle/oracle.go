package oracle

import (
	"context"

	"github.com/shopspring/decimal"
)

// Price is one oracle observation: the fair value of 1 native unit of the
// asset in settlement-currency units, with the provider's confidence score.
type Price struct {
	Asset         string          `json:"asset"`
	Price         decimal.Decimal `json:"price"`
	ConfidenceBps int64           `json:"confidence_bps"`
	Source        string          `json:"source"`
}

// PriceOracle is the consumed price-feed capability. The ledger never caches
// prices as ground truth; every valuation goes back through this interface.
type PriceOracle interface {
	GetPrice(ctx context.Context, asset string) (Price, error)
	GetPrices(ctx context.Context, assets []string) ([]Price, error)
	// ValidatePrice reports whether executionPrice is within the deviation
	// threshold of the current fair price.
	ValidatePrice(ctx context.Context, asset string, executionPrice decimal.Decimal) (bool, error)
	GetPriceSource(ctx context.Context, asset string) (string, error)
}

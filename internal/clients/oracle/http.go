package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/types"
)

// httpOracle talks to an external price-feed aggregator over JSON/REST.
type httpOracle struct {
	log          *logger.Logger
	client       *http.Client
	baseURL      string
	deviationBps int64
}

func NewHTTPOracle(log *logger.Logger, baseURL string, deviationBps int64) (PriceOracle, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("oracle base URL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid oracle base URL: %w", err)
	}
	return &httpOracle{
		log: log.With("client", "HTTPOracle"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:      baseURL,
		deviationBps: deviationBps,
	}, nil
}

type priceResponse struct {
	Asset         string `json:"asset"`
	Price         string `json:"price"`
	ConfidenceBps int64  `json:"confidence_bps"`
	Source        string `json:"source"`
}

func (o *httpOracle) GetPrice(ctx context.Context, asset string) (Price, error) {
	endpoint := fmt.Sprintf("%s/v1/prices/%s", o.baseURL, url.PathEscape(asset))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Price{}, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Price{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Price{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Price{}, fmt.Errorf("oracle returned status %d for %s", resp.StatusCode, asset)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Price{}, fmt.Errorf("decode oracle response: %w", err)
	}
	price, err := decimal.NewFromString(pr.Price)
	if err != nil {
		return Price{}, fmt.Errorf("oracle price for %s not decimal: %w", asset, err)
	}
	if !price.IsPositive() {
		return Price{}, fmt.Errorf("oracle price for %s not positive: %s", asset, price)
	}
	return Price{
		Asset:         asset,
		Price:         price,
		ConfidenceBps: pr.ConfidenceBps,
		Source:        pr.Source,
	}, nil
}

func (o *httpOracle) GetPrices(ctx context.Context, assets []string) ([]Price, error) {
	results := make([]Price, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, asset := range assets {
		g.Go(func() error {
			price, err := o.GetPrice(gctx, asset)
			if err != nil {
				return err
			}
			results[i] = price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (o *httpOracle) ValidatePrice(ctx context.Context, asset string, executionPrice decimal.Decimal) (bool, error) {
	fair, err := o.GetPrice(ctx, asset)
	if err != nil {
		return false, err
	}
	return WithinDeviation(fair.Price, executionPrice, o.deviationBps), nil
}

func (o *httpOracle) GetPriceSource(ctx context.Context, asset string) (string, error) {
	price, err := o.GetPrice(ctx, asset)
	if err != nil {
		return "", err
	}
	return price.Source, nil
}

// WithinDeviation reports whether execution is within thresholdBps of fair.
func WithinDeviation(fair, execution decimal.Decimal, thresholdBps int64) bool {
	if fair.IsZero() {
		return false
	}
	deviation := execution.Sub(fair).Abs().Div(fair)
	threshold := decimal.NewFromInt(thresholdBps).Div(decimal.NewFromInt(types.WeightScale))
	return deviation.LessThanOrEqual(threshold)
}

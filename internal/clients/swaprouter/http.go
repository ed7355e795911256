package swaprouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

// httpRouter talks to an external swap-routing service over JSON/REST.
type httpRouter struct {
	log     *logger.Logger
	client  *http.Client
	baseURL string
}

func NewHTTPRouter(log *logger.Logger, baseURL string) (SwapRouter, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("router base URL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid router base URL: %w", err)
	}
	return &httpRouter{
		log: log.With("client", "HTTPRouter"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}, nil
}

type simulateResponse struct {
	EstimatedOut  string `json:"estimated_out"`
	EstimatedCost string `json:"estimated_cost"`
}

type swapResponse struct {
	AmountOut string `json:"amount_out"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (r *httpRouter) SimulateRoute(ctx context.Context, fromAsset, toAsset string, amountIn decimal.Decimal) (Quote, error) {
	payload := map[string]string{
		"from_asset": fromAsset,
		"to_asset":   toAsset,
		"amount_in":  amountIn.String(),
	}
	body, err := r.post(ctx, "/v1/simulate", payload)
	if err != nil {
		return Quote{}, err
	}

	var sr simulateResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Quote{}, fmt.Errorf("decode simulate response: %w", err)
	}
	estimatedOut, err := decimal.NewFromString(sr.EstimatedOut)
	if err != nil {
		return Quote{}, fmt.Errorf("simulate estimated_out not decimal: %w", err)
	}
	estimatedCost, err := decimal.NewFromString(sr.EstimatedCost)
	if err != nil {
		return Quote{}, fmt.Errorf("simulate estimated_cost not decimal: %w", err)
	}
	return Quote{EstimatedOut: estimatedOut, EstimatedCost: estimatedCost}, nil
}

func (r *httpRouter) ExecuteSwap(ctx context.Context, req SwapRequest) (decimal.Decimal, error) {
	body, err := r.post(ctx, "/v1/swaps", req)
	if err != nil {
		return decimal.Zero, err
	}

	var sr swapResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return decimal.Zero, fmt.Errorf("decode swap response: %w", err)
	}
	if sr.Code != "" {
		if sr.Code == "slippage_exceeded" {
			return decimal.Zero, vaulterr.Newf(vaulterr.KindSlippageExceeded, "slippage_exceeded",
				"router rejected swap %s->%s: %s", req.FromAsset, req.ToAsset, sr.Message)
		}
		return decimal.Zero, fmt.Errorf("router rejected swap %s->%s: %s %s", req.FromAsset, req.ToAsset, sr.Code, sr.Message)
	}
	amountOut, err := decimal.NewFromString(sr.AmountOut)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swap amount_out not decimal: %w", err)
	}
	return amountOut, nil
}

func (r *httpRouter) GetSupportedBridges(ctx context.Context) ([]string, error) {
	endpoint := r.baseURL + "/v1/bridges"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("router request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("router returned status %d", resp.StatusCode)
	}

	var bridges struct {
		Bridges []string `json:"bridges"`
	}
	if err := json.Unmarshal(body, &bridges); err != nil {
		return nil, fmt.Errorf("decode bridges response: %w", err)
	}
	return bridges.Bridges, nil
}

func (r *httpRouter) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("router request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, fmt.Errorf("router returned status %d", resp.StatusCode)
	}
	return body, nil
}

// Package engine is the client for the off-chain matching engine's private
// JSON-RPC endpoint.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

var (
	// ErrTransport reports an HTTP-level failure talking to the engine.
	ErrTransport = errors.New("engine transport error")

	// ErrNotEnoughMargin is the engine-side margin re-check rejecting an
	// order. The engine's state may have moved since the local check.
	ErrNotEnoughMargin = errors.New("not enough margin")
)

// marginRejection is the exact string the engine puts first in its response
// array when its margin re-check fails.
const marginRejection = "Not enough margin"

type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// OrderParams is the private/buy|sell parameter block.
type OrderParams struct {
	From           string   `json:"from"`
	InstrumentName string   `json:"instrument_name"`
	Type           string   `json:"type"` // "market" | "limit"
	Amount         float64  `json:"amount"`
	Leverage       float64  `json:"leverage"`
	Price          *float64 `json:"price,omitempty"` // omitted for market orders
}

// PlaceOrder calls private/buy or private/sell depending on side. A
// response whose first element is the margin-rejection string yields
// ErrNotEnoughMargin; any other shape is success.
func (c *Client) PlaceOrder(ctx context.Context, side enum.Side, params OrderParams) error {
	method := "private/buy"
	if side == enum.Sell {
		method = "private/sell"
	}

	var out struct {
		Response []json.RawMessage `json:"response"`
	}
	if err := c.do(ctx, method, params, &out); err != nil {
		return err
	}
	if len(out.Response) > 0 {
		var head string
		if err := json.Unmarshal(out.Response[0], &head); err == nil && head == marginRejection {
			return ErrNotEnoughMargin
		}
	}
	return nil
}

type fromParams struct {
	From string `json:"from"`
}

// GetPositions returns the full position set keyed by instrument name.
func (c *Client) GetPositions(ctx context.Context, from string) (map[string]models.Position, error) {
	var out struct {
		Result []models.Position `json:"result"`
	}
	if err := c.do(ctx, "private/get_positions", fromParams{From: from}, &out); err != nil {
		return nil, err
	}
	positions := make(map[string]models.Position, len(out.Result))
	for _, p := range out.Result {
		positions[p.InstrumentName] = p
	}
	return positions, nil
}

// GetOpenOrders returns resting orders grouped by instrument then order id.
func (c *Client) GetOpenOrders(ctx context.Context, from string) (map[string]map[string]models.OpenOrder, error) {
	var out struct {
		Result []models.OpenOrder `json:"result"`
	}
	if err := c.do(ctx, "private/get_open_orders", fromParams{From: from}, &out); err != nil {
		return nil, err
	}
	orders := make(map[string]map[string]models.OpenOrder)
	for _, o := range out.Result {
		byID, ok := orders[o.InstrumentName]
		if !ok {
			byID = make(map[string]models.OpenOrder)
			orders[o.InstrumentName] = byID
		}
		byID[o.OrderID] = o
	}
	return orders, nil
}

func (c *Client) GetCollateral(ctx context.Context, from string) (float64, error) {
	var out struct {
		Result struct {
			Collateral float64 `json:"collateral"`
		} `json:"result"`
	}
	if err := c.do(ctx, "private/get_collateral", fromParams{From: from}, &out); err != nil {
		return 0, err
	}
	return out.Result.Collateral, nil
}

func (c *Client) GetAccountSummary(ctx context.Context, from string) (models.AccountSummary, error) {
	var out struct {
		Result models.AccountSummary `json:"result"`
	}
	if err := c.do(ctx, "private/get_account_summary", fromParams{From: from}, &out); err != nil {
		return models.AccountSummary{}, err
	}
	return out.Result, nil
}

func (c *Client) GetDeposits(ctx context.Context, from string) ([]models.Transfer, error) {
	var out struct {
		Result []models.Transfer `json:"result"`
	}
	err := c.do(ctx, "private/get_deposits", fromParams{From: from}, &out)
	return out.Result, err
}

func (c *Client) GetWithdrawals(ctx context.Context, from string) ([]models.Transfer, error) {
	var out struct {
		Result []models.Transfer `json:"result"`
	}
	err := c.do(ctx, "private/get_withdrawals", fromParams{From: from}, &out)
	return out.Result, err
}

func (c *Client) GetTrades(ctx context.Context, from string) ([]models.Trade, error) {
	var out struct {
		Result []models.Trade `json:"result"`
	}
	err := c.do(ctx, "private/get_trades", fromParams{From: from}, &out)
	return out.Result, err
}

// do posts one RPC request with a fresh short-lived JWT per call.
func (c *Client) do(ctx context.Context, method string, params, v any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	tok, err := c.buildJWT()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s: http %d", ErrTransport, method, resp.StatusCode)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("%w: %s: decode: %v", ErrTransport, method, err)
		}
	}
	return nil
}

func (c *Client) buildJWT() (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(2 * time.Minute).Unix(),
		"sub": c.apiKey,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.apiSecret))
}

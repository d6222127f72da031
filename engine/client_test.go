package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
)

type capturedRequest struct {
	auth   string
	method string
	params map[string]any
}

func newEngineServer(t *testing.T, respond string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.auth = r.Header.Get("Authorization")
		var req struct {
			JSONRPC string         `json:"jsonrpc"`
			ID      string         `json:"id"`
			Method  string         `json:"method"`
			Params  map[string]any `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JSONRPC)
		assert.NotEmpty(t, req.ID)
		captured.method = req.Method
		captured.params = req.Params
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respond))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key", "secret"), captured
}

func TestPlaceOrderMethodSelection(t *testing.T) {
	c, captured := newEngineServer(t, `{"response": [{"order_id": "o1"}]}`)

	price := 42000.5
	err := c.PlaceOrder(context.Background(), enum.Sell, OrderParams{
		From:           "0xabc",
		InstrumentName: "BTC-20DEC23",
		Type:           "limit",
		Amount:         1.19,
		Leverage:       10,
		Price:          &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "private/sell", captured.method)
	assert.Equal(t, "0xabc", captured.params["from"])
	assert.Equal(t, "limit", captured.params["type"])
	assert.Equal(t, 42000.5, captured.params["price"])
	assert.True(t, strings.HasPrefix(captured.auth, "Bearer "))
}

func TestPlaceOrderMarketOmitsPrice(t *testing.T) {
	c, captured := newEngineServer(t, `{"response": []}`)

	err := c.PlaceOrder(context.Background(), enum.Buy, OrderParams{
		From:           "0xabc",
		InstrumentName: "BTC-20DEC23",
		Type:           "market",
		Amount:         0.5,
		Leverage:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, "private/buy", captured.method)
	_, hasPrice := captured.params["price"]
	assert.False(t, hasPrice, "market orders must not carry a price")
}

func TestPlaceOrderMarginRejection(t *testing.T) {
	c, _ := newEngineServer(t, `{"response": ["Not enough margin"]}`)

	err := c.PlaceOrder(context.Background(), enum.Buy, OrderParams{Type: "market"})
	require.ErrorIs(t, err, ErrNotEnoughMargin)
}

func TestGetPositionsKeyedByInstrument(t *testing.T) {
	c, captured := newEngineServer(t, `{"result": [
		{"instrument_name": "BTC-20DEC23", "size": 2, "margin": 100},
		{"instrument_name": "ETH-29MAR24", "size": 1, "margin": 50}
	]}`)

	positions, err := c.GetPositions(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "private/get_positions", captured.method)
	require.Len(t, positions, 2)
	assert.Equal(t, 100.0, positions["BTC-20DEC23"].Margin)
}

func TestGetOpenOrdersGrouped(t *testing.T) {
	c, _ := newEngineServer(t, `{"result": [
		{"order_id": "o1", "instrument_name": "BTC-20DEC23", "size": 2},
		{"order_id": "o2", "instrument_name": "BTC-20DEC23", "size": 3}
	]}`)

	orders, err := c.GetOpenOrders(context.Background(), "0xabc")
	require.NoError(t, err)
	require.Len(t, orders["BTC-20DEC23"], 2)
	assert.Equal(t, 3.0, orders["BTC-20DEC23"]["o2"].Size)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "key", "secret")
	_, err := c.GetCollateral(context.Background(), "0xabc")
	require.ErrorIs(t, err, ErrTransport)
}

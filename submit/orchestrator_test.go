package submit

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Here-And-Now/perp-trader/trading_core/account"
	"github.com/A-Here-And-Now/perp-trader/trading_core/engine"
	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
	"github.com/A-Here-And-Now/perp-trader/trading_core/wallet"
)

type mockWallet struct {
	connectCalls int
	signCalls    int
	connectErr   error
	signErr      error
	lastPayload  models.ChainTxPayload
}

func (m *mockWallet) Connect(ctx context.Context) (string, error) {
	m.connectCalls++
	if m.connectErr != nil {
		return "", m.connectErr
	}
	return "0xabc", nil
}

func (m *mockWallet) SignAndSubmitTransaction(ctx context.Context, payload models.ChainTxPayload) (models.ChainReceipt, error) {
	m.signCalls++
	m.lastPayload = payload
	if m.signErr != nil {
		return models.ChainReceipt{}, m.signErr
	}
	return models.ChainReceipt{TxHash: "0xdeadbeef"}, nil
}

type mockEngine struct {
	calls      int
	err        error
	lastSide   enum.Side
	lastParams engine.OrderParams
}

func (m *mockEngine) PlaceOrder(ctx context.Context, side enum.Side, params engine.OrderParams) error {
	m.calls++
	m.lastSide = side
	m.lastParams = params
	return m.err
}

type fixture struct {
	accounts  *account.Store
	wallet    *mockWallet
	engine    *mockEngine
	refreshed int
	orch      *Orchestrator
}

func newFixture(collateral float64) *fixture {
	f := &fixture{
		accounts: account.NewStore(),
		wallet:   &mockWallet{},
		engine:   &mockEngine{},
	}
	f.accounts.SetCollateral(collateral)
	f.orch = NewOrchestrator(
		f.accounts,
		f.wallet,
		f.engine,
		func(string) (decimal.Decimal, error) { return decimal.NewFromInt(42000), nil },
		func(context.Context) error { f.refreshed++; return nil },
		nil,
	)
	return f
}

func intent(side enum.Side, class enum.OrderClass, size, leverage, limit float64) models.SubmissionIntent {
	return models.NewSubmissionIntent("BTC-20DEC23", side, class, size, leverage, limit)
}

func TestInsufficientMarginNeverTouchesWallet(t *testing.T) {
	f := newFixture(100)

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 500, 10, 0))

	assert.Equal(t, enum.ResolvedFailed, res.State)
	assert.Equal(t, enum.FailureInsufficientMargin, res.Reason)
	assert.Zero(t, f.wallet.connectCalls, "wallet must not be contacted")
	assert.Zero(t, f.wallet.signCalls)
	assert.Zero(t, f.engine.calls, "engine must not be contacted")
}

func TestChainRejectedNeverTouchesEngine(t *testing.T) {
	f := newFixture(10000)
	f.wallet.signErr = wallet.ErrChainRejected

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 500, 10, 0))

	assert.Equal(t, enum.ResolvedFailed, res.State)
	assert.Equal(t, enum.FailureChainRejected, res.Reason)
	assert.Equal(t, 1, f.wallet.signCalls)
	assert.Zero(t, f.engine.calls, "no off-chain notification without chain settlement")
	assert.Zero(t, f.refreshed)
}

func TestWalletUnavailableSurfacedDistinctly(t *testing.T) {
	f := newFixture(10000)
	f.wallet.connectErr = wallet.ErrWalletUnavailable

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 500, 10, 0))

	assert.Equal(t, enum.ResolvedFailed, res.State)
	assert.Equal(t, enum.FailureWalletUnavailable, res.Reason)
	assert.Zero(t, f.engine.calls)
}

func TestEngineMarginRejectionRetainsReceipt(t *testing.T) {
	f := newFixture(10000)
	f.engine.err = engine.ErrNotEnoughMargin

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 500, 10, 0))

	assert.Equal(t, enum.ResolvedFailed, res.State)
	assert.Equal(t, enum.FailureInsufficientMargin, res.Reason)
	// the chain transaction settled first; its receipt must not be discarded
	assert.Equal(t, "0xdeadbeef", res.Receipt.TxHash)
	assert.Equal(t, 1, f.engine.calls)
	assert.Zero(t, f.refreshed, "refresh only fires on success")
}

func TestSuccessTriggersRefresh(t *testing.T) {
	f := newFixture(10000)

	res := f.orch.Submit(context.Background(), intent(enum.Sell, enum.Limit, 1000, 10, 42100))

	require.Equal(t, enum.ResolvedSuccess, res.State)
	assert.Equal(t, enum.FailureNone, res.Reason)
	assert.Equal(t, "0xdeadbeef", res.Receipt.TxHash)
	assert.Equal(t, 1, f.refreshed)

	// side encoding: boolean on chain, method selection at the engine
	assert.True(t, f.wallet.lastPayload.IsSell)
	assert.Equal(t, enum.Sell, f.engine.lastSide)
	assert.Equal(t, "0xabc", f.engine.lastParams.From)
	assert.Equal(t, "limit", f.engine.lastParams.Type)
	require.NotNil(t, f.engine.lastParams.Price)
	assert.Equal(t, 42100.0, *f.engine.lastParams.Price)

	// amount = size * leverage / index, rounded to 2 decimal places:
	// 1000 * 10 / 42000 = 0.238095... -> 0.24
	assert.Equal(t, 0.24, f.engine.lastParams.Amount)
}

func TestMarketOrderCarriesNoPrice(t *testing.T) {
	f := newFixture(10000)

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 100, 5, 0))

	require.True(t, res.Success())
	assert.False(t, f.wallet.lastPayload.IsSell)
	assert.Nil(t, f.engine.lastParams.Price)
	assert.Equal(t, "market", f.engine.lastParams.Type)
}

func TestIndexPriceFailureResolvesBeforeChain(t *testing.T) {
	f := newFixture(10000)
	f.orch = NewOrchestrator(
		f.accounts,
		f.wallet,
		f.engine,
		func(string) (decimal.Decimal, error) { return decimal.Zero, errors.New("no ticker yet") },
		nil,
		nil,
	)

	res := f.orch.Submit(context.Background(), intent(enum.Buy, enum.Market, 100, 5, 0))

	assert.Equal(t, enum.ResolvedFailed, res.State)
	assert.Equal(t, enum.FailureTransport, res.Reason)
	assert.Zero(t, f.wallet.signCalls, "chain must not be touched without a sizable amount")
	assert.Zero(t, f.engine.calls)
}

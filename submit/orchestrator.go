// Package submit orchestrates the two-phase order flow: margin check, then
// a user-signed chain transaction, then the matching-engine notification.
// The central ordering guarantee: the engine is never contacted before the
// paired chain transaction has settled.
package submit

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/A-Here-And-Now/perp-trader/trading_core/account"
	"github.com/A-Here-And-Now/perp-trader/trading_core/engine"
	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
	"github.com/A-Here-And-Now/perp-trader/trading_core/wallet"
)

// Engine is the slice of the matching-engine client the orchestrator needs.
type Engine interface {
	PlaceOrder(ctx context.Context, side enum.Side, params engine.OrderParams) error
}

// IndexPriceFunc resolves the current index price for an instrument.
type IndexPriceFunc func(instrument string) (decimal.Decimal, error)

// RefreshFunc re-pulls account state after a successful submission.
type RefreshFunc func(ctx context.Context) error

// Result is the single terminal resolution of one SubmissionIntent. A
// failed intent is never retried here; the caller re-creates it from
// scratch. Receipt is populated whenever the chain transaction settled,
// including the divergent case where the engine rejected afterwards.
type Result struct {
	State   enum.SubmissionState `json:"state"`
	Reason  enum.FailureReason   `json:"reason"`
	Receipt models.ChainReceipt  `json:"receipt,omitempty"`
	Err     error                `json:"-"`
}

func (r Result) Success() bool {
	return r.State == enum.ResolvedSuccess
}

type Orchestrator struct {
	accounts   *account.Store
	wallet     wallet.Wallet
	engine     Engine
	indexPrice IndexPriceFunc
	refresh    RefreshFunc
	logger     *log.Logger
}

func NewOrchestrator(accounts *account.Store, w wallet.Wallet, e Engine, indexPrice IndexPriceFunc, refresh RefreshFunc, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		accounts:   accounts,
		wallet:     w,
		engine:     e,
		indexPrice: indexPrice,
		refresh:    refresh,
		logger:     logger,
	}
}

// Submit drives one intent through
// Draft -> MarginChecked -> ChainSubmitted -> EngineNotified -> Resolved.
// Concurrent submissions for the same instrument are not serialized;
// callers wanting at-most-one-in-flight add that discipline themselves.
func (o *Orchestrator) Submit(ctx context.Context, intent models.SubmissionIntent) Result {
	o.transition(intent, enum.Draft)

	// Draft -> MarginChecked. Size arrives leverage-applied, so it is the
	// required margin directly. On failure neither chain nor engine is
	// ever contacted.
	required := intent.Size
	remaining := o.accounts.RemainingMargin()
	if required > remaining {
		o.logger.Printf("[submit %s] insufficient margin: required=%.2f remaining=%.2f", intent.ID, required, remaining)
		return o.fail(enum.FailureInsufficientMargin, nil)
	}
	o.transition(intent, enum.MarginChecked)

	// Resolve the engine amount before touching the chain, so a missing
	// index price cannot strand a settled transaction without its engine
	// notification.
	idx, err := o.indexPrice(intent.InstrumentName)
	if err != nil || idx.IsZero() {
		return o.fail(enum.FailureTransport, err)
	}
	amount := decimal.NewFromFloat(intent.Size).
		Mul(decimal.NewFromFloat(intent.Leverage)).
		Div(idx).
		Round(2) // boundary contract with the engine, not an approximation

	address, err := o.wallet.Connect(ctx)
	if err != nil {
		return o.fail(walletFailure(err), err)
	}

	// MarginChecked -> ChainSubmitted.
	receipt, err := o.wallet.SignAndSubmitTransaction(ctx, models.ChainTxPayload{
		InstrumentName: intent.InstrumentName,
		IsSell:         intent.Side.Wire(), // false=buy, true=sell
		Size:           intent.Size,
		Leverage:       intent.Leverage,
		LimitPrice:     intent.LimitPrice,
	})
	if err != nil {
		return o.fail(walletFailure(err), err)
	}
	o.transition(intent, enum.ChainSubmitted)
	o.logger.Printf("[submit %s] chain settled: tx=%s", intent.ID, receipt.TxHash)

	// ChainSubmitted -> EngineNotified.
	params := engine.OrderParams{
		From:           address,
		InstrumentName: intent.InstrumentName,
		Type:           intent.Class.String(),
		Amount:         amount.InexactFloat64(),
		Leverage:       intent.Leverage,
	}
	if intent.Class == enum.Limit {
		price := intent.LimitPrice
		params.Price = &price
	}
	if err := o.engine.PlaceOrder(ctx, intent.Side, params); err != nil {
		// The chain transaction already settled. The receipt stays in the
		// result and the log; reporting the divergence truthfully is the
		// whole contract - there is no compensating chain action.
		if errors.Is(err, engine.ErrNotEnoughMargin) {
			o.logger.Printf("[submit %s] engine rejected margin after chain success, receipt retained: tx=%s", intent.ID, receipt.TxHash)
			r := o.fail(enum.FailureInsufficientMargin, err)
			r.Receipt = receipt
			return r
		}
		o.logger.Printf("[submit %s] engine notify failed after chain success, receipt retained: tx=%s err=%v", intent.ID, receipt.TxHash, err)
		r := o.fail(enum.FailureTransport, err)
		r.Receipt = receipt
		return r
	}
	o.transition(intent, enum.EngineNotified)

	// EngineNotified -> Resolved(Success). Refresh so positions and margin
	// reflect the new order; a refresh failure does not undo success.
	if o.refresh != nil {
		if err := o.refresh(ctx); err != nil {
			o.logger.Printf("[submit %s] account refresh failed: %v", intent.ID, err)
		}
	}
	return Result{State: enum.ResolvedSuccess, Reason: enum.FailureNone, Receipt: receipt}
}

func (o *Orchestrator) transition(intent models.SubmissionIntent, state enum.SubmissionState) {
	o.logger.Printf("[submit %s] -> %s", intent.ID, state)
}

func (o *Orchestrator) fail(reason enum.FailureReason, err error) Result {
	return Result{State: enum.ResolvedFailed, Reason: reason, Err: err}
}

func walletFailure(err error) enum.FailureReason {
	if errors.Is(err, wallet.ErrWalletUnavailable) {
		return enum.FailureWalletUnavailable
	}
	return enum.FailureChainRejected
}

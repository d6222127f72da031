package main

import (
	"context"
	"log"
	"time"

	"github.com/A-Here-And-Now/perp-trader/trading_core/account"
	"github.com/A-Here-And-Now/perp-trader/trading_core/engine"
	"github.com/A-Here-And-Now/perp-trader/trading_core/session"
)

// Refresher re-pulls the private account endpoints into the store. It is
// the store's single logical writer: the post-submission refresh and the
// periodic poll both funnel through RefreshNow, last write wins.
type Refresher struct {
	engine   *engine.Client
	accounts *account.Store
	sessions *session.Store
	logger   *log.Logger
}

func NewRefresher(e *engine.Client, accounts *account.Store, sessions *session.Store, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.Default()
	}
	return &Refresher{engine: e, accounts: accounts, sessions: sessions, logger: logger}
}

// RefreshNow replaces every account field wholesale from the engine. With
// no connected session the store resets instead - a disconnected terminal
// shows no stale positions.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	sess, err := r.sessions.Restore(ctx)
	if err != nil {
		return err
	}
	if !sess.IsConnected {
		r.accounts.Reset()
		return nil
	}
	return r.refreshFor(ctx, sess.Address)
}

func (r *Refresher) refreshFor(ctx context.Context, address string) error {
	positions, err := r.engine.GetPositions(ctx, address)
	if err != nil {
		return err
	}
	orders, err := r.engine.GetOpenOrders(ctx, address)
	if err != nil {
		return err
	}
	collateral, err := r.engine.GetCollateral(ctx, address)
	if err != nil {
		return err
	}
	summary, err := r.engine.GetAccountSummary(ctx, address)
	if err != nil {
		return err
	}

	r.accounts.SetPositions(positions)
	r.accounts.SetOpenOrders(orders)
	r.accounts.SetCollateral(collateral)
	r.accounts.SetAvailableMargin(summary.AvailableMargin)

	// history endpoints are best-effort; a failure leaves the previous
	// wholesale value in place
	if deposits, err := r.engine.GetDeposits(ctx, address); err == nil {
		r.accounts.SetDeposits(deposits)
	}
	if withdrawals, err := r.engine.GetWithdrawals(ctx, address); err == nil {
		r.accounts.SetWithdrawals(withdrawals)
	}
	if trades, err := r.engine.GetTrades(ctx, address); err == nil {
		r.accounts.SetTrades(trades)
	}
	return nil
}

// Run polls until the context ends. Errors are passive UI state, never
// retried faster than the poll interval.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := r.RefreshNow(ctx); err != nil {
				r.logger.Printf("[refresh] %v", err)
			}
		}
	}
}

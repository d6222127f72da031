// Package wallet is the signing capability: it authorizes and submits
// blockchain transactions on the user's behalf. Injected as an interface so
// the submission flow can run against a mock.
package wallet

import (
	"context"
	"errors"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

var (
	// ErrWalletUnavailable means no signing provider is configured at all.
	// Surfaced with a guided action, never as a generic failure.
	ErrWalletUnavailable = errors.New("no wallet signing provider available")

	// ErrChainRejected covers user cancellation and node-side rejection of
	// a submitted transaction.
	ErrChainRejected = errors.New("chain transaction rejected")
)

// Wallet signs and submits transactions. Connect may block on user
// interaction for an unbounded duration; no timeout is imposed here.
type Wallet interface {
	Connect(ctx context.Context) (address string, err error)
	SignAndSubmitTransaction(ctx context.Context, payload models.ChainTxPayload) (models.ChainReceipt, error)
}

// Unavailable is the null capability wired in when no provider is
// configured. Every operation reports ErrWalletUnavailable so the UI can
// offer a setup action.
type Unavailable struct{}

func (Unavailable) Connect(context.Context) (string, error) {
	return "", ErrWalletUnavailable
}

func (Unavailable) SignAndSubmitTransaction(context.Context, models.ChainTxPayload) (models.ChainReceipt, error) {
	return models.ChainReceipt{}, ErrWalletUnavailable
}

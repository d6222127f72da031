package models

import (
	"github.com/google/uuid"

	"github.com/A-Here-And-Now/perp-trader/trading_core/enum"
)

// SubmissionIntent is one user-initiated order. It is created on user
// action, consumed by the submission orchestrator, and discarded after its
// single terminal resolution - never retried automatically.
type SubmissionIntent struct {
	ID             uuid.UUID       `json:"id"`
	InstrumentName string          `json:"instrument_name"`
	Side           enum.Side       `json:"side"`
	Class          enum.OrderClass `json:"class"`
	Size           float64         `json:"size"` // leverage-applied notional, set by the caller
	Leverage       float64         `json:"leverage"`
	LimitPrice     float64         `json:"limit_price,omitempty"` // zero for market orders
}

func NewSubmissionIntent(instrument string, side enum.Side, class enum.OrderClass, size, leverage, limitPrice float64) SubmissionIntent {
	return SubmissionIntent{
		ID:             uuid.New(),
		InstrumentName: instrument,
		Side:           side,
		Class:          class,
		Size:           size,
		Leverage:       leverage,
		LimitPrice:     limitPrice,
	}
}

// ChainTxPayload is the calldata handed to the signing capability. IsSell
// keeps the contract's boolean side encoding: false=buy, true=sell.
type ChainTxPayload struct {
	InstrumentName string  `json:"instrument_name"`
	IsSell         bool    `json:"is_sell"`
	Size           float64 `json:"size"`
	Leverage       float64 `json:"leverage"`
	LimitPrice     float64 `json:"limit_price,omitempty"`
}

// ChainReceipt records a settled on-chain submission. It is retained even
// when the engine later rejects the order, so the divergence stays visible.
type ChainReceipt struct {
	TxHash string `json:"tx_hash"`
}

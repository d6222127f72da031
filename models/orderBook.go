package models

import "github.com/shopspring/decimal"

// OrderBookLevel is one (price, size) pair as it arrives off the wire. The
// feed quotes both fields as strings; parsing happens at aggregation time so
// a malformed level fails the aggregation call instead of the read loop.
type OrderBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBookSnapshot is the complete book for one instrument: asks in
// ascending price order, bids in descending price order, as sorted upstream.
// Each snapshot replaces the prior one wholesale.
type OrderBookSnapshot struct {
	InstrumentName string           `json:"instrument_name"`
	Asks           []OrderBookLevel `json:"asks"`
	Bids           []OrderBookLevel `json:"bids"`
}

// DepthRow is a display-ready level: its own size plus the running total of
// size at or better than its price. Derived fresh from every snapshot,
// never persisted.
type DepthRow struct {
	Price          decimal.Decimal `json:"price"`
	Size           decimal.Decimal `json:"size"`
	CumulativeSize decimal.Decimal `json:"cumulative_size"`
}

package models

import "time"

// Position is the per-instrument exposure as reported by the matching
// engine. Replaced wholesale on every refresh.
type Position struct {
	InstrumentName            string  `json:"instrument_name"`
	Size                      float64 `json:"size"`
	Direction                 string  `json:"direction"` // "long" | "short"
	AveragePrice              float64 `json:"average_price"`
	Margin                    float64 `json:"margin"`
	UnrealizedPnL             float64 `json:"unrealized_pnl"`
	EstimatedLiquidationPrice float64 `json:"estimated_liquidation_price"`
}

// OpenOrder is one resting order on the engine, keyed by order id within
// its instrument.
type OpenOrder struct {
	OrderID         string    `json:"order_id"`
	InstrumentName  string    `json:"instrument_name"`
	Side            string    `json:"side"`
	Size            float64   `json:"size"`
	Class           string    `json:"class"` // "market" | "limit"
	RemainingToFill float64   `json:"remaining_to_fill"`
	Time            time.Time `json:"time"`
}

// Transfer is a collateral deposit or withdrawal.
type Transfer struct {
	Amount float64   `json:"amount"`
	TxHash string    `json:"tx_hash"`
	Time   time.Time `json:"time"`
}

// Trade is one historical fill.
type Trade struct {
	InstrumentName string    `json:"instrument_name"`
	Side           string    `json:"side"`
	Amount         float64   `json:"amount"`
	Price          float64   `json:"price"`
	Time           time.Time `json:"time"`
}

// AccountSummary is the read shape handed to the UI. The margin and PnL
// figures are derived on read from the store - they are never stored, so
// they cannot diverge from the positions that produced them.
type AccountSummary struct {
	Collateral      float64                         `json:"collateral"`
	AvailableMargin float64                         `json:"available_margin"`
	TotalMarginUsed float64                         `json:"total_margin_used"`
	RemainingMargin float64                         `json:"remaining_margin"`
	LivePnL         float64                         `json:"live_pnl"`
	Positions       map[string]Position             `json:"positions"`
	OpenOrders      map[string]map[string]OpenOrder `json:"open_orders"`
}

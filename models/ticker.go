package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickerStats carries the 24h rollups for one instrument.
type TickerStats struct {
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
	VolumeUSD string `json:"volume_usd"`
}

// TickerSnapshot is the full ticker state for one instrument at a point in
// time. Each snapshot replaces the previous one wholesale - there is no
// partial merge.
type TickerSnapshot struct {
	InstrumentName string      `json:"instrument_name"`
	IndexPrice     string      `json:"index_price"`
	MarkPrice      string      `json:"mark_price"`
	Stats          TickerStats `json:"stats"`
}

// Index parses the index price for numeric use (order sizing).
func (t TickerSnapshot) Index() (decimal.Decimal, error) {
	return decimal.NewFromString(t.IndexPrice)
}

// FrontEndTicker is the reduced shape pushed to the terminal UI.
type FrontEndTicker struct {
	Type       string    `json:"type"`
	Instrument string    `json:"instrument"`
	IndexPrice string    `json:"index_price"`
	MarkPrice  string    `json:"mark_price"`
	Time       time.Time `json:"time"`
}

func GetFrontEndTicker(t TickerSnapshot) FrontEndTicker {
	return FrontEndTicker{
		Type:       "ticker",
		Instrument: t.InstrumentName,
		IndexPrice: t.IndexPrice,
		MarkPrice:  t.MarkPrice,
		Time:       time.Now(),
	}
}

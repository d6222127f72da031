package main

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/A-Here-And-Now/perp-trader/trading_core/depth"
	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

// MarketState caches the latest snapshot per instrument. One live
// TickerSnapshot and one live depth table exist per instrument at a time;
// every apply replaces the previous entry wholesale.
type MarketState struct {
	mu      sync.RWMutex
	tickers map[string]models.TickerSnapshot
	index   map[string]decimal.Decimal
	depths  map[string]depth.Table
}

func NewMarketState() *MarketState {
	return &MarketState{
		tickers: make(map[string]models.TickerSnapshot),
		index:   make(map[string]decimal.Decimal),
		depths:  make(map[string]depth.Table),
	}
}

func (m *MarketState) ApplyTicker(t models.TickerSnapshot) {
	idx, err := t.Index()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[t.InstrumentName] = t
	if err == nil {
		m.index[t.InstrumentName] = idx
	}
}

func (m *MarketState) ApplyDepth(instrument string, table depth.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depths[instrument] = table
}

func (m *MarketState) Ticker(instrument string) (models.TickerSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickers[instrument]
	return t, ok
}

func (m *MarketState) Depth(instrument string) (depth.Table, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.depths[instrument]
	return d, ok
}

// IndexPrice feeds the submission orchestrator's order sizing.
func (m *MarketState) IndexPrice(instrument string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.index[instrument]
	if !ok {
		return decimal.Zero, fmt.Errorf("no index price for %s yet", instrument)
	}
	return idx, nil
}

package account

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

func TestDerivedReads(t *testing.T) {
	s := NewStore()
	s.SetCollateral(1000)
	s.SetPositions(map[string]models.Position{
		"BTC-20DEC23": {InstrumentName: "BTC-20DEC23", Margin: 250, UnrealizedPnL: 40},
		"ETH-29MAR24": {InstrumentName: "ETH-29MAR24", Margin: 150, UnrealizedPnL: -15},
	})

	assert.Equal(t, 400.0, s.TotalMarginUsed())
	assert.Equal(t, 600.0, s.RemainingMargin())
	assert.Equal(t, 25.0, s.LivePnL())
}

func TestRemainingMarginZeroCollateral(t *testing.T) {
	s := NewStore()
	s.SetPositions(map[string]models.Position{
		"BTC-20DEC23": {Margin: 250},
	})

	// collateral = 0 must read as 0, never a negative or NaN figure
	got := s.RemainingMargin()
	assert.Equal(t, 0.0, got)
	assert.False(t, math.IsNaN(got))
}

func TestDerivedReadsGuardNaN(t *testing.T) {
	s := NewStore()
	s.SetCollateral(100)
	s.SetPositions(map[string]models.Position{
		"BTC-20DEC23": {Margin: math.NaN(), UnrealizedPnL: math.NaN()},
	})

	assert.Equal(t, 0.0, s.TotalMarginUsed())
	assert.Equal(t, 0.0, s.LivePnL())
	assert.False(t, math.IsNaN(s.RemainingMargin()))
}

func TestSettersReplaceWholesale(t *testing.T) {
	s := NewStore()
	s.SetPositions(map[string]models.Position{
		"BTC-20DEC23": {Margin: 250},
		"ETH-29MAR24": {Margin: 150},
	})
	// backend stops reporting the closed ETH position
	s.SetPositions(map[string]models.Position{
		"BTC-20DEC23": {Margin: 300},
	})

	got := s.Positions()
	require.Len(t, got, 1)
	_, stale := got["ETH-29MAR24"]
	assert.False(t, stale, "stale key leaked through a merge")
}

func TestSelectorsReturnCopies(t *testing.T) {
	s := NewStore()
	s.SetPositions(map[string]models.Position{"BTC-20DEC23": {Margin: 100}})

	cp := s.Positions()
	cp["BTC-20DEC23"] = models.Position{Margin: 999}
	assert.Equal(t, 100.0, s.Positions()["BTC-20DEC23"].Margin)

	s.SetOpenOrders(map[string]map[string]models.OpenOrder{
		"BTC-20DEC23": {"o1": {OrderID: "o1", Size: 5}},
	})
	oo := s.OpenOrders()
	oo["BTC-20DEC23"]["o1"] = models.OpenOrder{OrderID: "o1", Size: 7}
	assert.Equal(t, 5.0, s.OpenOrders()["BTC-20DEC23"]["o1"].Size)
}

func TestReset(t *testing.T) {
	s := NewStore()
	s.SetCollateral(1000)
	s.SetAvailableMargin(600)
	s.SetPositions(map[string]models.Position{"BTC-20DEC23": {Margin: 100}})
	s.SetTrades([]models.Trade{{InstrumentName: "BTC-20DEC23"}})

	s.Reset()

	assert.Zero(t, s.Collateral())
	assert.Zero(t, s.AvailableMargin())
	assert.Empty(t, s.Positions())
	assert.Empty(t, s.OpenOrders())
	assert.Empty(t, s.Trades())
	assert.Equal(t, 0.0, s.RemainingMargin())
}

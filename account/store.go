// Package account holds the user's positions, open orders, collateral and
// derived margin figures. The store is injectable - owned by the
// application root and passed to consumers, never a package-level global.
package account

import (
	"math"
	"sync"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

// Store is the single writer-side container for private account state.
// Every setter replaces its field wholesale; merge updates are disallowed
// so a closed position the backend stops reporting cannot linger as a
// stale key. Concurrent writers resolve last-write-wins.
type Store struct {
	mu              sync.RWMutex
	positions       map[string]models.Position
	openOrders      map[string]map[string]models.OpenOrder
	collateral      float64
	availableMargin float64
	deposits        []models.Transfer
	withdrawals     []models.Transfer
	trades          []models.Trade
}

func NewStore() *Store {
	return &Store{
		positions:  make(map[string]models.Position),
		openOrders: make(map[string]map[string]models.OpenOrder),
	}
}

// ---------- write actions ----------

func (s *Store) SetPositions(positions map[string]models.Position) {
	cp := make(map[string]models.Position, len(positions))
	for k, v := range positions {
		cp[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = cp
}

func (s *Store) SetOpenOrders(orders map[string]map[string]models.OpenOrder) {
	cp := make(map[string]map[string]models.OpenOrder, len(orders))
	for instrument, byID := range orders {
		inner := make(map[string]models.OpenOrder, len(byID))
		for id, o := range byID {
			inner[id] = o
		}
		cp[instrument] = inner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openOrders = cp
}

func (s *Store) SetCollateral(collateral float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collateral = collateral
}

func (s *Store) SetAvailableMargin(availableMargin float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availableMargin = availableMargin
}

func (s *Store) SetDeposits(deposits []models.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deposits = append([]models.Transfer(nil), deposits...)
}

func (s *Store) SetWithdrawals(withdrawals []models.Transfer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawals = append([]models.Transfer(nil), withdrawals...)
}

func (s *Store) SetTrades(trades []models.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append([]models.Trade(nil), trades...)
}

// Reset returns the store to its zero-value state: empty maps, zero
// collateral.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = make(map[string]models.Position)
	s.openOrders = make(map[string]map[string]models.OpenOrder)
	s.collateral = 0
	s.availableMargin = 0
	s.deposits = nil
	s.withdrawals = nil
	s.trades = nil
}

// ---------- selectors ----------

// Positions returns a copy so callers cannot mutate internal state.
func (s *Store) Positions() map[string]models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]models.Position, len(s.positions))
	for k, v := range s.positions {
		cp[k] = v
	}
	return cp
}

func (s *Store) OpenOrders() map[string]map[string]models.OpenOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]map[string]models.OpenOrder, len(s.openOrders))
	for instrument, byID := range s.openOrders {
		inner := make(map[string]models.OpenOrder, len(byID))
		for id, o := range byID {
			inner[id] = o
		}
		cp[instrument] = inner
	}
	return cp
}

func (s *Store) Collateral() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collateral
}

func (s *Store) AvailableMargin() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableMargin
}

func (s *Store) Deposits() []models.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Transfer(nil), s.deposits...)
}

func (s *Store) Withdrawals() []models.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Transfer(nil), s.withdrawals...)
}

func (s *Store) Trades() []models.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Trade(nil), s.trades...)
}

// ---------- derived reads (computed, never stored) ----------

func (s *Store) TotalMarginUsed() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalMarginUsedLocked()
}

func (s *Store) totalMarginUsedLocked() float64 {
	total := 0.0
	for _, p := range s.positions {
		total += p.Margin
	}
	return guardNaN(total)
}

// RemainingMargin is collateral minus total margin in use. With zero
// collateral it reads 0 - a NaN must never reach the UI layer, and NaN is
// not a valid equality target for a zero check.
func (s *Store) RemainingMargin() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collateral == 0 {
		return 0
	}
	return guardNaN(s.collateral - s.totalMarginUsedLocked())
}

func (s *Store) LivePnL() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0.0
	for _, p := range s.positions {
		total += p.UnrealizedPnL
	}
	return guardNaN(total)
}

// Summary assembles the read shape handed to the UI in one lock scope.
func (s *Store) Summary() models.AccountSummary {
	return models.AccountSummary{
		Collateral:      s.Collateral(),
		AvailableMargin: s.AvailableMargin(),
		TotalMarginUsed: s.TotalMarginUsed(),
		RemainingMargin: s.RemainingMargin(),
		LivePnL:         s.LivePnL(),
		Positions:       s.Positions(),
		OpenOrders:      s.OpenOrders(),
	}
}

func guardNaN(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Package depth turns raw order-book snapshots into display-ready,
// cumulatively-summed depth tables.
package depth

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

// ErrMalformedLevel reports a level whose price or size is not numeric.
// The aggregation call fails fast rather than coercing the value.
var ErrMalformedLevel = errors.New("malformed order book level")

// Table is one aggregation result. Asks hold the best (lowest) prices
// first and bids the best (highest) prices first; cumulative sums run from
// the best price outward on each side.
//
// Rendering contract: callers draw asks worst-price-first (reversed)
// directly above bids best-price-first, so best ask and best bid meet in
// the middle.
type Table struct {
	Asks []models.DepthRow `json:"asks"`
	Bids []models.DepthRow `json:"bids"`
}

// Aggregate takes the first topN levels per side and computes running
// cumulative sizes. The feed delivers both sides pre-sorted (asks
// ascending, bids descending); no re-sort happens here. Empty sides yield
// empty row slices with no error.
func Aggregate(snapshot models.OrderBookSnapshot, topN int) (Table, error) {
	asks, err := aggregateSide(snapshot.Asks, topN)
	if err != nil {
		return Table{}, fmt.Errorf("asks: %w", err)
	}
	bids, err := aggregateSide(snapshot.Bids, topN)
	if err != nil {
		return Table{}, fmt.Errorf("bids: %w", err)
	}
	return Table{Asks: asks, Bids: bids}, nil
}

func aggregateSide(levels []models.OrderBookLevel, topN int) ([]models.DepthRow, error) {
	if topN < 0 {
		topN = 0
	}
	n := min(topN, len(levels))
	rows := make([]models.DepthRow, 0, n)
	running := decimal.Zero
	for _, level := range levels[:n] {
		price, err := decimal.NewFromString(level.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q", ErrMalformedLevel, level.Price)
		}
		size, err := decimal.NewFromString(level.Size)
		if err != nil {
			return nil, fmt.Errorf("%w: size %q", ErrMalformedLevel, level.Size)
		}
		running = running.Add(size)
		rows = append(rows, models.DepthRow{
			Price:          price,
			Size:           size,
			CumulativeSize: running,
		})
	}
	return rows, nil
}

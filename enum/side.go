package enum

import "fmt"

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return ""
	}
}

// Wire encodes the side for the on-chain payload: false=buy, true=sell.
// The mapping is fixed by the exchange contract and must not change.
func (s Side) Wire() bool {
	return s == Sell
}

func GetSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side (%s)", s)
	}
}

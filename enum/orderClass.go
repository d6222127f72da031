package enum

import "fmt"

type OrderClass int

const (
	Market OrderClass = iota
	Limit
)

func (c OrderClass) String() string {
	switch c {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return ""
	}
}

func GetOrderClass(s string) (OrderClass, error) {
	switch s {
	case "market":
		return Market, nil
	case "limit":
		return Limit, nil
	default:
		return 0, fmt.Errorf("unknown order class (%s)", s)
	}
}

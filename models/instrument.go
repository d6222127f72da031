package models

import (
	"fmt"
	"strings"
)

// Instrument identifies a tradable contract, e.g. "BTC-20DEC23".
// Immutable once listed.
type Instrument struct {
	Base   string `json:"base"`
	Expiry string `json:"expiry"`
}

func (i Instrument) Name() string {
	return i.Base + "-" + i.Expiry
}

func ParseInstrument(name string) (Instrument, error) {
	base, expiry, ok := strings.Cut(name, "-")
	if !ok || base == "" || expiry == "" {
		return Instrument{}, fmt.Errorf("malformed instrument name %q", name)
	}
	return Instrument{Base: base, Expiry: expiry}, nil
}

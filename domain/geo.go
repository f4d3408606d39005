package domain

import (
	"context"
	"errors"
)

// ErrInvalidPincode is the explicit invalid-code signal from the postal
// lookup, as opposed to a transport failure.
var ErrInvalidPincode = errors.New("invalid pincode")

type PincodeLookup struct {
	Pincode string   `json:"pincode"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Areas   []string `json:"areas"`
}

type GeoLookup interface {
	Lookup(ctx context.Context, pincode string) (*PincodeLookup, error)
}

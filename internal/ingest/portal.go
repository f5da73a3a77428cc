package ingest

import (
	"context"
)

// BalanceReader reports the meter's current balance
type BalanceReader interface {
	ReadBalance(ctx context.Context) (float64, error)
}

// PortalSource adapts a balance-only reader, such as a vendor web portal, to a MeterSource
type PortalSource struct {
	reader BalanceReader
}

// NewPortalSource wraps reader
func NewPortalSource(reader BalanceReader) *PortalSource {
	return &PortalSource{reader: reader}
}

// Read returns the balance as the period's end units
func (s *PortalSource) Read(ctx context.Context) (Reading, error) {
	balance, err := s.reader.ReadBalance(ctx)
	if err != nil {
		return Reading{}, err
	}
	return Reading{UnitsEnd: balance}, nil
}

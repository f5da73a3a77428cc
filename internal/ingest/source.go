package ingest

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Reading is one period's meter observation.
// Sources that only know the current balance leave HasStart false and the
// ingestor takes the start from the previous record's end.
type Reading struct {
	UnitsStart float64
	UnitsEnd   float64
	HasStart   bool
}

// MeterSource produces the reading for the current period
type MeterSource interface {
	Read(ctx context.Context) (Reading, error)
}

// Simulated stands in for a real meter: start in [50,100], usage in [1.5,5.0]
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated creates a simulator seeded from the clock
func NewSimulated() *Simulated {
	seed := uint64(time.Now().UnixNano())
	return NewSimulatedWithSeed(seed)
}

// NewSimulatedWithSeed creates a reproducible simulator
func NewSimulatedWithSeed(seed uint64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Read returns a random reading
func (s *Simulated) Read(ctx context.Context) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := uniform(s.rng, 50, 100)
	usage := uniform(s.rng, 1.5, 5.0)
	return Reading{UnitsStart: start, UnitsEnd: start - usage, HasStart: true}, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

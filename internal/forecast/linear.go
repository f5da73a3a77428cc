package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/jgoulah/powerpal/pkg/models"
)

// LinearModel is an ordinary least squares fit of usage against record position
type LinearModel struct {
	Intercept float64   `json:"intercept"`
	Slope     float64   `json:"slope"`
	Records   int       `json:"records"`  // Size of the history the model was fitted on
	Checksum  uint64    `json:"checksum"` // Checksum of that history, see Checksum
	TrainedAt time.Time `json:"trained_at"`
}

// Fit performs linear regression usage = a + b*index over 0-based positions
func Fit(records []models.UsageRecord) (*LinearModel, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("fitting trend: %w", models.ErrInsufficientData)
	}

	var sumX, sumY, sumXY, sumXX float64
	n := float64(len(records))
	for i, record := range records {
		x := float64(i)
		y := record.Usage
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	// A single point has no variation in x; the fit degenerates to a flat line through it
	var b float64
	if denom := n*sumXX - sumX*sumX; denom != 0 {
		b = (n*sumXY - sumX*sumY) / denom
	}
	a := (sumY - b*sumX) / n

	if !finite(a) || !finite(b) {
		return nil, fmt.Errorf("fitting trend: non-finite coefficients (a=%v, b=%v)", a, b)
	}

	return &LinearModel{Intercept: a, Slope: b, Records: len(records), Checksum: Checksum(records)}, nil
}

// Checksum hashes the records in order, so a model can tell whether it was fitted on this exact history
func Checksum(records []models.UsageRecord) uint64 {
	h := xxhash.New()
	for _, record := range records {
		h.WriteString(strings.Join(record.Fields(), ","))
		h.WriteString("\n")
	}
	return h.Sum64()
}

// FittedOn reports whether the model was fitted on exactly these records
func (m *LinearModel) FittedOn(records []models.UsageRecord) bool {
	return m.Records == len(records) && m.Checksum == Checksum(records)
}

// At evaluates the trend at the given record position
func (m *LinearModel) At(index int) float64 {
	return m.Intercept + m.Slope*float64(index)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

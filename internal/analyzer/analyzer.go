// Package analyzer derives the rolling usage summary from the usage log.
package analyzer

import (
	"fmt"

	"github.com/jgoulah/powerpal/pkg/models"
)

// DefaultWindow is the number of most recent records averaged
const DefaultWindow = 7

// Summarize computes the summary over the last DefaultWindow records
func Summarize(records []models.UsageRecord) (models.Summary, error) {
	return SummarizeWindow(records, DefaultWindow)
}

// SummarizeWindow computes the summary over the last window records, or all of them if fewer.
// Positions are taken in insertion order; record dates are never consulted.
func SummarizeWindow(records []models.UsageRecord, window int) (models.Summary, error) {
	if len(records) == 0 {
		return models.Summary{}, fmt.Errorf("summarizing usage: %w", models.ErrInsufficientData)
	}
	if window <= 0 {
		window = DefaultWindow
	}

	recent := records
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	var total float64
	for _, record := range recent {
		total += record.Usage
	}

	summary := models.Summary{
		AverageUsage: total / float64(len(recent)),
		Balance:      records[len(records)-1].UnitsEnd,
		Window:       len(recent),
	}
	if summary.AverageUsage != 0 {
		summary.DaysLeft = summary.Balance / summary.AverageUsage
	}

	return summary, nil
}

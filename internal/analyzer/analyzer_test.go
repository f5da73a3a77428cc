package analyzer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerpal/pkg/models"
)

func day(n int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestSummarize_Scenario(t *testing.T) {
	records := []models.UsageRecord{
		models.NewRecord(day(0), 100, 95),
		models.NewRecord(day(1), 95, 90),
		models.NewRecord(day(2), 90, 86),
	}

	summary, err := Summarize(records)
	require.NoError(t, err)

	rounded := summary.Rounded()
	assert.Equal(t, 4.67, rounded.AverageUsage)
	assert.Equal(t, 86.0, rounded.Balance)
	assert.Equal(t, 18.4, rounded.DaysLeft)
	assert.Equal(t, 3, summary.Window)
	assert.Equal(t, summary.Balance/summary.AverageUsage, summary.DaysLeft)
}

func TestSummarize_UsesLastSevenRecords(t *testing.T) {
	var records []models.UsageRecord
	// Three heavy days followed by seven days of 2 units each
	for i := 0; i < 3; i++ {
		records = append(records, models.NewRecord(day(i), 100, 80))
	}
	balance := 80.0
	for i := 3; i < 10; i++ {
		records = append(records, models.NewRecord(day(i), balance, balance-2))
		balance -= 2
	}

	summary, err := Summarize(records)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, summary.AverageUsage, 1e-9)
	assert.Equal(t, 66.0, summary.Balance)
	assert.InDelta(t, 33.0, summary.DaysLeft, 1e-9)
	assert.Equal(t, DefaultWindow, summary.Window)
}

func TestSummarize_ZeroUsage(t *testing.T) {
	records := []models.UsageRecord{
		{Date: day(0), UnitsStart: 40, UnitsEnd: 40, Usage: 0},
		{Date: day(1), UnitsStart: 40, UnitsEnd: 40, Usage: 0},
	}

	summary, err := Summarize(records)
	require.NoError(t, err)

	assert.Equal(t, 0.0, summary.AverageUsage)
	assert.Equal(t, 40.0, summary.Balance)
	assert.Equal(t, 0.0, summary.DaysLeft)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestSummarize_IgnoresDateOrder(t *testing.T) {
	records := []models.UsageRecord{
		models.NewRecord(day(5), 50, 45),
		models.NewRecord(day(1), 45, 41),
		models.NewRecord(day(1), 41, 38),
	}

	summary, err := Summarize(records)
	require.NoError(t, err)

	assert.Equal(t, 38.0, summary.Balance)
	assert.InDelta(t, 4.0, summary.AverageUsage, 1e-9)
}

func TestSummarizeWindow_Custom(t *testing.T) {
	records := []models.UsageRecord{
		models.NewRecord(day(0), 20, 10),
		models.NewRecord(day(1), 10, 9),
	}

	summary, err := SummarizeWindow(records, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, summary.AverageUsage, 1e-9)
	assert.InDelta(t, 9.0, summary.DaysLeft, 1e-9)
}

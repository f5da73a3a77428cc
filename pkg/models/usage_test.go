package models

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	r := NewRecord(time.Date(2025, 3, 9, 22, 15, 0, 0, time.UTC), 87.456, 83.111)

	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), r.Date)
	assert.Equal(t, 87.46, r.UnitsStart)
	assert.Equal(t, 83.11, r.UnitsEnd)
	assert.Equal(t, 4.35, r.Usage)
	assert.NoError(t, r.Validate())
}

func TestValidate(t *testing.T) {
	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record UsageRecord
		field  string
	}{
		{"end above start", NewRecord(day, 10, 12), "units_end"},
		{"equal readings", NewRecord(day, 10, 10), "units_end"},
		{"negative start", UsageRecord{Date: day, UnitsStart: -1, UnitsEnd: -3, Usage: 2}, "units_start"},
		{"negative end", UsageRecord{Date: day, UnitsStart: 1, UnitsEnd: -3, Usage: 4}, "units_end"},
		{"missing date", UsageRecord{UnitsStart: 5, UnitsEnd: 3, Usage: 2}, "date"},
		{"usage mismatch", UsageRecord{Date: day, UnitsStart: 5, UnitsEnd: 3, Usage: 7}, "usage"},
		{"nan usage", UsageRecord{Date: day, UnitsStart: 5, UnitsEnd: 3, Usage: math.NaN()}, "usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFieldsRoundTrip(t *testing.T) {
	original := NewRecord(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 99.99, 95.01)

	parsed, err := ParseFields(original.Fields())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseFields_Errors(t *testing.T) {
	_, err := ParseFields([]string{"2025-01-01", "1", "2"})
	assert.Error(t, err)

	_, err = ParseFields([]string{"2025-01-01", "x", "2", "3"})
	assert.ErrorContains(t, err, "units_start")

	_, err = ParseFields([]string{"01/02/2025", "5", "2", "3"})
	assert.ErrorContains(t, err, "invalid date")

	_, err = ParseFields([]string{"2025-01-02", "8", "NaN", "NaN"})
	assert.ErrorContains(t, err, "units_end: non-finite")

	_, err = ParseFields([]string{"2025-01-02", "Inf", "8", "2"})
	assert.ErrorContains(t, err, "units_start: non-finite")
}

func TestSummaryRounded(t *testing.T) {
	s := Summary{AverageUsage: 14.0 / 3, Balance: 86.004, DaysLeft: 86 / (14.0 / 3), Window: 3}.Rounded()

	assert.Equal(t, 4.67, s.AverageUsage)
	assert.Equal(t, 86.0, s.Balance)
	assert.Equal(t, 18.4, s.DaysLeft)
}

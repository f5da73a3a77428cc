package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the on-disk form of a record date
const DateLayout = "2006-01-02"

// legacyDateLayouts are accepted when reading older logs that stored a full timestamp
var legacyDateLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// usageTolerance absorbs 2-decimal rounding between usage and start - end
const usageTolerance = 0.015

// UsageRecord represents a single reporting period of a prepaid meter
type UsageRecord struct {
	Date       time.Time `json:"date"` // Calendar date only
	UnitsStart float64   `json:"units_start"`
	UnitsEnd   float64   `json:"units_end"`
	Usage      float64   `json:"usage"`
}

// NewRecord builds a record for the given date, deriving usage from the two readings
func NewRecord(date time.Time, unitsStart, unitsEnd float64) UsageRecord {
	start, end := Round(unitsStart, 2), Round(unitsEnd, 2)
	return UsageRecord{
		Date:       TruncateDate(date),
		UnitsStart: start,
		UnitsEnd:   end,
		Usage:      Round(start-end, 2),
	}
}

// Validate rejects physically impossible readings
func (r UsageRecord) Validate() error {
	switch {
	case r.Date.IsZero():
		return &ValidationError{Field: "date", Reason: "is required"}
	case r.UnitsStart < 0 || isBad(r.UnitsStart):
		return &ValidationError{Field: "units_start", Reason: "must be a non-negative number"}
	case r.UnitsEnd < 0 || isBad(r.UnitsEnd):
		return &ValidationError{Field: "units_end", Reason: "must be a non-negative number"}
	case r.UnitsStart <= r.UnitsEnd:
		return &ValidationError{Field: "units_end", Reason: fmt.Sprintf("start (%.2f) must be greater than end (%.2f)", r.UnitsStart, r.UnitsEnd)}
	case isBad(r.Usage) || math.Abs(r.Usage-(r.UnitsStart-r.UnitsEnd)) > usageTolerance:
		return &ValidationError{Field: "usage", Reason: fmt.Sprintf("%.2f does not match start - end", r.Usage)}
	}
	return nil
}

// Fields returns the record in flat-file column order: date,units_start,units_end,usage
func (r UsageRecord) Fields() []string {
	return []string{
		r.Date.Format(DateLayout),
		formatUnits(r.UnitsStart),
		formatUnits(r.UnitsEnd),
		formatUnits(r.Usage),
	}
}

// ParseFields parses a flat-file row. Dates are parsed strictly; see ParseDate.
func ParseFields(fields []string) (UsageRecord, error) {
	if len(fields) != 4 {
		return UsageRecord{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}

	date, err := ParseDate(fields[0])
	if err != nil {
		return UsageRecord{}, err
	}

	var values [3]float64
	for i, name := range []string{"units_start", "units_end", "usage"} {
		values[i], err = strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return UsageRecord{}, fmt.Errorf("parsing %s: %w", name, err)
		}
		if isBad(values[i]) {
			return UsageRecord{}, fmt.Errorf("parsing %s: non-finite value %q", name, fields[i+1])
		}
	}

	return UsageRecord{
		Date:       date,
		UnitsStart: values[0],
		UnitsEnd:   values[1],
		Usage:      values[2],
	}, nil
}

// ParseDate parses an ISO date, also accepting timestamps written by older versions
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	for _, layout := range legacyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
}

// TruncateDate drops the time component, keeping the calendar date in UTC
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Round rounds v to the given number of decimal places
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func formatUnits(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

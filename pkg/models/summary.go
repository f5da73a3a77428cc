package models

import "time"

// Summary is the rolling read-side aggregate over the most recent records
type Summary struct {
	AverageUsage float64 `json:"average_usage"`
	Balance      float64 `json:"balance"`
	DaysLeft     float64 `json:"days_left"`
	Window       int     `json:"window"` // Number of records averaged
}

// Rounded returns the summary at display precision
func (s Summary) Rounded() Summary {
	return Summary{
		AverageUsage: Round(s.AverageUsage, 2),
		Balance:      Round(s.Balance, 2),
		DaysLeft:     Round(s.DaysLeft, 1),
		Window:       s.Window,
	}
}

// Report combines a summary with the next-period forecast for delivery
type Report struct {
	Summary     Summary   `json:"summary"`
	Forecast    float64   `json:"forecast"`
	GeneratedAt time.Time `json:"generated_at"`
}

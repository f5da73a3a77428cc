package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jgoulah/powerpal/pkg/models"
)

// Metrics holds the gauges and counters exported on /metrics
type Metrics struct {
	Balance      prometheus.Gauge
	AverageUsage prometheus.Gauge
	DaysLeft     prometheus.Gauge
	Forecast     prometheus.Gauge
	Records      prometheus.Gauge
	Steps        *prometheus.CounterVec
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerpal_balance_units",
			Help: "Units remaining on the meter at the end of the last recorded period",
		}),
		AverageUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerpal_average_usage_units",
			Help: "Mean usage over the recent window",
		}),
		DaysLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerpal_days_left",
			Help: "Estimated days until the balance runs out",
		}),
		Forecast: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerpal_forecast_usage_units",
			Help: "Predicted usage for the next period",
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "powerpal_records",
			Help: "Number of records in the usage log",
		}),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "powerpal_pipeline_steps_total",
				Help: "Pipeline step executions by outcome",
			},
			[]string{"step", "outcome"},
		),
	}

	reg.MustRegister(m.Balance, m.AverageUsage, m.DaysLeft, m.Forecast, m.Records, m.Steps)
	return m
}

// ObserveSummary records the latest summary
func (m *Metrics) ObserveSummary(s models.Summary) {
	m.Balance.Set(s.Balance)
	m.AverageUsage.Set(s.AverageUsage)
	m.DaysLeft.Set(s.DaysLeft)
}

// ObserveStep counts one pipeline step outcome
func (m *Metrics) ObserveStep(step string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Steps.WithLabelValues(step, outcome).Inc()
}

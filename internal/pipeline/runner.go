// Package pipeline sequences collect, train, summarize, predict and send.
// Each step is exposed on its own so callers can retry or skip steps.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jgoulah/powerpal/internal/analyzer"
	"github.com/jgoulah/powerpal/internal/forecast"
	"github.com/jgoulah/powerpal/internal/ingest"
	"github.com/jgoulah/powerpal/internal/metrics"
	"github.com/jgoulah/powerpal/internal/notifier"
	"github.com/jgoulah/powerpal/internal/store"
	"github.com/jgoulah/powerpal/pkg/models"
)

// ErrNoNotifiers means a report was ready but no delivery channel is configured
var ErrNoNotifiers = errors.New("no notifiers configured")

// History keeps generated reports and their delivery status
type History interface {
	SaveReport(report models.Report) (string, error)
	MarkDelivered(id string) error
}

// Deps are the collaborators a Runner drives. Notifier, History and Metrics are optional.
type Deps struct {
	Ingestor   *ingest.Ingestor
	Records    store.Reader
	Forecaster *forecast.Forecaster
	Notifier   notifier.Notifier
	History    History
	Metrics    *metrics.Metrics
}

// Runner executes pipeline steps against one usage log
type Runner struct {
	deps Deps
	log  zerolog.Logger
	now  func() time.Time
}

// New creates a runner
func New(deps Deps, log zerolog.Logger) *Runner {
	return &Runner{deps: deps, log: log, now: time.Now}
}

// Collect appends one meter reading to the log
func (r *Runner) Collect(ctx context.Context) (models.UsageRecord, error) {
	record, err := r.deps.Ingestor.Collect(ctx)
	r.observe("collect", err)
	return record, err
}

// Train refits the forecast model over the whole log
func (r *Runner) Train(ctx context.Context) (*forecast.LinearModel, error) {
	model, err := r.deps.Forecaster.Train(ctx)
	r.observe("train", err)
	return model, err
}

// Refresh retrains only when records were added since the saved model was fitted
func (r *Runner) Refresh(ctx context.Context) (*forecast.LinearModel, bool, error) {
	model, trained, err := r.deps.Forecaster.TrainIfStale(ctx)
	if trained || err != nil {
		r.observe("train", err)
	}
	return model, trained, err
}

// Records returns the current log, treating a missing log as empty
func (r *Runner) Records() ([]models.UsageRecord, error) {
	records, err := r.deps.Records.LoadAll()
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	if records == nil {
		records = []models.UsageRecord{}
	}
	return records, nil
}

// Summarize computes the rolling summary over the current log
func (r *Runner) Summarize() (models.Summary, error) {
	summary, err := r.summarize()
	r.observe("summarize", err)
	if err == nil && r.deps.Metrics != nil {
		r.deps.Metrics.ObserveSummary(summary)
	}
	return summary, err
}

func (r *Runner) summarize() (models.Summary, error) {
	records, err := r.Records()
	if err != nil {
		return models.Summary{}, fmt.Errorf("loading usage log: %w", err)
	}
	if r.deps.Metrics != nil {
		r.deps.Metrics.Records.Set(float64(len(records)))
	}
	return analyzer.Summarize(records)
}

// Predict evaluates the saved model at the next position
func (r *Runner) Predict(ctx context.Context) (float64, error) {
	prediction, err := r.deps.Forecaster.PredictNext(ctx)
	r.observe("predict", err)
	if err == nil && r.deps.Metrics != nil {
		r.deps.Metrics.Forecast.Set(prediction)
	}
	return prediction, err
}

// Report builds a report from the current log. With retrain false the saved
// model is reused when no records were added since it was fitted.
func (r *Runner) Report(ctx context.Context, retrain bool) (models.Report, error) {
	if retrain {
		if _, err := r.Train(ctx); err != nil {
			return models.Report{}, fmt.Errorf("training: %w", err)
		}
	} else if _, _, err := r.Refresh(ctx); err != nil {
		return models.Report{}, fmt.Errorf("training: %w", err)
	}

	summary, err := r.Summarize()
	if err != nil {
		return models.Report{}, fmt.Errorf("summarizing: %w", err)
	}

	prediction, err := r.Predict(ctx)
	if err != nil {
		return models.Report{}, fmt.Errorf("predicting: %w", err)
	}

	return models.Report{Summary: summary, Forecast: prediction, GeneratedAt: r.now().UTC()}, nil
}

// Send delivers the report, recording it in the history when one is configured
func (r *Runner) Send(ctx context.Context, report models.Report) error {
	if r.deps.Notifier == nil {
		return ErrNoNotifiers
	}

	var id string
	if r.deps.History != nil {
		var err error
		if id, err = r.deps.History.SaveReport(report); err != nil {
			r.log.Warn().Err(err).Msg("saving report history")
		}
	}

	err := r.deps.Notifier.Send(ctx, report)
	r.observe("send", err)
	if err != nil {
		return err
	}

	if id != "" {
		if err := r.deps.History.MarkDelivered(id); err != nil {
			r.log.Warn().Err(err).Str("report_id", id).Msg("marking report delivered")
		}
	}
	return nil
}

// Run executes the full sequence. A failed collect or train is logged and the
// remaining steps still run against the existing log and model; send is skipped
// when no complete report could be built. All step errors are returned joined.
func (r *Runner) Run(ctx context.Context) (models.Report, error) {
	r.log.Info().Msg("running scheduled job")
	var errs []error

	if record, err := r.Collect(ctx); err != nil {
		r.log.Warn().Err(err).Msg("collect failed, continuing with existing data")
		errs = append(errs, fmt.Errorf("collect: %w", err))
	} else {
		r.log.Info().
			Str("date", record.Date.Format(models.DateLayout)).
			Float64("units_start", record.UnitsStart).
			Float64("units_end", record.UnitsEnd).
			Float64("usage", record.Usage).
			Msg("collected reading")
	}

	if model, err := r.Train(ctx); err != nil {
		r.log.Warn().Err(err).Msg("train failed, using previous model if any")
		errs = append(errs, fmt.Errorf("train: %w", err))
	} else {
		r.log.Info().Float64("intercept", model.Intercept).Float64("slope", model.Slope).Int("records", model.Records).Msg("model trained")
	}

	summary, err := r.Summarize()
	if err != nil {
		r.log.Error().Err(err).Msg("summarize failed, skipping report")
		return models.Report{}, errors.Join(append(errs, fmt.Errorf("summarize: %w", err))...)
	}

	prediction, err := r.Predict(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("predict failed, skipping report")
		return models.Report{}, errors.Join(append(errs, fmt.Errorf("predict: %w", err))...)
	}

	report := models.Report{Summary: summary, Forecast: prediction, GeneratedAt: r.now().UTC()}
	rounded := summary.Rounded()
	r.log.Info().
		Float64("balance", rounded.Balance).
		Float64("average_usage", rounded.AverageUsage).
		Float64("days_left", rounded.DaysLeft).
		Float64("forecast", models.Round(prediction, 2)).
		Msg("report ready")

	if err := r.Send(ctx, report); err != nil {
		if errors.Is(err, ErrNoNotifiers) {
			r.log.Warn().Msg("no notifiers configured, report not sent")
		} else {
			r.log.Error().Err(err).Msg("sending report failed")
			errs = append(errs, fmt.Errorf("send: %w", err))
		}
	} else {
		r.log.Info().Str("channels", r.deps.Notifier.Name()).Msg("report sent")
	}

	return report, errors.Join(errs...)
}

func (r *Runner) observe(step string, err error) {
	if r.deps.Metrics != nil {
		r.deps.Metrics.ObserveStep(step, err)
	}
}

// Package forecast fits a usage trend over the usage log and predicts the next period.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jgoulah/powerpal/internal/store"
	"github.com/jgoulah/powerpal/pkg/models"
)

// Forecaster trains and serves the trend model for a usage log
type Forecaster struct {
	records   store.Reader
	artifacts ArtifactStore
	now       func() time.Time
}

// New creates a forecaster reading history from records and persisting models to artifacts
func New(records store.Reader, artifacts ArtifactStore) *Forecaster {
	return &Forecaster{records: records, artifacts: artifacts, now: time.Now}
}

// Train fits a fresh model over the whole log and persists it
func (f *Forecaster) Train(ctx context.Context) (*LinearModel, error) {
	records, err := f.load()
	if err != nil {
		return nil, err
	}
	return f.TrainOn(ctx, records)
}

// TrainOn fits a model over the given records and persists it
func (f *Forecaster) TrainOn(ctx context.Context, records []models.UsageRecord) (*LinearModel, error) {
	model, err := Fit(records)
	if err != nil {
		return nil, err
	}
	model.TrainedAt = f.now().UTC()

	if err := f.artifacts.Save(ctx, model); err != nil {
		return nil, fmt.Errorf("saving model: %w", err)
	}
	return model, nil
}

// TrainIfStale reuses the saved model when it was fitted on the current log,
// matched by size and checksum, and retrains otherwise. The bool reports whether training happened.
func (f *Forecaster) TrainIfStale(ctx context.Context) (*LinearModel, bool, error) {
	records, err := f.load()
	if err != nil {
		return nil, false, err
	}

	cached, err := f.artifacts.Load(ctx)
	if err == nil && cached.FittedOn(records) {
		return cached, false, nil
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("loading model: %w", err)
	}

	model, err := f.TrainOn(ctx, records)
	if err != nil {
		return nil, false, err
	}
	return model, true, nil
}

// PredictNext evaluates the saved model one position past the end of the current log
func (f *Forecaster) PredictNext(ctx context.Context) (float64, error) {
	model, err := f.artifacts.Load(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, fmt.Errorf("predicting usage: %w", models.ErrModelNotTrained)
		}
		return 0, fmt.Errorf("loading model: %w", err)
	}

	records, err := f.load()
	if err != nil {
		return 0, err
	}

	prediction := model.At(len(records))
	if !finite(prediction) {
		return 0, fmt.Errorf("predicting usage: non-finite result %v", prediction)
	}
	return prediction, nil
}

// load reads the log, treating a missing log as an empty one
func (f *Forecaster) load() ([]models.UsageRecord, error) {
	records, err := f.records.LoadAll()
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("loading usage log: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("usage log is empty: %w", models.ErrInsufficientData)
	}
	return records, nil
}

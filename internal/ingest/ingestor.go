// Package ingest turns meter readings into usage records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jgoulah/powerpal/internal/store"
	"github.com/jgoulah/powerpal/pkg/models"
)

// Ingestor appends one record per call from a meter source
type Ingestor struct {
	source MeterSource
	store  store.Store
	now    func() time.Time
}

// New creates an ingestor writing readings from source into s
func New(source MeterSource, s store.Store) *Ingestor {
	return &Ingestor{source: source, store: s, now: time.Now}
}

// Collect reads the meter, appends today's record and returns it
func (i *Ingestor) Collect(ctx context.Context) (models.UsageRecord, error) {
	reading, err := i.source.Read(ctx)
	if err != nil {
		return models.UsageRecord{}, fmt.Errorf("reading meter: %w", err)
	}

	if !reading.HasStart {
		start, err := i.previousEnd()
		if err != nil {
			return models.UsageRecord{}, err
		}
		reading.UnitsStart = start
	}

	record := models.NewRecord(i.now(), reading.UnitsStart, reading.UnitsEnd)
	if err := i.store.Append(record); err != nil {
		return models.UsageRecord{}, fmt.Errorf("appending record: %w", err)
	}
	return record, nil
}

// previousEnd returns the last recorded balance, used as the start of a balance-only reading
func (i *Ingestor) previousEnd() (float64, error) {
	records, err := i.store.LoadAll()
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("loading usage log: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("balance-only reading needs a previous record to compute usage: %w", models.ErrInsufficientData)
	}
	return records[len(records)-1].UnitsEnd, nil
}

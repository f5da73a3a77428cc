package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler runs a job once a day at a fixed wall-clock time
type Scheduler struct {
	at       string
	timeout  time.Duration
	location *time.Location
	job      Job
	log      zerolog.Logger
}

// New creates a scheduler running job daily at "HH:MM" in location, bounding each run by timeout
func New(at string, location *time.Location, timeout time.Duration, job Job, log zerolog.Logger) *Scheduler {
	return &Scheduler{at: at, timeout: timeout, location: location, job: job, log: log}
}

// RunOnce executes the job under the per-run timeout. Failures are logged and
// returned; they never stop the schedule.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	err := s.job(runCtx)
	elapsed := time.Since(started)

	if err != nil {
		s.log.Error().Err(err).Dur("elapsed", elapsed).Msg("scheduled job failed, skipping until next run")
		return err
	}
	s.log.Info().Dur("elapsed", elapsed).Msg("scheduled job finished")
	return nil
}

// Start runs the schedule until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	cron := gocron.NewScheduler(s.location)

	job, err := cron.Every(1).Day().At(s.at).SingletonMode().Do(func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling job at %s: %w", s.at, err)
	}

	cron.StartAsync()
	s.log.Info().Str("at", s.at).Str("timezone", s.location.String()).Time("next_run", job.NextRun()).Msg("scheduler started")

	<-ctx.Done()

	cron.Stop()
	s.log.Info().Msg("scheduler stopped")
	return nil
}

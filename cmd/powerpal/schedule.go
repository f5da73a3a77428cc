package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jgoulah/powerpal/internal/scheduler"
	"github.com/spf13/cobra"
)

var scheduleNow bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily collect, forecast and report job",
	Long: `Runs collect, train, summarize, predict and send once a day at the configured
time (schedule.at, default 07:00) until interrupted. A failed run is logged and
the schedule continues.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "Also run the job immediately on start")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := func(ctx context.Context) error {
		_, err := a.runner.Run(ctx)
		return err
	}

	s := scheduler.New(a.cfg.GetScheduleAt(), a.cfg.GetLocation(), a.cfg.GetScheduleTimeout(), job, a.log)
	if scheduleNow {
		// Errors are already logged by RunOnce
		_ = s.RunOnce(ctx)
	}

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("running schedule: %w", err)
	}
	return nil
}

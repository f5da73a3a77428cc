package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jgoulah/powerpal/pkg/models"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Read the meter and append today's record",
	Long: `Reads the configured meter source (simulated, api or portal) and appends
one record for today to the usage log.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	record, err := a.runner.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting reading: %w", err)
	}

	fmt.Printf("✓ Recorded %s: %.2f → %.2f units (used %.2f)\n",
		record.Date.Format(models.DateLayout), record.UnitsStart, record.UnitsEnd, record.Usage)
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show balance, average usage and days left",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.runner.Summarize()
	if err != nil {
		return fmt.Errorf("summarizing usage: %w", err)
	}

	s := summary.Rounded()
	fmt.Printf("Balance:         %.2f units\n", s.Balance)
	fmt.Printf("Avg Daily Usage: %.2f units (last %d records)\n", s.AverageUsage, s.Window)
	fmt.Printf("Days Left:       %.1f\n", s.DaysLeft)
	return nil
}

package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated reports",
	Long:  `Displays reports kept by the sqlite storage backend, newest first, with their delivery status.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of reports to show (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.db == nil {
		return errors.New("report history requires the sqlite storage backend")
	}

	reports, err := a.db.ListReports(historyLimit)
	if err != nil {
		return fmt.Errorf("listing reports: %w", err)
	}

	if len(reports) == 0 {
		fmt.Println("No reports found")
		return nil
	}

	fmt.Println("------------------------------------------------------------------")
	fmt.Printf("%-16s  %9s  %9s  %9s  %9s  %s\n", "Generated", "Balance", "Avg", "Forecast", "Days Left", "Sent")
	fmt.Println("------------------------------------------------------------------")

	for _, r := range reports {
		s := r.Report.Summary.Rounded()
		sent := "no"
		if r.Delivered {
			sent = "yes"
		}
		fmt.Printf("%-16s  %9.2f  %9.2f  %9.2f  %9.1f  %s\n",
			humanize.Time(r.Report.GeneratedAt), s.Balance, s.AverageUsage, r.Report.Forecast, s.DaysLeft, sent)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/powerpal/internal/notifier"
	"github.com/spf13/cobra"
)

var reportSend bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the usage report and optionally deliver it",
	Long: `Prints the current balance, average usage, forecast and days left.
With --send the model is retrained and the report is delivered through every
enabled channel (Twilio, MQTT, Home Assistant).`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "Deliver the report to configured channels")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := newApp(reportSend)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	report, err := a.runner.Report(ctx, reportSend)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	fmt.Println(notifier.FormatReport(report))
	fmt.Printf("Generated %s\n", humanize.Time(report.GeneratedAt))

	if !reportSend {
		return nil
	}

	if err := a.runner.Send(ctx, report); err != nil {
		return fmt.Errorf("sending report: %w", err)
	}
	fmt.Println("✓ Report sent")
	return nil
}

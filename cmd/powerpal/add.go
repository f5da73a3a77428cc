package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/powerpal/pkg/models"
	"github.com/spf13/cobra"
)

var (
	addStart float64
	addEnd   float64
	addDate  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a meter reading manually",
	Long: `Appends a reading entered by hand. The start reading must be greater than the
end reading; top-ups are not recorded as usage.`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().Float64Var(&addStart, "start", 0, "Units at the start of the period")
	addCmd.Flags().Float64Var(&addEnd, "end", 0, "Units at the end of the period")
	addCmd.Flags().StringVar(&addDate, "date", "", "Date of the reading, YYYY-MM-DD (default today)")
	addCmd.MarkFlagRequired("start")
	addCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	date := time.Now()
	if addDate != "" {
		parsed, err := models.ParseDate(addDate)
		if err != nil {
			return err
		}
		date = parsed
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	record := models.NewRecord(date, addStart, addEnd)
	if err := a.records.Append(record); err != nil {
		return fmt.Errorf("adding record: %w", err)
	}

	fmt.Printf("✓ Added %s: used %.2f units\n", record.Date.Format(models.DateLayout), record.Usage)
	return nil
}

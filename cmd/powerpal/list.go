package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/powerpal/pkg/models"
	"github.com/spf13/cobra"
)

var listLast int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded meter readings",
	Long:  `Displays the usage log, oldest first.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVar(&listLast, "last", 8, "Show only the most recent N records (0 for all)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.runner.Records()
	if err != nil {
		return fmt.Errorf("loading usage log: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No readings recorded yet")
		return nil
	}

	total := len(records)
	if listLast > 0 && len(records) > listLast {
		records = records[len(records)-listLast:]
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("%-12s  %10s  %10s  %8s  %s\n", "Date", "Start", "End", "Usage", "")
	fmt.Println("------------------------------------------------------------")

	var used float64
	for _, record := range records {
		fmt.Printf("%-12s  %10.2f  %10.2f  %8.2f  %s\n",
			record.Date.Format(models.DateLayout), record.UnitsStart, record.UnitsEnd, record.Usage,
			humanize.Time(record.Date))
		used += record.Usage
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Used: %.2f units over %d of %s records\n", used, len(records), humanize.Comma(int64(total)))
	return nil
}

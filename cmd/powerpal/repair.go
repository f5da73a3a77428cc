package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Rewrite unreadable dates in the usage log",
	Long: `Rows whose date cannot be parsed are rewritten with today's date.
The log is replaced atomically. Only the csv storage backend needs repair.`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.csv == nil {
		return errors.New("repair only applies to the csv storage backend")
	}

	fixed, err := a.csv.Repair()
	if err != nil {
		return fmt.Errorf("repairing %s: %w", a.csv.Path(), err)
	}

	if fixed == 0 {
		fmt.Println("No malformed dates found")
		return nil
	}
	fmt.Printf("✓ Repaired %d rows in %s\n", fixed, a.csv.Path())
	return nil
}

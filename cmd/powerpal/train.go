package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the usage forecast over the whole log",
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	model, err := a.runner.Train(cmd.Context())
	if err != nil {
		return fmt.Errorf("training model: %w", err)
	}

	fmt.Printf("✓ Trained on %d records: usage = %.4f %+.4f × day\n", model.Records, model.Intercept, model.Slope)
	return nil
}

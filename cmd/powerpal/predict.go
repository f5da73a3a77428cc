package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var predictCached bool

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the next period's usage",
	Long: `Retrains the model and predicts usage for the next period.
With --cached the saved model is reused when no records were added since it was trained.`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&predictCached, "cached", false, "Reuse the saved model when it is up to date")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if predictCached {
		if _, trained, err := a.runner.Refresh(ctx); err != nil {
			return fmt.Errorf("refreshing model: %w", err)
		} else if !trained {
			fmt.Println("Using saved model")
		}
	} else if _, err := a.runner.Train(ctx); err != nil {
		return fmt.Errorf("training model: %w", err)
	}

	prediction, err := a.runner.Predict(ctx)
	if err != nil {
		return fmt.Errorf("predicting usage: %w", err)
	}

	fmt.Printf("Predicted Tomorrow: %.2f units\n", prediction)
	return nil
}

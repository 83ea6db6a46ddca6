package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/emotion-recognizer/internal/config"
	"github.com/kozaktomas/emotion-recognizer/internal/constants"
)

var predictionsCmd = &cobra.Command{
	Use:   "predictions",
	Short: "Show the prediction log",
	Long:  `Print the most recent logged predictions and the totals per label.`,
	RunE:  runPredictions,
}

func init() {
	rootCmd.AddCommand(predictionsCmd)

	predictionsCmd.Flags().Int("limit", constants.DefaultPredictionLimit, "Number of recent predictions to show")
}

func runPredictions(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	limit := mustGetInt(cmd, "limit")
	ctx := context.Background()

	pool, store, err := openPredictionLog(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	records, err := store.RecentPredictions(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load predictions: %w", err)
	}

	fmt.Printf("\nRecent predictions (%d):\n", len(records))
	for _, r := range records {
		stabilized := r.Stabilized
		if stabilized == "" {
			stabilized = "-"
		}
		fmt.Printf("  %s  %-6s  %-10s %-10s %.2f  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Label, stabilized, r.Confidence, r.Backend)
	}

	counts, err := store.CountByLabel(ctx)
	if err != nil {
		return fmt.Errorf("failed to count predictions: %w", err)
	}

	fmt.Printf("\nBy label:\n")
	for _, c := range counts {
		fmt.Printf("  %-10s %d\n", c.Label, c.Count)
	}
	return nil
}

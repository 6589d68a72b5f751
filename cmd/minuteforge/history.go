package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/colabbrave/minuteforge/internal/storage"
	"github.com/colabbrave/minuteforge/internal/storage/sqlite"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Inspect stored optimization runs",
	Long: `Without arguments, lists recent runs. With a run id, shows every
recorded iteration of that run: strategies, scores, and timing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyDB == "" {
			historyDB = cfg.Output.DBPath
		}
		store, err := sqlite.New(historyDB)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer store.Close()

		ctx := context.Background()
		if len(args) == 1 {
			return showRun(ctx, store, args[0])
		}
		return listRuns(ctx, store)
	},
}

func listRuns(ctx context.Context, store storage.Store) error {
	runs, err := store.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Printf("%s\n", cyan(fmt.Sprintf("=== %d run(s) ===", len(runs))))
	for _, run := range runs {
		fmt.Printf("%s  %-10s  %s  %s\n",
			run.StartedAt.Format("2006-01-02 15:04"), statusColored(run.Status), run.ID, run.Document)
	}
	return nil
}

func showRun(ctx context.Context, store storage.Store, runID string) error {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	history, err := store.LoadHistory(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("  document: %s\n  model:    %s\n  status:   %s\n", run.Document, run.Model, statusColored(run.Status))
	if run.StopReason != "" {
		fmt.Printf("  stopped:  %s\n", run.StopReason)
	}
	if run.BestIteration >= 0 {
		fmt.Printf("  best:     round %d\n", run.BestIteration+1)
	}
	fmt.Println()

	for _, r := range history {
		marker := " "
		if r.Iteration == run.BestIteration {
			marker = color.GreenString("*")
		}
		fmt.Printf("%s round %d  score %.4f  %v  [%s]\n",
			marker, r.Iteration+1, r.OverallScore(), r.ExecutionTime.Round(time.Millisecond), strings.Join(r.Strategies, ", "))
	}
	return nil
}

func statusColored(status string) string {
	switch status {
	case storage.StatusCompleted:
		return color.GreenString(status)
	case storage.StatusFailed:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}

func init() {
	historyCmd.Flags().StringVar(&historyDB, "db", "", "path to the run-history database (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	rootCmd.AddCommand(historyCmd)
}

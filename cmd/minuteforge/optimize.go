package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/colabbrave/minuteforge/internal/ai"
	"github.com/colabbrave/minuteforge/internal/optimize"
	"github.com/colabbrave/minuteforge/internal/storage/sqlite"
)

var (
	referencePath string
	outputDir     string
	dbPath        string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <transcript-file-or-directory>",
	Short: "Run the iterative optimization loop on one or more transcripts",
	Long: `Optimize a meeting transcript into professional minutes.

Given a file, runs the full loop on it. Given a directory, processes
every .txt and .md file in it independently: one document's failure does
not abort the rest of the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := collectTranscripts(args[0])
		if err != nil {
			return err
		}

		client, err := ai.NewClient(ai.Config{
			GenerateModel: cfg.Models.GenerateModel,
			JudgeModel:    cfg.Models.JudgeModel,
			Retry:         ai.DefaultRetryConfig(),
		})
		if err != nil {
			return fmt.Errorf("creating AI client: %w", err)
		}

		store, err := sqlite.New(dbPath)
		if err != nil {
			return fmt.Errorf("opening run store: %w", err)
		}
		defer store.Close()

		orch, err := optimize.New(cfg, optimize.Options{
			Generator: client,
			Judge:     client,
			Store:     store,
			ModelID:   cfg.Models.GenerateModel,
		})
		if err != nil {
			return err
		}

		ctx := context.Background()
		failed := 0
		for _, path := range paths {
			if err := optimizeOne(ctx, orch, path); err != nil {
				color.Red("✗ %s: %v", path, err)
				failed++
			}
		}

		if failed == len(paths) {
			return fmt.Errorf("all %d transcript(s) failed", failed)
		}
		if failed > 0 {
			color.Yellow("%d of %d transcript(s) failed", failed, len(paths))
		}
		return nil
	},
}

func optimizeOne(ctx context.Context, orch *optimize.Orchestrator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}

	reference := ""
	if referencePath != "" {
		ref, err := os.ReadFile(referencePath)
		if err != nil {
			return fmt.Errorf("reading reference minutes: %w", err)
		}
		reference = string(ref)
	}

	document := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	res, err := orch.Run(ctx, document, string(data), reference)
	if err != nil {
		return err
	}

	minutesPath, reportPath, err := optimize.WriteArtifacts(outputDir, res)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s: best score %.4f at round %d (%s, %d rounds)\n",
		green("✓"), document, res.Best.OverallScore(), res.Best.Iteration+1,
		res.StopReason, len(res.History))
	fmt.Printf("  minutes: %s\n  report:  %s\n", minutesPath, reportPath)
	return nil
}

// collectTranscripts expands a path into the transcript files to process.
func collectTranscripts(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".txt", ".md":
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .txt or .md transcripts in %s", path)
	}
	return paths, nil
}

func init() {
	optimizeCmd.Flags().StringVar(&referencePath, "reference", "", "path to reference minutes for scoring and critique")
	optimizeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for best minutes and run reports (default from config)")
	optimizeCmd.Flags().StringVar(&dbPath, "db", "", "path to the run-history database (default from config)")

	// Config-derived defaults resolve after flag parsing since the
	// config file is only loaded in PersistentPreRunE.
	optimizeCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if outputDir == "" {
			outputDir = cfg.Output.Dir
		}
		if dbPath == "" {
			dbPath = cfg.Output.DBPath
		}
	}

	rootCmd.AddCommand(optimizeCmd)
}

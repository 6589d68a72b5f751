package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/colabbrave/minuteforge/internal/ai"
	"github.com/colabbrave/minuteforge/internal/segment"
)

var (
	segmentJSON bool
	segmentAI   bool
)

var segmentCmd = &cobra.Command{
	Use:   "segment <transcript-file>",
	Short: "Segment a transcript and report segmentation quality",
	Long: `Split a transcript into semantic segments without running the
optimization loop. With --ai, boundaries are refined by the judge model
and the quality report gates a fallback to the deterministic split.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}

		var judge segment.Judge
		if segmentAI {
			client, err := ai.NewClient(ai.Config{
				GenerateModel: cfg.Models.GenerateModel,
				JudgeModel:    cfg.Models.JudgeModel,
				Retry:         ai.DefaultRetryConfig(),
			})
			if err != nil {
				return fmt.Errorf("creating AI client: %w", err)
			}
			judge = client
		}

		segCfg := cfg.Segmentation
		segCfg.EnableRefinement = segmentAI

		segments, report := segment.NewSegmenter(judge, segCfg).Segment(context.Background(), string(data))

		if segmentJSON {
			out := struct {
				Segments []segmentSummary `json:"segments"`
				Report   any              `json:"report,omitempty"`
			}{}
			if report != nil {
				out.Report = report
			}
			for _, s := range segments {
				out.Segments = append(out.Segments, summarize(s.ID, s.Len(), s.Start, s.End, s.AIOptimized))
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s\n", cyan(fmt.Sprintf("=== %d segment(s) ===", len(segments))))
		for _, s := range segments {
			marker := ""
			if s.AIOptimized {
				marker = color.GreenString(" [ai-refined]")
			}
			fmt.Printf("  #%d  chars %d  offsets [%d, %d)%s\n", s.ID, s.Len(), s.Start, s.End, marker)
		}
		if report != nil {
			fmt.Printf("\noverall quality: %.2f (%s)\n", report.OverallQuality, segment.Grade(report.OverallQuality))
			if len(report.Issues) > 0 {
				color.Yellow("issues: %d", len(report.Issues))
				for _, issue := range report.Issues {
					fmt.Printf("  - segment %d: %s (%s)\n", issue.SegmentID, issue.Kind, issue.Severity)
				}
			}
		}
		return nil
	},
}

type segmentSummary struct {
	ID          int  `json:"segment_id"`
	Chars       int  `json:"chars"`
	Start       int  `json:"start_offset"`
	End         int  `json:"end_offset"`
	AIOptimized bool `json:"is_ai_optimized"`
}

func summarize(id, chars, start, end int, ai bool) segmentSummary {
	return segmentSummary{ID: id, Chars: chars, Start: start, End: end, AIOptimized: ai}
}

func init() {
	segmentCmd.Flags().BoolVar(&segmentJSON, "json", false, "emit machine-readable JSON")
	segmentCmd.Flags().BoolVar(&segmentAI, "ai", false, "refine boundaries with the judge model")
	rootCmd.AddCommand(segmentCmd)
}

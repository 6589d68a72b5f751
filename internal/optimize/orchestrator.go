// Package optimize runs the iterative optimization loop: select a
// strategy combination, assemble a prompt, generate minutes, score them,
// record the round, and check convergence. Over-length transcripts are
// consolidated through the semantic segmenter before the loop starts.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/colabbrave/minuteforge/internal/config"
	"github.com/colabbrave/minuteforge/internal/convergence"
	"github.com/colabbrave/minuteforge/internal/feedback"
	"github.com/colabbrave/minuteforge/internal/logger"
	"github.com/colabbrave/minuteforge/internal/scoring"
	"github.com/colabbrave/minuteforge/internal/segment"
	"github.com/colabbrave/minuteforge/internal/storage"
	"github.com/colabbrave/minuteforge/internal/strategy"
	"github.com/colabbrave/minuteforge/internal/types"
)

// ErrNoValidResult means every round of a run failed to produce a scored
// result. The run has no best result to report.
var ErrNoValidResult = errors.New("no valid result produced")

// Generator is the opaque text-generation backend. A failed call forfeits
// the current round; the orchestrator adds no retry of its own.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Judge produces qualitative assessments: critiques here, boundary and
// coherence ratings inside the segmenter.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// Options wires the orchestrator's collaborators. Generator is required;
// a nil Judge disables critiques and AI-assisted segmentation, a nil
// Store disables persistence.
type Options struct {
	Generator Generator
	Judge     Judge
	Scorer    scoring.Scorer
	Store     storage.Store
	Catalog   *strategy.Catalog
	ModelID   string
}

// Result is the outcome of one optimization run.
type Result struct {
	RunID      string
	Document   string
	Best       *types.IterationResult
	History    types.History
	StopReason string
	Elapsed    time.Duration
}

// Orchestrator drives the optimization state machine for one document at
// a time. It is not safe for concurrent runs; create one per document or
// call Run sequentially.
type Orchestrator struct {
	cfg       *config.Config
	gen       Generator
	judge     Judge
	scorer    scoring.Scorer
	store     storage.Store
	catalog   *strategy.Catalog
	selector  *strategy.Selector
	parser    *feedback.Parser
	monitor   *convergence.Monitor
	segmenter *segment.Segmenter
	modelID   string
}

// New creates an orchestrator from validated configuration.
func New(cfg *config.Config, opts Options) (*Orchestrator, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("generator backend is required")
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = strategy.NewCatalog()
	}
	scorer := opts.Scorer
	if scorer == nil {
		scorer = scoring.NewComposite(scoring.Weights{
			Semantic:  cfg.Scoring.SemanticWeight,
			Content:   cfg.Scoring.ContentWeight,
			Structure: cfg.Scoring.StructureWeight,
		})
	}

	var segJudge segment.Judge
	if opts.Judge != nil {
		segJudge = opts.Judge
	}

	return &Orchestrator{
		cfg:       cfg,
		gen:       opts.Generator,
		judge:     opts.Judge,
		scorer:    scorer,
		store:     opts.Store,
		catalog:   catalog,
		selector:  strategy.NewSelector(catalog, cfg.Optimization.StrategyMaxCount),
		parser:    feedback.NewParser(catalog),
		monitor:   convergence.NewMonitor(cfg.Optimization.QualityThreshold, cfg.Optimization.MinImprovement, cfg.Optimization.Patience),
		segmenter: segment.NewSegmenter(segJudge, cfg.Segmentation),
		modelID:   opts.ModelID,
	}, nil
}

// Run optimizes one transcript. document is a caller-chosen identifier
// (typically the file stem); reference may be empty. Returns
// ErrNoValidResult when every round failed.
func (o *Orchestrator) Run(ctx context.Context, document, transcript, reference string) (*Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript %q is empty", document)
	}

	started := time.Now()
	runID := uuid.NewString()
	if o.store != nil {
		run := &storage.Run{ID: runID, Document: document, Model: o.modelID, StartedAt: started}
		if err := o.store.CreateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("creating run record: %w", err)
		}
	}

	working := o.segmentCheck(ctx, transcript)

	history := types.History{}
	stopReason := "max iterations reached"

	for iteration := 0; iteration < o.cfg.Optimization.MaxIterations; iteration++ {
		logger.Info("round %d/%d for %s", iteration+1, o.cfg.Optimization.MaxIterations, document)

		suggestion := o.critique(ctx, iteration, history, reference)
		combo := o.selector.Select(iteration, history, suggestion)
		logger.Info("strategy combination: %s", strings.Join(combo, ", "))

		prompt := assemblePrompt(o.catalog, combo, working, reference, suggestion)

		callStart := time.Now()
		minutes, err := o.generate(ctx, prompt)
		elapsed := time.Since(callStart)
		if err != nil {
			logger.Warn("round %d generation failed, skipping: %v", iteration+1, err)
			continue
		}
		if strings.TrimSpace(minutes) == "" {
			logger.Warn("round %d produced empty minutes, skipping", iteration+1)
			continue
		}

		scores := o.scorer.Score(minutes, reference)
		result := &types.IterationResult{
			Iteration:     iteration,
			Strategies:    combo,
			Minutes:       minutes,
			Scores:        scores,
			ExecutionTime: elapsed,
			Timestamp:     time.Now(),
			ModelID:       o.modelID,
		}
		history = append(history, result)
		logger.Info("round %d complete, overall score %.4f", iteration+1, result.OverallScore())

		if o.store != nil {
			if err := o.store.AppendIteration(ctx, runID, result); err != nil {
				logger.Warn("persisting iteration %d: %v", iteration, err)
			}
		}

		if stop, reason := o.monitor.ShouldStop(history); stop {
			logger.Info("stopping early: %s", reason)
			stopReason = reason
			break
		}
	}

	if len(history) == 0 {
		o.finalize(ctx, runID, storage.StatusFailed, "all rounds failed", -1)
		return nil, fmt.Errorf("optimizing %q: %w", document, ErrNoValidResult)
	}

	best := history.Best()
	o.finalize(ctx, runID, storage.StatusCompleted, stopReason, best.Iteration)

	return &Result{
		RunID:      runID,
		Document:   document,
		Best:       best,
		History:    history,
		StopReason: stopReason,
		Elapsed:    time.Since(started),
	}, nil
}

// generate runs one backend call under the configured per-call timeout.
// A timeout is a recoverable per-round failure, never fatal to the run.
func (o *Orchestrator) generate(ctx context.Context, prompt string) (string, error) {
	if o.cfg.Models.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Models.CallTimeout)
		defer cancel()
	}
	return o.gen.Generate(ctx, prompt)
}

// segmentCheck consolidates an over-length transcript: segment it,
// generate a minutes fragment per segment through a bounded worker pool,
// and merge the fragments into one working document. Short transcripts
// pass through untouched.
func (o *Orchestrator) segmentCheck(ctx context.Context, transcript string) string {
	segments, _ := o.segmenter.Segment(ctx, transcript)
	if len(segments) <= 1 {
		return transcript
	}
	logger.Info("transcript split into %d segments for consolidation", len(segments))

	// Workers write only their own slot; the merge order is the
	// segment order regardless of completion order.
	records := make([]string, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Segmentation.WorkerCount)
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			record, err := o.generate(gctx, segmentPrompt(seg.Text))
			if err != nil {
				logger.Warn("segment %d generation failed, dropping from merge: %v", seg.ID, err)
				return nil
			}
			records[i] = record
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures just leave empty slots

	kept := make([]string, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r) != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		logger.Warn("all segment generations failed, continuing with the raw transcript")
		return transcript
	}

	return segment.MergeMinutes(kept)
}

// critique asks the judge to analyze the latest round from round 1
// onward. Any failure degrades to no suggestion, which sends the
// selector down its deterministic path.
func (o *Orchestrator) critique(ctx context.Context, iteration int, history types.History, reference string) *types.ImprovementSuggestion {
	if iteration == 0 || len(history) == 0 || o.judge == nil {
		return nil
	}

	if o.cfg.Models.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Models.CallTimeout)
		defer cancel()
	}
	raw, err := o.judge.Judge(ctx, critiquePrompt(o.catalog, history, reference))
	if err != nil {
		logger.Warn("critique request failed, falling back to deterministic selection: %v", err)
		return nil
	}

	suggestion := o.parser.Parse(raw)
	return &suggestion
}

func (o *Orchestrator) finalize(ctx context.Context, runID, status, stopReason string, bestIteration int) {
	if o.store == nil {
		return
	}
	if err := o.store.FinalizeRun(ctx, runID, status, stopReason, bestIteration); err != nil {
		logger.Warn("finalizing run %s: %v", runID, err)
	}
}

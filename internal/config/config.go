// Package config loads and validates the minuteforge configuration.
// Every value has a default; a config file only needs to override what
// differs. Invalid thresholds are startup failures: the run never begins
// with a broken configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface consumed by the engine.
type Config struct {
	Optimization OptimizationConfig `yaml:"optimization"`
	Segmentation SegmentationConfig `yaml:"segmentation"`
	Scoring      ScoringConfig      `yaml:"scoring"`
	Models       ModelConfig        `yaml:"models"`
	Output       OutputConfig       `yaml:"output"`
}

// OptimizationConfig controls the round loop and early stopping.
type OptimizationConfig struct {
	MaxIterations    int     `yaml:"max_iterations"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	MinImprovement   float64 `yaml:"min_improvement"`
	Patience         int     `yaml:"patience"`
	StrategyMaxCount int     `yaml:"strategy_max_count"`
}

// SegmentationConfig controls the semantic segmenter.
type SegmentationConfig struct {
	MaxSegmentLength int     `yaml:"max_segment_length"`
	Overlap          int     `yaml:"overlap"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	EnableRefinement bool    `yaml:"enable_ai_refinement"`
	// WorkerCount bounds the per-segment generation pool.
	WorkerCount int `yaml:"worker_count"`
}

// ScoringConfig weights the scorer outputs into the overall score.
// Weights are configuration, not logic: the orchestrator only computes
// the weighted sum.
type ScoringConfig struct {
	SemanticWeight  float64 `yaml:"semantic_weight"`
	ContentWeight   float64 `yaml:"content_weight"`
	StructureWeight float64 `yaml:"structure_weight"`
}

// ModelConfig names the backend models and bounds their calls.
type ModelConfig struct {
	GenerateModel string        `yaml:"generate_model"`
	JudgeModel    string        `yaml:"judge_model"`
	CallTimeout   time.Duration `yaml:"call_timeout"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used when no file overrides it.
// Values mirror the engine's tuning: five rounds, 0.8 quality target,
// three-round patience, 4000-char segments with 200-char overlap.
func Default() *Config {
	return &Config{
		Optimization: OptimizationConfig{
			MaxIterations:    5,
			QualityThreshold: 0.8,
			MinImprovement:   0.02,
			Patience:         3,
			StrategyMaxCount: 3,
		},
		Segmentation: SegmentationConfig{
			MaxSegmentLength: 4000,
			Overlap:          200,
			QualityThreshold: 6.0,
			EnableRefinement: true,
			WorkerCount:      3,
		},
		Scoring: ScoringConfig{
			SemanticWeight:  0.3,
			ContentWeight:   0.3,
			StructureWeight: 0.4,
		},
		Models: ModelConfig{
			GenerateModel: envOr("MF_MODEL_GENERATE", "claude-sonnet-4-5-20250929"),
			JudgeModel:    envOr("MF_MODEL_JUDGE", "claude-3-5-haiku-20241022"),
			CallTimeout:   120 * time.Second,
		},
		Output: OutputConfig{
			Dir:    "results",
			DBPath: "results/minuteforge.db",
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadFile is like Load but requires the file to exist. Use it for
// paths the user named explicitly, where silently falling back to the
// defaults would hide a typo.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return Load(path)
}

// Load reads a YAML config file over the defaults. A missing path is not
// an error; it simply yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make a run meaningless.
func (c *Config) Validate() error {
	if c.Optimization.MaxIterations <= 0 {
		return fmt.Errorf("optimization.max_iterations must be positive (got %d)", c.Optimization.MaxIterations)
	}
	if c.Optimization.QualityThreshold <= 0 || c.Optimization.QualityThreshold > 1 {
		return fmt.Errorf("optimization.quality_threshold must be in (0,1] (got %g)", c.Optimization.QualityThreshold)
	}
	if c.Optimization.MinImprovement < 0 {
		return fmt.Errorf("optimization.min_improvement cannot be negative (got %g)", c.Optimization.MinImprovement)
	}
	if c.Optimization.Patience < 1 {
		return fmt.Errorf("optimization.patience must be at least 1 (got %d)", c.Optimization.Patience)
	}
	if c.Optimization.StrategyMaxCount < 2 {
		return fmt.Errorf("optimization.strategy_max_count must be at least 2 (got %d)", c.Optimization.StrategyMaxCount)
	}
	if c.Segmentation.MaxSegmentLength < 1000 {
		return fmt.Errorf("segmentation.max_segment_length must be at least 1000 (got %d)", c.Segmentation.MaxSegmentLength)
	}
	if c.Segmentation.Overlap < 0 || c.Segmentation.Overlap >= c.Segmentation.MaxSegmentLength {
		return fmt.Errorf("segmentation.overlap must be in [0, max_segment_length) (got %d)", c.Segmentation.Overlap)
	}
	if c.Segmentation.QualityThreshold < 0 || c.Segmentation.QualityThreshold > 10 {
		return fmt.Errorf("segmentation.quality_threshold must be in [0,10] (got %g)", c.Segmentation.QualityThreshold)
	}
	if c.Segmentation.WorkerCount < 1 {
		return fmt.Errorf("segmentation.worker_count must be at least 1 (got %d)", c.Segmentation.WorkerCount)
	}
	total := c.Scoring.SemanticWeight + c.Scoring.ContentWeight + c.Scoring.StructureWeight
	if total <= 0 {
		return fmt.Errorf("scoring weights must sum to a positive value (got %g)", total)
	}
	if c.Models.GenerateModel == "" || c.Models.JudgeModel == "" {
		return fmt.Errorf("models.generate_model and models.judge_model are required")
	}
	if c.Models.CallTimeout <= 0 {
		return fmt.Errorf("models.call_timeout must be positive (got %v)", c.Models.CallTimeout)
	}
	return nil
}

// Package ai wraps the Anthropic API behind the two backend roles the
// engine needs: a text generator for minutes drafts and a judge for
// qualitative assessments. All calls share retry, circuit-breaker,
// rate-limit, and concurrency handling so callers only see a prompt in
// and text (or an error) out.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/colabbrave/minuteforge/internal/logger"
)

const (
	// ModelGenerate is the default model for minutes generation.
	ModelGenerate = "claude-sonnet-4-5-20250929"

	// ModelJudge is the cost-efficient model for boundary, coherence,
	// and critique judgments.
	ModelJudge = "claude-3-5-haiku-20241022"
)

// DefaultGenerateModel returns the generation model, honoring the
// MF_MODEL_GENERATE env override.
func DefaultGenerateModel() string {
	if m := os.Getenv("MF_MODEL_GENERATE"); m != "" {
		return m
	}
	return ModelGenerate
}

// DefaultJudgeModel returns the judge model, honoring the MF_MODEL_JUDGE
// env override.
func DefaultJudgeModel() string {
	if m := os.Getenv("MF_MODEL_JUDGE"); m != "" {
		return m
	}
	return ModelJudge
}

// Config holds client configuration.
type Config struct {
	APIKey        string // falls back to ANTHROPIC_API_KEY
	GenerateModel string
	JudgeModel    string
	Retry         RetryConfig
	// RequestsPerSecond paces API calls; 0 disables pacing.
	RequestsPerSecond float64
}

// Client is the shared AI backend. It is safe for concurrent use: the
// semaphore bounds in-flight calls and the limiter paces request starts.
type Client struct {
	client         *anthropic.Client
	generateModel  string
	judgeModel     string
	retry          RetryConfig
	circuitBreaker *CircuitBreaker
	sem            *semaphore.Weighted
	limiter        *rate.Limiter
}

// NewClient creates an AI client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	retryCfg := cfg.Retry
	if retryCfg.MaxRetries == 0 {
		retryCfg = DefaultRetryConfig()
	}

	generateModel := cfg.GenerateModel
	if generateModel == "" {
		generateModel = DefaultGenerateModel()
	}
	judgeModel := cfg.JudgeModel
	if judgeModel == "" {
		judgeModel = DefaultJudgeModel()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	c := &Client{
		client:        &client,
		generateModel: generateModel,
		judgeModel:    judgeModel,
		retry:         retryCfg,
	}

	if retryCfg.CircuitBreakerEnabled {
		c.circuitBreaker = NewCircuitBreaker(
			retryCfg.FailureThreshold,
			retryCfg.SuccessThreshold,
			retryCfg.OpenTimeout,
		)
	}
	if retryCfg.MaxConcurrentCalls > 0 {
		c.sem = semaphore.NewWeighted(int64(retryCfg.MaxConcurrentCalls))
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return c, nil
}

// Generate produces minutes text for the given prompt using the
// generation model. The context bounds the whole call including retries.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "generate", c.generateModel, prompt, 4096)
}

// Judge asks the judge model for a qualitative assessment. Responses may
// be free text or JSON embedded in prose; callers parse tolerantly.
func (c *Client) Judge(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "judge", c.judgeModel, prompt, 2048)
}

// GenerateModel returns the configured generation model id.
func (c *Client) GenerateModel() string { return c.generateModel }

// call runs one API round-trip through the shared resilience stack.
func (c *Client) call(ctx context.Context, operation, model, prompt string, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%s rate limit wait: %w", operation, err)
		}
	}

	start := time.Now()
	var response *anthropic.Message

	err := c.retryWithBackoff(ctx, operation, func(attemptCtx context.Context) error {
		resp, apiErr := c.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic %s call failed: %w", operation, err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	logger.Debug("AI %s call: model=%s input=%d output=%d duration=%v",
		operation, model, response.Usage.InputTokens, response.Usage.OutputTokens, time.Since(start))

	return text, nil
}

package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"draftmail/pkg/logger"
	"draftmail/pkg/metrics"
)

// OpenAIConfig points at any OpenAI-compatible inference server
// (llama.cpp, vLLM, Ollama, TGI) hosting the model.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAIGenerator calls the chat completions endpoint. Completions carry only
// the generated tokens, so no prompt echo has to be removed.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIGenerator(cfg OpenAIConfig, logger *zap.Logger) *OpenAIGenerator {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// local servers ignore the key but the client requires one
		apiKey = "unused"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, d Decoding) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(int64(d.MaxNewTokens)),
	}
	switch d.Mode {
	case ModeSampled:
		params.Temperature = openai.Float(d.Temperature)
		params.TopP = openai.Float(d.TopP)
	default:
		params.Temperature = openai.Float(0)
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		metrics.RecordGenerationLatency(g.model, "error", latency)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	metrics.RecordGenerationLatency(g.model, "success", latency)

	logger.WithTrace(ctx, g.logger).Debug("generation completed",
		zap.String("model", g.model),
		zap.Duration("took", latency),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return "", ErrEmptyOutput
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Model() string { return g.model }

// Ping lists models to check that the inference server answers.
func (g *OpenAIGenerator) Ping(ctx context.Context) error {
	if _, err := g.client.Models.List(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

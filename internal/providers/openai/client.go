// Package openai adapts the OpenAI API to the pipeline's provider
// contracts: per-unit visual analysis, narrative enhancement, and speech
// rendering of finished descriptions.
package openai

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"narrate/internal/services"
)

// Config holds API credentials and model selection.
type Config struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	TextModel   string
	SpeechModel string
	Voice       string
	MaxTokens   int
	Temperature float32
	// CostPerKiloTokens prices provider usage for the metadata cost tally.
	CostPerKiloTokens float64
}

func (c Config) withDefaults() Config {
	if c.VisionModel == "" {
		c.VisionModel = openai.GPT4o
	}
	if c.TextModel == "" {
		c.TextModel = openai.GPT4o
	}
	if c.SpeechModel == "" {
		c.SpeechModel = string(openai.TTSModel1)
	}
	if c.Voice == "" {
		c.Voice = string(openai.VoiceAlloy)
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.CostPerKiloTokens <= 0 {
		c.CostPerKiloTokens = 0.01
	}
	return c
}

// chatClient is the slice of the OpenAI client the adapters call. Tests
// substitute a stub.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

func newAPIClient(cfg Config) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrValidation, "openai", "configure", "API key is required", nil)
	}
	if cfg.BaseURL != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		clientCfg.BaseURL = cfg.BaseURL
		return openai.NewClientWithConfig(clientCfg), nil
	}
	return openai.NewClient(cfg.APIKey), nil
}

func usageCost(cfg Config, usage openai.Usage) float64 {
	return float64(usage.TotalTokens) / 1000 * cfg.CostPerKiloTokens
}

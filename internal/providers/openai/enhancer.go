package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"narrate/internal/logging"
	"narrate/internal/services"
)

const enhancerSystemPrompt = "You are an accessibility editor. Rewrite the given description so it " +
	"flows naturally when read aloud. Keep every factual detail and the original order of events. " +
	"Do not add information that is not present. Respond with the rewritten text only."

// Enhancer rewrites rule-based narratives with a text model.
type Enhancer struct {
	cfg    Config
	client chatClient
	logger *slog.Logger
}

// NewEnhancer builds the narrative enhancer.
func NewEnhancer(cfg Config, logger *slog.Logger) (*Enhancer, error) {
	cfg = cfg.withDefaults()
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Enhancer{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// EnhanceNarrative implements the synthesis enhancer contract.
func (e *Enhancer) EnhanceNarrative(ctx context.Context, text string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.cfg.TextModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhancerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "openai", "enhance", "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", services.Wrap(services.ErrSynthesis, "openai", "enhance", "provider returned no choices", nil)
	}
	enhanced := strings.TrimSpace(resp.Choices[0].Message.Content)
	if enhanced == "" {
		return "", fmt.Errorf("provider returned empty narrative")
	}
	e.logger.Debug("narrative enhanced", logging.Int("tokens", resp.Usage.TotalTokens))
	return enhanced, nil
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"narrate/internal/analysis"
	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
)

const visionSystemPrompt = "You are an accessibility describer. Describe what happens in the given " +
	"segment of media for a blind or low-vision audience. Respond with a single JSON object with the keys " +
	`"description" (2-3 sentences), "visual_elements" (array of short noun phrases), ` +
	`"actions" (array of short verb phrases), "context" (one phrase naming the setting), and ` +
	`"confidence" (number between 0 and 1). Respond with JSON only, no prose around it.`

// VisionProvider analyzes a single unit with a vision-capable chat model.
type VisionProvider struct {
	cfg    Config
	client chatClient
	logger *slog.Logger
}

// NewVisionProvider builds the analysis provider.
func NewVisionProvider(cfg Config, logger *slog.Logger) (*VisionProvider, error) {
	cfg = cfg.withDefaults()
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &VisionProvider{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// Analyze implements the analysis provider contract.
func (p *VisionProvider) Analyze(ctx context.Context, unit segments.Unit, contentRef string) (analysis.UnitAnalysis, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(unit, contentRef))
	if err != nil {
		return analysis.UnitAnalysis{}, services.Wrap(services.ErrTransient, "openai", "analyze",
			fmt.Sprintf("chat completion for unit %s", unit.ID), err)
	}
	if len(resp.Choices) == 0 {
		return analysis.UnitAnalysis{}, services.Wrap(services.ErrAnalysis, "openai", "analyze",
			"provider returned no choices", nil)
	}

	result, err := decodeAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return analysis.UnitAnalysis{}, services.Wrap(services.ErrAnalysis, "openai", "analyze",
			fmt.Sprintf("decode analysis for unit %s", unit.ID), err)
	}
	result.UnitID = unit.ID
	result.ProviderCost = usageCost(p.cfg, resp.Usage)

	p.logger.Debug("unit analyzed",
		logging.String(logging.FieldUnitID, unit.ID),
		logging.Float64("confidence", result.Confidence),
		logging.Int("tokens", resp.Usage.TotalTokens),
	)
	return result, nil
}

func (p *VisionProvider) buildRequest(unit segments.Unit, contentRef string) openai.ChatCompletionRequest {
	instruction := fmt.Sprintf("Describe the segment spanning %s of the content at %s.", unit.Label(), contentRef)
	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if isImageURL(contentRef) {
		user.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: instruction},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    contentRef,
					Detail: openai.ImageURLDetailAuto,
				},
			},
		}
	} else {
		user.Content = instruction
	}

	return openai.ChatCompletionRequest{
		Model: p.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionSystemPrompt},
			user,
		},
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
	}
}

func decodeAnalysis(content string) (analysis.UnitAnalysis, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var result analysis.UnitAnalysis
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return analysis.UnitAnalysis{}, err
	}
	if strings.TrimSpace(result.Description) == "" {
		return analysis.UnitAnalysis{}, fmt.Errorf("response carries no description")
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return analysis.UnitAnalysis{}, fmt.Errorf("confidence %f out of range", result.Confidence)
	}
	return result, nil
}

func isImageURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:")
}

package openai

import (
	"context"
	"io"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"narrate/internal/logging"
	"narrate/internal/services"
)

// Speech renders finished narratives as spoken audio.
type Speech struct {
	cfg    Config
	client chatClient
	logger *slog.Logger
}

// NewSpeech builds the speech renderer.
func NewSpeech(cfg Config, logger *slog.Logger) (*Speech, error) {
	cfg = cfg.withDefaults()
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Speech{
		cfg:    cfg,
		client: client,
		logger: logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// Synthesize speaks the text and returns MP3 bytes.
func (s *Speech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrValidation, "openai", "speech", "nothing to speak", nil)
	}
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(s.cfg.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "openai", "speech", "create speech", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "openai", "speech", "read audio stream", err)
	}
	s.logger.Debug("speech rendered", logging.Int("bytes", len(audio)))
	return audio, nil
}

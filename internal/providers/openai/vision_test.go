package openai

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"narrate/internal/logging"
	"narrate/internal/segments"
	"narrate/internal/services"
)

type stubClient struct {
	chatResp   openai.ChatCompletionResponse
	chatErr    error
	lastChat   openai.ChatCompletionRequest
	speechBody []byte
	speechErr  error
}

func (s *stubClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.lastChat = req
	return s.chatResp, s.chatErr
}

func (s *stubClient) CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error) {
	if s.speechErr != nil {
		return openai.RawResponse{}, s.speechErr
	}
	return openai.RawResponse{ReadCloser: io.NopCloser(bytes.NewReader(s.speechBody))}, nil
}

func chatResponse(content string, tokens int) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
		Usage: openai.Usage{TotalTokens: tokens},
	}
}

func testUnit() segments.Unit {
	return segments.Unit{ID: "unit-001", StartOffset: 0, EndOffset: 30, Confidence: 0.8}
}

func TestVisionAnalyzeDecodesResponse(t *testing.T) {
	stub := &stubClient{chatResp: chatResponse(`{
		"description": "A chef slices vegetables at a wooden counter.",
		"visual_elements": ["chef", "knife", "vegetables"],
		"actions": ["slicing", "arranging"],
		"context": "restaurant kitchen",
		"confidence": 0.92
	}`, 2000)}
	provider := &VisionProvider{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}

	result, err := provider.Analyze(context.Background(), testUnit(), "videos/cooking.mp4")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.UnitID != "unit-001" {
		t.Fatalf("unit id not stamped: %q", result.UnitID)
	}
	if result.Description == "" || result.Confidence != 0.92 {
		t.Fatalf("unexpected analysis: %+v", result)
	}
	if len(result.VisualElements) != 3 || len(result.Actions) != 2 {
		t.Fatalf("unexpected elements/actions: %+v", result)
	}
	if result.ProviderCost != 0.02 {
		t.Fatalf("expected cost 0.02 for 2000 tokens at default pricing, got %f", result.ProviderCost)
	}
}

func TestVisionAnalyzeStripsCodeFences(t *testing.T) {
	stub := &stubClient{chatResp: chatResponse("```json\n{\"description\": \"A dog runs across a field.\", \"confidence\": 0.7}\n```", 100)}
	provider := &VisionProvider{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}

	result, err := provider.Analyze(context.Background(), testUnit(), "videos/dog.mp4")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Description != "A dog runs across a field." {
		t.Fatalf("unexpected description: %q", result.Description)
	}
}

func TestVisionAnalyzeRejectsMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":       "the segment shows a dog",
		"no description": `{"confidence": 0.5}`,
		"bad confidence": `{"description": "x", "confidence": 1.5}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubClient{chatResp: chatResponse(content, 10)}
			provider := &VisionProvider{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}
			if _, err := provider.Analyze(context.Background(), testUnit(), "ref"); !errors.Is(err, services.ErrAnalysis) {
				t.Fatalf("expected analysis error, got %v", err)
			}
		})
	}
}

func TestVisionAnalyzeWrapsTransportErrors(t *testing.T) {
	stub := &stubClient{chatErr: errors.New("connection reset")}
	provider := &VisionProvider{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}
	if _, err := provider.Analyze(context.Background(), testUnit(), "ref"); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestVisionRequestUsesImagePartsForURLs(t *testing.T) {
	stub := &stubClient{chatResp: chatResponse(`{"description": "x", "confidence": 0.5}`, 10)}
	provider := &VisionProvider{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}

	if _, err := provider.Analyze(context.Background(), testUnit(), "https://cdn.example.com/frame.jpg"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	user := stub.lastChat.Messages[len(stub.lastChat.Messages)-1]
	if len(user.MultiContent) != 2 || user.MultiContent[1].Type != openai.ChatMessagePartTypeImageURL {
		t.Fatalf("expected image part for URL reference, got %+v", user.MultiContent)
	}

	if _, err := provider.Analyze(context.Background(), testUnit(), "videos/cooking.mp4"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	user = stub.lastChat.Messages[len(stub.lastChat.Messages)-1]
	if user.MultiContent != nil {
		t.Fatalf("expected plain content for opaque reference, got %+v", user.MultiContent)
	}
}

func TestEnhanceNarrative(t *testing.T) {
	stub := &stubClient{chatResp: chatResponse("  The video opens in a sunlit kitchen.  ", 50)}
	enhancer := &Enhancer{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}

	enhanced, err := enhancer.EnhanceNarrative(context.Background(), "The content opens with a kitchen.")
	if err != nil {
		t.Fatalf("EnhanceNarrative failed: %v", err)
	}
	if enhanced != "The video opens in a sunlit kitchen." {
		t.Fatalf("unexpected narrative: %q", enhanced)
	}
}

func TestSpeechSynthesize(t *testing.T) {
	stub := &stubClient{speechBody: []byte("mp3-bytes")}
	speech := &Speech{cfg: Config{}.withDefaults(), client: stub, logger: logging.NewNop()}

	audio, err := speech.Synthesize(context.Background(), "A chef slices vegetables.")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Fatalf("unexpected audio payload: %q", audio)
	}

	if _, err := speech.Synthesize(context.Background(), "   "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
}

func TestNewVisionProviderRequiresAPIKey(t *testing.T) {
	if _, err := NewVisionProvider(Config{}, logging.NewNop()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

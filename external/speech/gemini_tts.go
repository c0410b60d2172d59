package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/genai"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiSynthesizer calls a Gemini TTS model with a prebuilt voice.
type GeminiSynthesizer struct {
	models contentGenerator
	model  string
	voice  string
}

// NewGeminiSynthesizer returns a synthesizer that yields empty payloads when
// apiKey is empty, so playback falls back to local synthesis.
func NewGeminiSynthesizer(ctx context.Context, apiKey, model, voice string) (*GeminiSynthesizer, error) {
	if apiKey == "" {
		slog.Warn("gemini api key is not configured; speech will use the local synthesizer")
		return &GeminiSynthesizer{model: model, voice: voice}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiSynthesizer{models: client.Models, model: model, voice: voice}, nil
}

func (g *GeminiSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if g.models == nil {
		return "", nil
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.voice},
			},
		},
	}
	res, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini tts: %w", err)
	}
	data := inlineAudio(res)
	if len(data) == 0 {
		slog.Warn("gemini tts returned no audio", "model", g.model)
		return "", nil
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func inlineAudio(res *genai.GenerateContentResponse) []byte {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return nil
	}
	content := res.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0] == nil || content.Parts[0].InlineData == nil {
		return nil
	}
	return content.Parts[0].InlineData.Data
}

package advisor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/kissandost/internal/advisor"
	"github.com/foxseedlab/kissandost/internal/conversation"
	"google.golang.org/genai"
)

const defaultCitationTitle = "Source"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiAdvisor struct {
	models contentGenerator
	model  string
}

// NewGeminiAdvisor builds an advisor backed by the Gemini API. An empty key
// yields an advisor that fails every call with ErrMissingCredentials.
func NewGeminiAdvisor(ctx context.Context, apiKey, model string) (*GeminiAdvisor, error) {
	if apiKey == "" {
		slog.Warn("gemini api key is not configured; advisory requests will fail")
		return &GeminiAdvisor{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiAdvisor{models: client.Models, model: model}, nil
}

func (g *GeminiAdvisor) Advise(ctx context.Context, req advisor.Request) (*advisor.Response, error) {
	if g.models == nil {
		return nil, advisor.ErrMissingCredentials
	}

	parts := make([]*genai.Part, 0, 2)
	if req.Image != nil {
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, req.Image.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(buildPrompt(req.Text, req.Language)))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	// response schemas cannot be combined with the search tool
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}

	res, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generate content: %v", advisor.ErrAdvisoryFailed, err)
	}

	advice, err := advisor.ParseAdviceJSON(res.Text())
	if err != nil {
		slog.Error("gemini advice response could not be parsed", "model", g.model, "error", err)
		return nil, err
	}
	return &advisor.Response{
		Reply:     advisor.AdviceReply(advice),
		Citations: extractCitations(res),
	}, nil
}

func extractCitations(res *genai.GenerateContentResponse) []conversation.Citation {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil {
		return nil
	}
	meta := res.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var out []conversation.Citation
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = defaultCitationTitle
		}
		out = append(out, conversation.Citation{Title: title, URL: chunk.Web.URI})
	}
	return out
}

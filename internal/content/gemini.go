package content

import (
	"context"
	"fmt"

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/goldencrow0001-crypto/open-world-puzzle-game/internal/models"
)

// Backend is the text-generation capability the provider depends on.
// Generate requests structured JSON matching a schema; GenerateGrounded
// additionally runs a web search and returns any citation sources the
// service attached to the answer.
type Backend interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
	GenerateGrounded(ctx context.Context, prompt string) (string, []models.Citation, error)
}

// Gemini is the production backend. Schema-constrained generation goes
// through the genai client; the search-grounded path talks to the
// generativelanguage API directly, since the genai veneer does not expose
// the search-retrieval tool.
type Gemini struct {
	client *genai.Client
	search *gl.GenerativeClient
	name   string
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	search, err := gl.NewGenerativeClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		client.Close()
		return nil, err
	}
	return &Gemini{client: client, search: search, name: modelName}, nil
}

func (g *Gemini) Close() {
	g.client.Close()
	g.search.Close()
}

func (g *Gemini) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	model := g.client.GenerativeModel(g.name)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp)
}

func (g *Gemini) GenerateGrounded(ctx context.Context, prompt string) (string, []models.Citation, error) {
	req := &pb.GenerateContentRequest{
		Model: "models/" + g.name,
		Contents: []*pb.Content{{
			Role:  "user",
			Parts: []*pb.Part{{Data: &pb.Part_Text{Text: prompt}}},
		}},
		Tools: []*pb.Tool{{GoogleSearchRetrieval: &pb.GoogleSearchRetrieval{}}},
	}

	resp, err := g.search.GenerateContent(ctx, req)
	if err != nil {
		return "", nil, err
	}
	if len(resp.GetCandidates()) == 0 {
		return "", nil, fmt.Errorf("no content returned from Gemini")
	}
	cand := resp.GetCandidates()[0]

	var text string
	for _, part := range cand.GetContent().GetParts() {
		text += part.GetText()
	}
	if text == "" {
		return "", nil, fmt.Errorf("unexpected response type from Gemini")
	}

	var citations []models.Citation
	for _, src := range cand.GetCitationMetadata().GetCitationSources() {
		if src.GetUri() == "" {
			continue
		}
		citations = append(citations, models.Citation{URI: src.GetUri()})
	}
	return text, citations, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response type from Gemini")
	}
	return string(text), nil
}

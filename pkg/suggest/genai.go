package suggest

import (
	"context"

	"github.com/go-faster/errors"
	"google.golang.org/genai"

	"orgmap/pkg/schema"
)

const defaultGenAIModel = "gemini-2.0-flash"

// GenAI asks a Gemini model for a mapping using a JSON response schema.
type GenAI struct {
	client *genai.Client
	model  string
}

// NewGenAI creates a Gemini-backed suggester.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = defaultGenAIModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create GenAI client")
	}
	return &GenAI{client: client, model: model}, nil
}

func (g *GenAI) Name() string { return "genai" }

// Suggest implements Suggester.
func (g *GenAI) Suggest(ctx context.Context, headerLine string) (Raw, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(headerLine)), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "generate content")
	}
	return DecodeResponse(resp.Text())
}

func responseSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(schema.Fields))
	required := make([]string, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		props[string(f)] = &genai.Schema{
			Type:        genai.TypeString,
			Description: fieldHints[f] + " Empty string if no suitable column is found.",
		}
		required = append(required, string(f))
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"columnMapping": {
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			},
		},
		Required: []string{"columnMapping"},
	}
}

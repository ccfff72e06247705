package suggest

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI asks an OpenAI-compatible chat completion endpoint for a mapping.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a chat-completion suggester. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAI) Name() string { return "openai" }

// Suggest implements Suggester.
func (o *OpenAI) Suggest(ctx context.Context, headerLine string) (Raw, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You map CSV column headers to target fields and answer with JSON only."),
			openai.UserMessage(BuildPrompt(headerLine)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, ErrUnusable
	}
	return DecodeResponse(resp.Choices[0].Message.Content)
}

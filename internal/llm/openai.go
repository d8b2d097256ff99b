package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI calls any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client openai.Client
	model  string
	opts   Options
}

func NewOpenAI(s Settings) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	model := s.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.BaseURL))
	}
	if s.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.HTTPClient))
	}
	opts := s.Options
	if opts == (Options{}) {
		opts = DefaultOptions
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), model: model, opts: opts}, nil
}

// Generate sends the prompt as a single user message. TopK has no
// equivalent in this API and is not sent.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.model),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature:         openai.Float(float64(o.opts.Temperature)),
		TopP:                openai.Float(float64(o.opts.TopP)),
		MaxCompletionTokens: openai.Int(int64(o.opts.MaxOutputTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderOpenAI, StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Completer returns the model continuation for prompt. Generation stops
// before any of the stop sequences.
type Completer interface {
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
}

const DefaultBaseURL = "https://api.openai.com/v1"

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	// MaxRetries is passed to the SDK; zero disables retries.
	MaxRetries int
}

type OpenAI struct {
	opts   Options
	client openai.Client
}

func NewOpenAI(opts Options) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	if opts.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: opts.Timeout}),
		option.WithMaxRetries(opts.MaxRetries),
	)
	return &OpenAI{
		opts:   opts,
		client: client,
	}, nil
}

func (c *OpenAI) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.opts.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.opts.Temperature),
	}
	if c.opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.opts.MaxTokens))
	}
	if len(stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: stop}
	}

	res, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("unexpected status code: %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("error while doing request: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("no choices in response")
	}

	return res.Choices[0].Message.Content, nil
}

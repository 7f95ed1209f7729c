package insight

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Completer sends one system/user prompt pair to a chat model and returns
// the raw reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// OpenAIConfig configures the OpenAI-compatible completer. BaseURL may point
// at any server speaking the chat completions API.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxTokens  int
	MaxRetries int
	HTTPClient *http.Client
}

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 512
)

type chatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAICompleter is a Completer backed by openai-go.
type OpenAICompleter struct {
	completions chatCompletions
	model       string
	maxTokens   int
}

// NewOpenAICompleter builds a completer. An API key is required.
func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("openai: api key required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAICompleter{
		completions: &client.Chat.Completions,
		model:       model,
		maxTokens:   maxTokens,
	}, nil
}

// Complete issues a single non-streaming chat completion.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               shared.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
		Temperature:         openai.Float(0.3),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

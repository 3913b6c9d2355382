package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements LLMProvider for any OpenAI-compatible Chat
// Completions API.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float64
}

// NewOpenAIProvider creates a provider from cfg. An empty API key yields
// ErrNoAPIKey so callers can fall back to offline mode.
func NewOpenAIProvider(cfg ProviderConfig, extra ...option.RequestOption) (*OpenAIProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	def := DefaultProviderConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	opts = append(opts, extra...)

	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		client:      &client,
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (p *OpenAIProvider) Name() string { return p.name }

// Model returns the default model id.
func (p *OpenAIProvider) Model() string { return p.model }

// Ping verifies the API key by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return p.mapError(err)
	}
	return nil
}

// Chat sends a chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	start := time.Now()

	model := p.model
	temperature := p.temperature
	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(messages),
	}
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		if opts.Temperature != nil {
			temperature = *opts.Temperature
		}
		if opts.MaxTokens > 0 {
			params.MaxTokens = openai.Int(int64(opts.MaxTokens))
		}
	}
	params.Model = openai.ChatModel(model)
	params.Temperature = openai.Float(temperature)

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Provider:     p.name,
		Latency:      time.Since(start),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// mapError converts SDK errors into the package's sentinel errors.
func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %v", ErrProviderDown, p.name, err)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrNoAPIKey, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimit, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
	case http.StatusBadRequest:
		if strings.Contains(apiErr.Code, "context_length") {
			return fmt.Errorf("%w: %s", ErrContextLength, msg)
		}
		if strings.Contains(apiErr.Code, "model_not_found") || strings.Contains(apiErr.Code, "model_decommissioned") {
			return fmt.Errorf("%w: %s", ErrInvalidModel, msg)
		}
	}
	if apiErr.StatusCode >= 500 {
		return fmt.Errorf("%w: %s: HTTP %d: %s", ErrProviderDown, p.name, apiErr.StatusCode, msg)
	}
	return fmt.Errorf("%s: API error (%d): %s", p.name, apiErr.StatusCode, msg)
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

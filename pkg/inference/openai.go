package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

const providerOpenAI = "openai"

// OpenAI implements Provider on the Chat Completions API. Any
// OpenAI-compatible server can be used through WithBaseURL.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = openai.GPT4oMini
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	} else {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAI{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger.With("component", "inference.openai"),
	}, nil
}

// Name returns "openai".
func (p *OpenAI) Name() string {
	return providerOpenAI
}

// Chat sends the history and tools to the Chat Completions API.
func (p *OpenAI) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	sampling := p.config.sampling(req.Sampling)

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	oaiReq := openai.ChatCompletionRequest{
		Model:            model,
		Messages:         toOpenAIMessages(req.Messages),
		MaxTokens:        sampling.MaxTokens,
		Temperature:      sampling.Temperature,
		TopP:             sampling.TopP,
		PresencePenalty:  sampling.PresencePenalty,
		FrequencyPenalty: sampling.FrequencyPenalty,
	}
	if len(req.Tools) > 0 {
		oaiReq.Tools = toOpenAITools(req.Tools)
		oaiReq.ToolChoice = "auto"
	}

	resp, err := p.client.CreateChatCompletion(ctx, oaiReq)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, WrapError(providerOpenAI, ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	latency := time.Since(start).Milliseconds()

	p.logger.Debug("chat completion",
		"model", resp.Model,
		"tool_calls", len(choice.Message.ToolCalls),
		"latency_ms", latency,
	)

	return &ChatResponse{
		Message:      fromOpenAIMessage(choice.Message),
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Model:     resp.Model,
		LatencyMs: latency,
	}, nil
}

// Health lists models to verify connectivity and the API key.
func (p *OpenAI) Health(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return mapOpenAIError(err)
	}
	return nil
}

// Close releases resources held by the provider.
func (p *OpenAI) Close() error {
	return nil
}

func toOpenAIMessages(msgs []dialogue.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolInvocationID,
		}
		for _, inv := range m.ToolInvocations {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   inv.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      inv.Name,
					Arguments: inv.Arguments,
				},
			})
		}
		out[i] = msg
	}
	return out
}

func fromOpenAIMessage(m openai.ChatCompletionMessage) dialogue.Message {
	msg := dialogue.Message{
		Role:    dialogue.RoleAssistant,
		Content: m.Content,
	}
	for _, tc := range m.ToolCalls {
		msg.ToolInvocations = append(msg.ToolInvocations, dialogue.ToolInvocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return msg
}

func toOpenAITools(tools []Tool) []openai.Tool {
	out := make([]openai.Tool, len(tools))
	for i, t := range tools {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.schema(),
			},
		}
	}
	return out
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Code:       codeString(apiErr.Code),
			Provider:   providerOpenAI,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
			Provider:   providerOpenAI,
		}
	}
	return WrapError(providerOpenAI, err)
}

func codeString(code any) string {
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)

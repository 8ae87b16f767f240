package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

const (
	providerAnthropic = "anthropic"

	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-3-5-haiku-latest"

	defaultAnthropicMaxTokens = 1024
)

// Anthropic implements Provider on the Messages API.
//
// The Messages API rejects tool blocks in requests that declare no tools, so
// when a request carries no tools, earlier tool exchanges are flattened into
// plain text.
type Anthropic struct {
	config *Config
	client anthropic.Client
	logger *slog.Logger
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(opts ...Option) (*Anthropic, error) {
	cfg := DefaultConfig()
	cfg.Model = DefaultAnthropicModel
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Anthropic{
		config: cfg,
		client: anthropic.NewClient(reqOpts...),
		logger: cfg.Logger.With("component", "inference.anthropic"),
	}, nil
}

// Name returns "anthropic".
func (p *Anthropic) Name() string {
	return providerAnthropic
}

// Chat sends the history and tools to the Messages API.
func (p *Anthropic) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	sampling := p.config.sampling(req.Sampling)

	model := req.Model
	if model == "" {
		model = p.config.Model
	}
	maxTokens := int64(sampling.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	messages, system := toAnthropicMessages(req.Messages, len(req.Tools) > 0)
	if len(messages) == 0 {
		return nil, WrapError(providerAnthropic, errors.New("no user message in history"))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}
	if sampling.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(sampling.Temperature))
	} else if sampling.TopP > 0 && sampling.TopP < 1 {
		params.TopP = anthropic.Float(float64(sampling.TopP))
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	msg := dialogue.Message{Role: dialogue.RoleAssistant}
	for _, block := range message.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			msg.Content += variant.Text
		case anthropic.ToolUseBlock:
			input, _ := json.Marshal(variant.Input)
			args := string(input)
			if args == "" || args == "null" {
				args = "{}"
			}
			msg.ToolInvocations = append(msg.ToolInvocations, dialogue.ToolInvocation{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: args,
			})
		}
	}

	latency := time.Since(start).Milliseconds()
	p.logger.Debug("message created",
		"model", string(message.Model),
		"tool_calls", len(msg.ToolInvocations),
		"latency_ms", latency,
	)

	return &ChatResponse{
		Message:      msg,
		FinishReason: string(message.StopReason),
		Usage: Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
		Model:     string(message.Model),
		LatencyMs: latency,
	}, nil
}

// Health lists models to verify connectivity and the API key.
func (p *Anthropic) Health(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		return mapAnthropicError(err)
	}
	return nil
}

// Close releases resources held by the provider.
func (p *Anthropic) Close() error {
	return nil
}

// toAnthropicMessages converts the history to Messages API form and
// extracts the system prompt.
//
// Consecutive messages with the same role are merged, leading assistant
// messages are dropped so the conversation opens with the user, and tool
// results whose tool_use block was not emitted become text.
func toAnthropicMessages(msgs []dialogue.Message, withTools bool) ([]anthropic.MessageParam, string) {
	var (
		out    []anthropic.MessageParam
		system string
		usedID = make(map[string]bool)
	)

	add := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if len(out) == 0 && role != anthropic.MessageParamRoleUser {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range msgs {
		switch m.Role {
		case dialogue.RoleSystem:
			system = m.Content

		case dialogue.RoleUser:
			add(anthropic.MessageParamRoleUser, textBlocks(m.Content)...)

		case dialogue.RoleAssistant:
			blocks := textBlocks(m.Content)
			if withTools {
				emitted := len(out) > 0
				for _, inv := range m.ToolInvocations {
					var input map[string]any
					if err := json.Unmarshal([]byte(inv.Arguments), &input); err != nil || input == nil {
						input = map[string]any{}
					}
					blocks = append(blocks, anthropic.ContentBlockParamUnion{
						OfToolUse: &anthropic.ToolUseBlockParam{
							ID:    inv.ID,
							Name:  inv.Name,
							Input: input,
						},
					})
					usedID[inv.ID] = emitted
				}
			} else {
				blocks = append(blocks, textBlocks(flattenInvocations(m.ToolInvocations))...)
			}
			add(anthropic.MessageParamRoleAssistant, blocks...)

		case dialogue.RoleTool:
			if withTools && usedID[m.ToolInvocationID] {
				add(anthropic.MessageParamRoleUser,
					anthropic.NewToolResultBlock(m.ToolInvocationID, m.Content, false))
				continue
			}
			add(anthropic.MessageParamRoleUser, textBlocks("Resultado de la herramienta: "+m.Content)...)
		}
	}
	return out, system
}

func textBlocks(text string) []anthropic.ContentBlockParamUnion {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)}
}

func flattenInvocations(invs []dialogue.ToolInvocation) string {
	parts := make([]string, len(invs))
	for i, inv := range invs {
		parts[i] = fmt.Sprintf("[herramienta %s %s]", inv.Name, inv.Arguments)
	}
	return strings.Join(parts, " ")
}

func toAnthropicTools(tools []Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		toolParam := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: t.properties(),
				Required:   t.Required,
			},
		}
		out[i] = anthropic.ToolUnionParam{OfTool: &toolParam}
	}
	return out
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &APIError{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Error(),
			Provider:   providerAnthropic,
		}
	}
	return WrapError(providerAnthropic, err)
}

// Verify Anthropic implements Provider at compile time.
var _ Provider = (*Anthropic)(nil)

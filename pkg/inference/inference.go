// Package inference provides a unified interface for the reasoning
// providers that drive the conversation.
//
// Providers receive the full dialogue history plus the tools on offer and
// return exactly one assistant message, which may request tool invocations.
// OpenAI (and OpenAI-compatible servers) and Anthropic are supported, and a
// Chain falls back from one provider to the next.
//
// Example usage:
//
//	provider, _ := inference.NewOpenAI(
//	    inference.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    inference.WithModel("gpt-4o-mini"),
//	)
//	defer provider.Close()
//
//	resp, _ := provider.Chat(ctx, &inference.ChatRequest{
//	    Messages: state.Messages(),
//	    Tools:    tools,
//	})
package inference

import (
	"context"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

// Provider is the reasoning provider interface.
type Provider interface {
	// Chat returns the next assistant message for the given history.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	// Messages is the ordered history, system message first.
	Messages []dialogue.Message

	// Tools offered for this round. Empty means no tool use.
	Tools []Tool

	// Model overrides the provider's default model.
	Model string

	// Sampling overrides the provider's default sampling parameters.
	Sampling *Sampling
}

// Sampling holds generation parameters. Zero values leave the provider
// default in place.
type Sampling struct {
	Temperature      float32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
	MaxTokens        int
}

// ChatResponse is a chat completion response.
type ChatResponse struct {
	// Message is the assistant message, including any tool invocations.
	Message dialogue.Message

	// FinishReason indicates why generation stopped (stop, length, tool_calls).
	FinishReason string

	// Usage reports token consumption.
	Usage Usage

	// Model is the model that produced the response.
	Model string

	// LatencyMs is the request latency.
	LatencyMs int64
}

// Usage reports token consumption.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Tool is a function the model may call.
type Tool struct {
	Name        string
	Description string
	// Parameters is a JSON schema object.
	Parameters map[string]any
	// Required lists required parameter names.
	Required []string
}

// NewTool creates a tool definition.
func NewTool(name, description string, parameters map[string]any, required ...string) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
		Required:    required,
	}
}

// properties returns the schema's properties map.
func (t Tool) properties() map[string]any {
	if props, ok := t.Parameters["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}

// schema returns the full JSON schema object.
func (t Tool) schema() map[string]any {
	out := make(map[string]any, len(t.Parameters)+2)
	for k, v := range t.Parameters {
		out[k] = v
	}
	out["type"] = "object"
	out["properties"] = t.properties()
	if len(t.Required) > 0 {
		out["required"] = t.Required
	}
	return out
}

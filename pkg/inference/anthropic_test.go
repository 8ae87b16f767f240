package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

func toolRound() []dialogue.Message {
	return []dialogue.Message{
		dialogue.NewSystemMessage("Eres MAD-IA."),
		dialogue.NewUserMessage("abre youtube"),
		{
			Role: dialogue.RoleAssistant,
			ToolInvocations: []dialogue.ToolInvocation{
				{ID: "tu_1", Name: "open_website", Arguments: `{"website":"youtube"}`},
			},
		},
		dialogue.NewToolResultMessage("tu_1", "Abriendo youtube."),
	}
}

func TestToAnthropicMessagesWithTools(t *testing.T) {
	msgs, system := toAnthropicMessages(toolRound(), true)

	assert.Equal(t, "Eres MAD-IA.", system)
	require.Len(t, msgs, 3)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Content, 1)
	require.NotNil(t, msgs[1].Content[0].OfToolUse)
	assert.Equal(t, "open_website", msgs[1].Content[0].OfToolUse.Name)
	assert.Equal(t, map[string]any{"website": "youtube"}, msgs[1].Content[0].OfToolUse.Input)

	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "tu_1", msgs[2].Content[0].OfToolResult.ToolUseID)
}

func TestToAnthropicMessagesFlattensWithoutTools(t *testing.T) {
	msgs, _ := toAnthropicMessages(toolRound(), false)

	require.Len(t, msgs, 3)
	for _, m := range msgs {
		for _, block := range m.Content {
			assert.Nil(t, block.OfToolUse)
			assert.Nil(t, block.OfToolResult)
		}
	}
	require.NotNil(t, msgs[1].Content[0].OfText)
	assert.Contains(t, msgs[1].Content[0].OfText.Text, "open_website")
	assert.Contains(t, msgs[2].Content[0].OfText.Text, "Abriendo youtube.")
}

func TestToAnthropicMessagesMergesAndTrims(t *testing.T) {
	history := []dialogue.Message{
		dialogue.NewSystemMessage("s"),
		// Left over from a trimmed window.
		{
			Role:            dialogue.RoleAssistant,
			ToolInvocations: []dialogue.ToolInvocation{{ID: "old", Name: "get_time", Arguments: "{}"}},
		},
		dialogue.NewToolResultMessage("old", "Son las diez."),
		dialogue.NewUserMessage("gracias"),
		{
			Role: dialogue.RoleAssistant,
			ToolInvocations: []dialogue.ToolInvocation{
				{ID: "a", Name: "get_time", Arguments: "{}"},
				{ID: "b", Name: "calculate", Arguments: "not json"},
			},
		},
		dialogue.NewToolResultMessage("a", "Son las once."),
		dialogue.NewToolResultMessage("b", "4"),
	}

	msgs, _ := toAnthropicMessages(history, true)
	require.Len(t, msgs, 3)

	// The orphaned result becomes text and merges with the next user turn.
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	require.Len(t, msgs[0].Content, 2)
	assert.Nil(t, msgs[0].Content[0].OfToolResult)

	require.Len(t, msgs[1].Content, 2)
	assert.Equal(t, map[string]any{}, msgs[1].Content[1].OfToolUse.Input)

	// Both results share one user message.
	require.Len(t, msgs[2].Content, 2)
	assert.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.NotNil(t, msgs[2].Content[1].OfToolResult)
}

func newAnthropicServer(t *testing.T, handler http.HandlerFunc) *Anthropic {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewAnthropic(
		WithAPIKey("test-key"),
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return p
}

func TestAnthropicChat(t *testing.T) {
	var body map[string]any

	p := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [
				{"type": "text", "text": "Un momento."},
				{"type": "tool_use", "id": "tu_7", "name": "get_time", "input": {}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 30, "output_tokens": 10}
		}`))
	})

	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []dialogue.Message{
			dialogue.NewSystemMessage("Eres MAD-IA."),
			dialogue.NewUserMessage("qué hora es"),
		},
		Tools: []Tool{NewTool("get_time", "Hora actual", nil)},
	})
	require.NoError(t, err)

	assert.Equal(t, "Un momento.", resp.Message.Content)
	require.Len(t, resp.Message.ToolInvocations, 1)
	assert.Equal(t, "tu_7", resp.Message.ToolInvocations[0].ID)
	assert.Equal(t, "{}", resp.Message.ToolInvocations[0].Arguments)
	assert.Equal(t, "tool_use", resp.FinishReason)
	assert.Equal(t, 40, resp.Usage.TotalTokens)

	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.NotNil(t, body["system"])
	assert.NotNil(t, body["tools"])
}

func TestAnthropicErrorMapping(t *testing.T) {
	p := newAnthropicServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	})

	_, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []dialogue.Message{dialogue.NewUserMessage("hola")},
	})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, "anthropic", apiErr.Provider)
}

func TestAnthropicNoUserMessage(t *testing.T) {
	p, err := NewAnthropic(WithAPIKey("k"))
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), &ChatRequest{
		Messages: []dialogue.Message{dialogue.NewSystemMessage("s")},
	})
	require.Error(t, err)
}

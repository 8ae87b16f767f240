//go:build integration

package inference

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

// Run with: go test -tags=integration ./pkg/inference/...

func TestIntegrationOpenAI(t *testing.T) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	p, err := NewOpenAI(WithAPIKey(key))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	exerciseProvider(t, p)
}

func TestIntegrationAnthropic(t *testing.T) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		t.Skip("ANTHROPIC_API_KEY not set")
	}

	p, err := NewAnthropic(WithAPIKey(key))
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	exerciseProvider(t, p)
}

func exerciseProvider(t *testing.T, p Provider) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := p.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}

	tool := NewTool("get_time", "Devuelve la hora actual", nil)
	resp, err := p.Chat(ctx, &ChatRequest{
		Messages: []dialogue.Message{
			dialogue.NewSystemMessage("Eres un asistente. Usa herramientas cuando haga falta."),
			dialogue.NewUserMessage("¿Qué hora es?"),
		},
		Tools: []Tool{tool},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	t.Logf("%s: content=%q invocations=%d latency=%dms",
		p.Name(), resp.Message.Content, len(resp.Message.ToolInvocations), resp.LatencyMs)
}

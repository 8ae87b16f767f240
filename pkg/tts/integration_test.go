//go:build integration

package tts_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JxsueMd16/mad-ia/pkg/tts"
)

// TestElevenLabsIntegration tests real ElevenLabs API.
// Run with: go test -tags=integration -v ./pkg/tts/...
func TestElevenLabsIntegration(t *testing.T) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		t.Skip("ELEVENLABS_API_KEY not set")
	}

	opts := []tts.Option{tts.WithAPIKey(apiKey)}
	if voiceID := os.Getenv("ELEVENLABS_VOICE_ID"); voiceID != "" {
		opts = append(opts, tts.WithVoice(voiceID))
	}

	provider, err := tts.NewElevenLabs(opts...)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("Health", func(t *testing.T) {
		if err := provider.Health(ctx); err != nil {
			t.Fatalf("health check failed: %v", err)
		}
	})

	t.Run("Synthesize", func(t *testing.T) {
		result, err := provider.Synthesize(ctx, "Hola, soy MAD-IA.")
		if err != nil {
			t.Fatalf("synthesize failed: %v", err)
		}
		t.Logf("synthesized %d bytes in %dms", len(result.Audio), result.LatencyMs)
		if len(result.Audio) < 1000 {
			t.Error("audio too short, expected at least 1KB")
		}
	})
}

// TestOpenAIIntegration tests real OpenAI TTS API.
func TestOpenAIIntegration(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set")
	}

	provider, err := tts.NewOpenAI(tts.WithAPIKey(apiKey))
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := provider.Synthesize(ctx, "Hola desde OpenAI.")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if result.Format.Encoding != tts.EncodingMP3 {
		t.Errorf("expected MP3 encoding, got %s", result.Format.Encoding)
	}
}

// TestLocalIntegration runs the installed espeak engine.
func TestLocalIntegration(t *testing.T) {
	provider := tts.NewLocal()
	ctx := context.Background()
	if err := provider.Health(ctx); err != nil {
		t.Skipf("no local engine: %v", err)
	}

	result, err := provider.Synthesize(ctx, "Hola")
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if len(result.Audio) < 44 {
		t.Error("expected at least a WAV header")
	}
}

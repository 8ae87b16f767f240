package tts_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JxsueMd16/mad-ia/pkg/tts"
)

func TestElevenLabs(t *testing.T) {
	ctx := context.Background()
	audio := bytes.Repeat([]byte{0xFF, 0xFB}, 3000)

	t.Run("Synthesize posts voice settings", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/text-to-speech/"+tts.DefaultElevenLabsVoiceID {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if r.Header.Get("xi-api-key") != "key" {
				t.Errorf("missing api key header")
			}
			if r.Header.Get("Accept") != "audio/mpeg" {
				t.Errorf("unexpected accept: %s", r.Header.Get("Accept"))
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write(audio)
		}))
		defer srv.Close()

		p, err := tts.NewElevenLabs(tts.WithAPIKey("key"), tts.WithBaseURL(srv.URL))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		result, err := p.Synthesize(ctx, "Hola")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !bytes.Equal(result.Audio, audio) {
			t.Errorf("expected %d bytes, got %d", len(audio), len(result.Audio))
		}
		if result.Provider != "elevenlabs" || result.Format.Encoding != tts.EncodingMP3 {
			t.Errorf("unexpected result metadata: %+v", result.Format)
		}

		if got["model_id"] != tts.ModelMultilingualV1 {
			t.Errorf("unexpected model: %v", got["model_id"])
		}
		settings, _ := got["voice_settings"].(map[string]any)
		if settings["stability"] != 0.55 || settings["similarity_boost"] != 0.55 {
			t.Errorf("unexpected voice settings: %v", settings)
		}
		if _, ok := settings["use_speaker_boost"]; ok {
			t.Error("speaker boost should be omitted when off")
		}
	})

	t.Run("Missing key fails at synthesis time", func(t *testing.T) {
		p, err := tts.NewElevenLabs()
		if err != nil {
			t.Fatalf("construction should not need a key: %v", err)
		}
		if _, err := p.Synthesize(ctx, "Hola"); !errors.Is(err, tts.ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Empty voice is rejected", func(t *testing.T) {
		if _, err := tts.NewElevenLabs(tts.WithVoice("")); !errors.Is(err, tts.ErrNoVoiceID) {
			t.Errorf("expected ErrNoVoiceID, got %v", err)
		}
	})

	t.Run("Non-success status is an APIError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail": {"status": "invalid_api_key", "message": "Invalid API key"}}`))
		}))
		defer srv.Close()

		p, _ := tts.NewElevenLabs(tts.WithAPIKey("bad"), tts.WithBaseURL(srv.URL))
		_, err := p.Synthesize(ctx, "Hola")

		var apiErr *tts.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if !apiErr.IsUnauthorized() || apiErr.Message != "Invalid API key" || apiErr.Code != "invalid_api_key" {
			t.Errorf("unexpected error: %+v", apiErr)
		}
	})

	t.Run("Retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write(audio)
		}))
		defer srv.Close()

		p, _ := tts.NewElevenLabs(
			tts.WithAPIKey("key"),
			tts.WithBaseURL(srv.URL),
			tts.WithRetry(1, time.Millisecond),
		)
		if _, err := p.Synthesize(ctx, "Hola"); err != nil {
			t.Fatalf("expected retry to succeed: %v", err)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})
}

func TestOpenAISpeech(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ID3 fake mp3"))
	}))
	defer srv.Close()

	p, err := tts.NewOpenAI(tts.WithAPIKey("key"), tts.WithBaseURL(srv.URL+"/v1/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Synthesize(context.Background(), "Hola")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Provider != "openai" || string(result.Audio) != "ID3 fake mp3" {
		t.Errorf("unexpected result: %+v", result)
	}
	if got["voice"] != tts.VoiceOnyx || got["model"] != tts.ModelTTS1 || got["input"] != "Hola" {
		t.Errorf("unexpected payload: %v", got)
	}

	if _, err := tts.NewOpenAI(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestOpenAISpeechRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	p, _ := tts.NewOpenAI(tts.WithAPIKey("bad"), tts.WithBaseURL(srv.URL+"/v1"))
	_, err := p.Synthesize(context.Background(), "Hola")

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsUnauthorized() || apiErr.Code != "invalid_api_key" || apiErr.Provider != "openai" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}

func TestGoogleCloud(t *testing.T) {
	audio := []byte("fake mp3 from google")
	var got struct {
		Input struct {
			Text string `json:"text"`
		} `json:"input"`
		Voice struct {
			LanguageCode string `json:"languageCode"`
		} `json:"voice"`
		AudioConfig struct {
			AudioEncoding string `json:"audioEncoding"`
		} `json:"audioConfig"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/text:synthesize") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"audioContent": base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer srv.Close()

	p := tts.NewGoogleCloud([]tts.Option{
		tts.WithHTTPClient(srv.Client()),
		tts.WithBaseURL(srv.URL + "/"),
	})

	result, err := p.Synthesize(context.Background(), "Hola")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(result.Audio, audio) {
		t.Errorf("unexpected audio: %q", result.Audio)
	}
	if result.Provider != "google" || result.Format.Encoding != tts.EncodingMP3 {
		t.Errorf("unexpected metadata: %+v", result)
	}
	if got.Input.Text != "Hola" || got.Voice.LanguageCode != tts.DefaultGoogleLanguage || got.AudioConfig.AudioEncoding != "MP3" {
		t.Errorf("unexpected request: %+v", got)
	}
}

func TestLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("Runs engine with language", func(t *testing.T) {
		var gotName string
		var gotArgs []string
		p := tts.NewLocal(
			tts.WithCommand("espeak-ng"),
			tts.WithLocalLanguage("es"),
			tts.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
				gotName, gotArgs = name, args
				return []byte("RIFF....WAVE"), nil
			}),
		)

		result, err := p.Synthesize(ctx, "Hola mundo")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotName != "espeak-ng" {
			t.Errorf("unexpected command: %s", gotName)
		}
		want := []string{"-v", "es", "--stdout", "--", "Hola mundo"}
		if strings.Join(gotArgs, "|") != strings.Join(want, "|") {
			t.Errorf("unexpected args: %v", gotArgs)
		}
		if result.Format.Encoding != tts.EncodingWAV || result.Provider != "local" {
			t.Errorf("unexpected metadata: %+v", result)
		}
	})

	t.Run("Text that looks like a flag stays positional", func(t *testing.T) {
		var gotArgs []string
		p := tts.NewLocal(
			tts.WithCommand("espeak-ng"),
			tts.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
				gotArgs = args
				return []byte("RIFF....WAVE"), nil
			}),
		)

		if _, err := p.Synthesize(ctx, "-w/tmp/x hola"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		n := len(gotArgs)
		if n < 2 || gotArgs[n-2] != "--" || gotArgs[n-1] != "-w/tmp/x hola" {
			t.Errorf("expected text after --, got %v", gotArgs)
		}
	})

	t.Run("Engine failure is wrapped", func(t *testing.T) {
		p := tts.NewLocal(
			tts.WithCommand("espeak-ng"),
			tts.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return nil, errors.New("exit status 1")
			}),
		)
		_, err := p.Synthesize(ctx, "Hola")
		var pe *tts.ProviderError
		if !errors.As(err, &pe) || pe.Provider != "local" {
			t.Errorf("expected local ProviderError, got %v", err)
		}
	})

	t.Run("Empty output is a failure", func(t *testing.T) {
		p := tts.NewLocal(
			tts.WithCommand("espeak-ng"),
			tts.WithRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return nil, nil
			}),
		)
		if _, err := p.Synthesize(ctx, "Hola"); err == nil {
			t.Error("expected error for empty output")
		}
	})
}

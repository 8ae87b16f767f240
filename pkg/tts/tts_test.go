package tts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/JxsueMd16/mad-ia/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hola, señor")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
		if result.Format.Encoding != tts.EncodingMP3 || result.Provider != "mock" {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		calls := mock.Calls()
		if len(calls) != 2 {
			t.Errorf("expected 2 calls, got %d", len(calls))
		}
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
		if last := mock.LastCall(); last == nil || last.Method != "Health" {
			t.Errorf("unexpected last call: %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})

	t.Run("Cancelled context fails", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := mock.Synthesize(cctx, "Hola"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)
	ctx := context.Background()

	t.Run("Synthesize returns error", func(t *testing.T) {
		_, err := mock.Synthesize(ctx, "Hello")
		if err == nil {
			t.Error("expected error")
		}
		if !errors.Is(err, testErr) {
			t.Errorf("expected test error, got %v", err)
		}
	})

	t.Run("Health returns error", func(t *testing.T) {
		err := mock.Health(ctx)
		if err == nil {
			t.Error("expected error")
		}
	})
}

func TestDefaultVoiceSettings(t *testing.T) {
	settings := tts.DefaultVoiceSettings()

	if settings.Stability != 0.55 {
		t.Errorf("expected stability 0.55, got %f", settings.Stability)
	}
	if settings.SimilarityBoost != 0.55 {
		t.Errorf("expected similarity 0.55, got %f", settings.SimilarityBoost)
	}
	if settings.Style != 0.0 {
		t.Errorf("expected style 0.0, got %f", settings.Style)
	}
	if settings.SpeakerBoost {
		t.Error("expected speaker boost off")
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithVoice("test-voice"),
		tts.WithModel("test-model"),
		tts.WithTimeout(5*time.Second),
		tts.WithOutputFormat(tts.EncodingWAV),
		tts.WithLanguage("es-MX"),
	)

	if cfg.VoiceID != "test-voice" {
		t.Errorf("expected voice test-voice, got %s", cfg.VoiceID)
	}
	if cfg.ModelID != "test-model" {
		t.Errorf("expected model test-model, got %s", cfg.ModelID)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.OutputFormat != tts.EncodingWAV {
		t.Errorf("expected WAV format, got %s", cfg.OutputFormat)
	}
	if cfg.LanguageCode != "es-MX" {
		t.Errorf("expected language es-MX, got %s", cfg.LanguageCode)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("Validate requires API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		if err := cfg.Validate(); err != tts.ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Validate passes with API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("ValidateWithVoice requires voice", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		cfg.VoiceID = ""
		if err := cfg.ValidateWithVoice(); err != tts.ErrNoVoiceID {
			t.Errorf("expected ErrNoVoiceID, got %v", err)
		}
	})

	t.Run("ValidateWithVoice passes with both", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		cfg.VoiceID = "test-voice"
		if err := cfg.ValidateWithVoice(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status       int
		temporary    bool
		unauthorized bool
	}{
		{429, true, false},
		{500, true, false},
		{503, true, false},
		{401, false, true},
		{403, false, true},
		{400, false, false},
	}
	for _, tt := range tests {
		err := &tts.APIError{Provider: "elevenlabs", StatusCode: tt.status}
		if err.Temporary() != tt.temporary {
			t.Errorf("%d: Temporary = %v", tt.status, err.Temporary())
		}
		if err.IsUnauthorized() != tt.unauthorized {
			t.Errorf("%d: IsUnauthorized = %v", tt.status, err.IsUnauthorized())
		}
	}

	t.Run("Error message format", func(t *testing.T) {
		err := &tts.APIError{
			StatusCode: 400,
			Message:    "bad request",
			Code:       "invalid_input",
			Provider:   "elevenlabs",
		}
		if msg := err.Error(); msg != "tts [elevenlabs]: API error 400 (invalid_input): bad request" {
			t.Errorf("unexpected error message: %s", msg)
		}
	})

	t.Run("Status text when the body is empty", func(t *testing.T) {
		err := &tts.APIError{StatusCode: 503, Provider: "openai"}
		if msg := err.Error(); msg != "tts [openai]: API error 503: Service Unavailable" {
			t.Errorf("unexpected error message: %s", msg)
		}
	})
}

func TestSampleRateFromEncoding(t *testing.T) {
	tests := []struct {
		encoding   tts.Encoding
		sampleRate int
	}{
		{tts.EncodingPCM16, 16000},
		{tts.EncodingPCM22, 22050},
		{tts.EncodingPCM24, 24000},
		{tts.EncodingPCM44, 44100},
		{tts.EncodingMP3, 44100},
		{tts.EncodingWAV, 22050},
	}

	for _, tt := range tests {
		t.Run(string(tt.encoding), func(t *testing.T) {
			rate := tts.SampleRateFromEncoding(tt.encoding)
			if rate != tt.sampleRate {
				t.Errorf("expected %d, got %d", tt.sampleRate, rate)
			}
		})
	}
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("NewChain requires providers", func(t *testing.T) {
		_, err := tts.NewChain()
		if err != tts.ErrProviderUnavailable {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("First provider succeeds", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()

		chain, err := tts.NewChain(mock1, mock2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		_, err = chain.Synthesize(ctx, "Hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Only first provider should be called
		if mock1.CallCount("Synthesize") != 1 {
			t.Error("expected first provider to be called")
		}
		if mock2.CallCount("Synthesize") != 0 {
			t.Error("expected second provider not to be called")
		}
	})

	t.Run("Fallback on failure", func(t *testing.T) {
		failMock := tts.WithError(errors.New("provider 1 failed"))
		successMock := tts.NewMock()

		chain, err := tts.NewChain(failMock, successMock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		result, err := chain.Synthesize(ctx, "Hello")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil {
			t.Error("expected result from fallback provider")
		}
	})

	t.Run("All providers fail", func(t *testing.T) {
		fail1 := tts.WithError(errors.New("fail 1"))
		fail2 := tts.WithError(errors.New("fail 2"))

		chain, err := tts.NewChain(fail1, fail2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		_, err = chain.Synthesize(ctx, "Hello")
		var chainErr *tts.ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %v", err)
		}
		if len(chainErr.Attempts) != 2 || chainErr.Attempts[0].Provider != "mock" {
			t.Errorf("unexpected attempts: %+v", chainErr.Attempts)
		}
		if err.Error() != "tts: all providers failed: mock: fail 1; mock: fail 2" {
			t.Errorf("unexpected message: %s", err)
		}
	})

	t.Run("Blank text never reaches providers", func(t *testing.T) {
		m := tts.NewMock()
		chain, _ := tts.NewChain(m)
		if _, err := chain.Synthesize(ctx, "   "); !errors.Is(err, tts.ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
		if m.CallCount("Synthesize") != 0 {
			t.Error("expected no provider call")
		}
	})

	t.Run("Silent provider falls through", func(t *testing.T) {
		silent := tts.NewMock()
		silent.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			return &tts.AudioResult{}, nil
		}
		backup := tts.NewMock()
		backup.ProviderName = "local"
		backup.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			return &tts.AudioResult{Audio: []byte("RIFF")}, nil
		}

		chain, _ := tts.NewChain(silent, backup)
		result, err := chain.Synthesize(ctx, "Hola")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Provider != "local" {
			t.Errorf("expected provider filled from chain, got %q", result.Provider)
		}
	})

	t.Run("Chain leaves no goroutines", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

		chain, _ := tts.NewChain(tts.WithError(errors.New("down")), tts.NewMock())
		if _, err := chain.Synthesize(ctx, "Hola"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("Context cancellation stops the chain", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		first := tts.NewMock()
		first.SynthesizeFunc = func(ctx context.Context, text string) (*tts.AudioResult, error) {
			cancel()
			return nil, errors.New("interrupted")
		}
		second := tts.NewMock()

		chain, _ := tts.NewChain(first, second)
		if _, err := chain.Synthesize(cctx, "Hola"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if second.CallCount("Synthesize") != 0 {
			t.Error("expected second provider not to be called")
		}
	})

	t.Run("Name lists providers", func(t *testing.T) {
		a := tts.NewMock()
		a.ProviderName = "elevenlabs"
		chain, _ := tts.NewChain(a, tts.NewMock())
		if got := chain.Name(); got != "chain(elevenlabs,mock)" {
			t.Errorf("unexpected name: %s", got)
		}
	})

	t.Run("Health checks all providers", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()

		chain, err := tts.NewChain(mock1, mock2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		err = chain.Health(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection failed")
	err := tts.WrapError("elevenlabs", inner)

	if err == nil {
		t.Fatal("expected error")
	}

	if err.Error() != "tts [elevenlabs]: connection failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	// Unwrap should return inner error
	var pe *tts.ProviderError
	if !errors.As(err, &pe) {
		t.Error("expected ProviderError")
	}
	if pe.Provider != "elevenlabs" {
		t.Errorf("expected provider elevenlabs, got %s", pe.Provider)
	}
}

func TestEncodingExtension(t *testing.T) {
	tests := []struct {
		encoding tts.Encoding
		ext      string
		mime     string
	}{
		{tts.EncodingMP3, ".mp3", "audio/mpeg"},
		{tts.EncodingWAV, ".wav", "audio/wav"},
		{tts.EncodingOGG, ".ogg", "audio/ogg"},
		{tts.EncodingPCM24, ".pcm", "audio/pcm"},
	}

	for _, tt := range tests {
		t.Run(string(tt.encoding), func(t *testing.T) {
			if got := tt.encoding.Extension(); got != tt.ext {
				t.Errorf("expected %s, got %s", tt.ext, got)
			}
			if got := tt.encoding.MIME(); got != tt.mime {
				t.Errorf("expected %s, got %s", tt.mime, got)
			}
		})
	}
}

func TestResolveElevenLabsVoice(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"adam", tts.DefaultElevenLabsVoiceID},
		{" Rachel ", "21m00Tcm4TlvDq8ikWAM"},
		{"", tts.DefaultElevenLabsVoiceID},
		{"raw-voice-id", "raw-voice-id"},
	}
	for _, tt := range tests {
		if got := tts.ResolveElevenLabsVoice(tt.in); got != tt.want {
			t.Errorf("ResolveElevenLabsVoice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

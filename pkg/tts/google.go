package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"
)

const providerGoogle = "google"

// DefaultGoogleLanguage is the BCP-47 code sent to Cloud Text-to-Speech.
const DefaultGoogleLanguage = "es-ES"

// GoogleCloud implements Provider on Cloud Text-to-Speech.
//
// It authenticates with an API key when one is configured, otherwise with
// the token source (Application Default Credentials by default). The
// service is built lazily on first use.
type GoogleCloud struct {
	config      *Config
	tokenSource oauth2.TokenSource
	logger      *slog.Logger

	mu  sync.Mutex
	svc *texttospeech.Service
}

// GoogleOption configures the token source of a GoogleCloud provider.
type GoogleOption func(*GoogleCloud)

// WithTokenSource authenticates with ts instead of default credentials.
func WithTokenSource(ts oauth2.TokenSource) GoogleOption {
	return func(g *GoogleCloud) { g.tokenSource = ts }
}

// NewGoogleCloud creates a Cloud Text-to-Speech provider.
func NewGoogleCloud(opts []Option, gopts ...GoogleOption) *GoogleCloud {
	cfg := DefaultConfig()
	cfg.VoiceID = ""
	cfg.ModelID = ""
	cfg.LanguageCode = DefaultGoogleLanguage
	cfg.Apply(opts...)

	g := &GoogleCloud{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.google"),
	}
	for _, opt := range gopts {
		opt(g)
	}
	return g
}

// Name returns "google".
func (g *GoogleCloud) Name() string {
	return providerGoogle
}

func (g *GoogleCloud) service(ctx context.Context) (*texttospeech.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.svc != nil {
		return g.svc, nil
	}

	var opts []option.ClientOption
	switch {
	case g.config.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(g.config.HTTPClient))
	case g.config.APIKey != "":
		opts = append(opts, option.WithAPIKey(g.config.APIKey))
	default:
		ts := g.tokenSource
		if ts == nil {
			var err error
			ts, err = google.DefaultTokenSource(ctx, texttospeech.CloudPlatformScope)
			if err != nil {
				return nil, WrapError(providerGoogle, fmt.Errorf("credentials: %w", err))
			}
		}
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Timeout:   g.config.Timeout,
			Transport: &oauth2.Transport{Source: ts},
		}))
	}
	if g.config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(g.config.BaseURL))
	}

	// The service outlives this call.
	svc, err := texttospeech.NewService(context.WithoutCancel(ctx), opts...)
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}
	g.svc = svc
	return svc, nil
}

// Synthesize requests MP3 audio for text.
func (g *GoogleCloud) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	resp, err := svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.config.LanguageCode,
			Name:         g.config.VoiceID,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogle, fmt.Errorf("decode audio: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerGoogle, fmt.Errorf("empty audio content"))
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"language", g.config.LanguageCode,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingMP3,
			SampleRate: 24000,
			Channels:   1,
		},
		Provider:  providerGoogle,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health lists voices for the configured language.
func (g *GoogleCloud) Health(ctx context.Context) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}
	if _, err := svc.Voices.List().LanguageCode(g.config.LanguageCode).Context(ctx).Do(); err != nil {
		return WrapError(providerGoogle, err)
	}
	return nil
}

// Close releases resources.
func (g *GoogleCloud) Close() error {
	return nil
}

// Verify GoogleCloud implements Provider at compile time.
var _ Provider = (*GoogleCloud)(nil)

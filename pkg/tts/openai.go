package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

// Speech voices and models accepted by the OpenAI provider.
const (
	VoiceAlloy   = string(openai.VoiceAlloy)
	VoiceEcho    = string(openai.VoiceEcho)
	VoiceFable   = string(openai.VoiceFable)
	VoiceOnyx    = string(openai.VoiceOnyx)
	VoiceNova    = string(openai.VoiceNova)
	VoiceShimmer = string(openai.VoiceShimmer)

	ModelTTS1   = string(openai.TTSModel1)
	ModelTTS1HD = string(openai.TTSModel1HD)
)

// OpenAI speaks through the OpenAI speech endpoint. Its voices read
// Spanish without a language hint.
type OpenAI struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI speech provider. The default voice is onyx.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceOnyx
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceOnyx
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = cfg.httpClient()

	return &OpenAI{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

// Name returns "openai".
func (o *OpenAI) Name() string {
	return providerOpenAI
}

// Synthesize returns MP3 audio, retrying temporary API errors.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	start := time.Now()
	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.config.ModelID),
		Input:          text,
		Voice:          openai.SpeechVoice(o.config.VoiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	var audio []byte
	var err error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerOpenAI, ctx.Err())
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}
		audio, err = o.speak(ctx, req)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || !apiErr.Temporary() {
			break
		}
		o.logger.Warn("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
	}
	if err != nil {
		return nil, err
	}

	latency := time.Since(start).Milliseconds()
	o.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", o.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    AudioFormat{Encoding: EncodingMP3, SampleRate: SampleRateFromEncoding(EncodingMP3), Channels: 1},
		Provider:  providerOpenAI,
		CharCount: len([]rune(text)),
		LatencyMs: latency,
	}, nil
}

func (o *OpenAI) speak(ctx context.Context, req openai.CreateSpeechRequest) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, req)
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	defer resp.Close()

	audio, err := readChunks(resp)
	if err != nil {
		return nil, WrapError(providerOpenAI, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerOpenAI, ErrNoAudio)
	}
	return audio, nil
}

// Health lists models to confirm the key works.
func (o *OpenAI) Health(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return mapOpenAIError(err)
	}
	return nil
}

// Close is a no-op; the HTTP client is shared.
func (o *OpenAI) Close() error {
	return nil
}

// VoiceID returns the configured voice.
func (o *OpenAI) VoiceID() string {
	return o.config.VoiceID
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		return &APIError{
			Provider:   providerOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &APIError{
			Provider:   providerOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Message:    reqErr.Error(),
		}
	}
	return WrapError(providerOpenAI, err)
}

var _ Provider = (*OpenAI)(nil)

package stt

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Whisper defaults.
const (
	DefaultModel    = openai.Whisper1
	DefaultLanguage = "es"
	DefaultPrompt   = "Transcripción en español de una conversación clara."
	DefaultTimeout  = 30 * time.Second
)

// Config holds Whisper configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	Model    string
	Language string
	// Prompt guides spelling and register.
	Prompt      string
	Temperature float32

	Timeout time.Duration
	Logger  *slog.Logger
}

// Option configures a Whisper transcriber.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithLanguage sets the ISO-639-1 language hint.
func WithLanguage(lang string) Option {
	return func(c *Config) { c.Language = lang }
}

// WithPrompt sets the guidance prompt.
func WithPrompt(prompt string) Option {
	return func(c *Config) { c.Prompt = prompt }
}

// WithTemperature sets the decoding temperature. Zero is deterministic.
func WithTemperature(t float32) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns Spanish, deterministic defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:    DefaultModel,
		Language: DefaultLanguage,
		Prompt:   DefaultPrompt,
		Timeout:  DefaultTimeout,
		Logger:   slog.Default(),
	}
}

// Whisper transcribes through the OpenAI audio API.
type Whisper struct {
	config *Config
	client *openai.Client
	logger *slog.Logger
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(opts ...Option) (*Whisper, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
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

	return &Whisper{
		config: cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: cfg.Logger.With("component", "stt.whisper"),
	}, nil
}

// Name returns "whisper".
func (w *Whisper) Name() string {
	return "whisper"
}

// Transcribe sends the clip and returns the trimmed text.
func (w *Whisper) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", ErrEmptyAudio
	}
	name := audio.Filename
	if name == "" {
		name = DefaultFilename
	}

	start := time.Now()
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       w.config.Model,
		FilePath:    name,
		Reader:      bytes.NewReader(audio.Data),
		Prompt:      w.config.Prompt,
		Temperature: w.config.Temperature,
		Language:    w.config.Language,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", &ProviderError{Provider: w.Name(), Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	w.logger.Debug("transcribed",
		"bytes", len(audio.Data),
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

var _ Transcriber = (*Whisper)(nil)

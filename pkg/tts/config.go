package tts

import (
	"log/slog"
	"net/http"
	"time"
)

// Config is shared by every speech provider. Each provider reads the
// fields it needs; Local ignores credentials entirely.
type Config struct {
	APIKey  string
	BaseURL string

	// HTTPClient is used by networked providers. Nil builds one from Timeout.
	HTTPClient *http.Client

	VoiceID       string
	ModelID       string
	VoiceSettings VoiceSettings

	// LanguageCode is "es" for the local engine and a BCP-47 tag such as
	// "es-ES" for Google.
	LanguageCode string

	OutputFormat Encoding
	Timeout      time.Duration

	// MaxRetries applies to networked providers on temporary API errors.
	MaxRetries int
	RetryDelay time.Duration

	Logger *slog.Logger
}

// Option configures a Config.
type Option func(*Config)

func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithVoice sets the provider voice: an ElevenLabs voice id, an OpenAI
// voice name, or a Google voice name.
func WithVoice(voiceID string) Option {
	return func(c *Config) { c.VoiceID = voiceID }
}

func WithModel(modelID string) Option {
	return func(c *Config) { c.ModelID = modelID }
}

func WithLanguage(code string) Option {
	return func(c *Config) { c.LanguageCode = code }
}

func WithOutputFormat(format Encoding) Option {
	return func(c *Config) { c.OutputFormat = format }
}

func WithVoiceSettings(settings VoiceSettings) Option {
	return func(c *Config) { c.VoiceSettings = settings }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) { c.Timeout = timeout }
}

// WithRetry retries temporary API errors up to maxRetries times, waiting
// delay between attempts.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// DefaultConfig returns the assistant's defaults: Spanish multilingual
// voice, MP3 output, no retries so the chain falls through quickly.
func DefaultConfig() *Config {
	return &Config{
		VoiceID:       DefaultElevenLabsVoiceID,
		ModelID:       ModelMultilingualV1,
		VoiceSettings: DefaultVoiceSettings(),
		LanguageCode:  "es",
		OutputFormat:  EncodingMP3,
		Timeout:       30 * time.Second,
		RetryDelay:    200 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate requires an API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ValidateWithVoice requires an API key and a voice.
func (c *Config) ValidateWithVoice() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}

func (c *Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: c.Timeout}
}

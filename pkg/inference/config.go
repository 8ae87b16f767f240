package inference

import (
	"log/slog"
	"net/http"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// Model is the default chat model.
	Model string

	// Sampling defaults, overridable per request.
	Sampling Sampling

	// Timeout bounds each request.
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.openai.com/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithModel sets the default chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithSampling sets default sampling parameters.
func WithSampling(s Sampling) Option {
	return func(c *Config) { c.Sampling = s }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sampling: Sampling{
			Temperature: 0.7,
			MaxTokens:   150,
		},
		Timeout: 30 * time.Second,
		Logger:  slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Model == "" {
		return ErrNoModel
	}
	return nil
}

// sampling merges per-request overrides onto the defaults.
func (c *Config) sampling(override *Sampling) Sampling {
	s := c.Sampling
	if override == nil {
		return s
	}
	if override.Temperature != 0 {
		s.Temperature = override.Temperature
	}
	if override.TopP != 0 {
		s.TopP = override.TopP
	}
	if override.PresencePenalty != 0 {
		s.PresencePenalty = override.PresencePenalty
	}
	if override.FrequencyPenalty != 0 {
		s.FrequencyPenalty = override.FrequencyPenalty
	}
	if override.MaxTokens != 0 {
		s.MaxTokens = override.MaxTokens
	}
	return s
}

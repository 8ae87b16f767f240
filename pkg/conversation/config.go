package conversation

import (
	"log/slog"
	"time"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
	"github.com/JxsueMd16/mad-ia/pkg/inference"
	"github.com/JxsueMd16/mad-ia/pkg/shaper"
)

// Fixed answers used when the turn cannot produce one.
const (
	DefaultClarification   = "No te entendí bien. ¿Puedes repetirlo?"
	DefaultFallbackApology = "No procesé eso. Repite por favor."
	DefaultProviderApology = "Perdón, me quedé sin conexión con mi cerebro. Intenta de nuevo en un momento."
	DefaultEmptyToolResult = "Hecho."
)

// MinUserTextLength is the shortest accepted user text, in characters.
const MinUserTextLength = 2

// DefaultTimeout bounds each provider call.
const DefaultTimeout = 30 * time.Second

// Replies holds the fixed user-facing strings.
type Replies struct {
	// Clarification answers input shorter than MinUserTextLength.
	Clarification string
	// FallbackApology replaces an empty answer.
	FallbackApology string
	// ProviderApology answers when the provider fails.
	ProviderApology string
	// EmptyToolResult stands in for a tool that returned nothing.
	EmptyToolResult string
}

// DefaultReplies returns the Spanish defaults.
func DefaultReplies() Replies {
	return Replies{
		Clarification:   DefaultClarification,
		FallbackApology: DefaultFallbackApology,
		ProviderApology: DefaultProviderApology,
		EmptyToolResult: DefaultEmptyToolResult,
	}
}

// Config holds engine configuration.
type Config struct {
	// SystemPrompt seeds states created by the engine.
	SystemPrompt string

	// Timeout bounds each provider call.
	Timeout time.Duration

	// Sampling overrides the provider's defaults when set.
	Sampling *inference.Sampling

	Shaper  shaper.Shaper
	Replies Replies

	Logger *slog.Logger
}

// Option is a functional option for configuring the engine.
type Option func(*Config)

// WithSystemPrompt sets the prompt for fresh states.
func WithSystemPrompt(prompt string) Option {
	return func(c *Config) { c.SystemPrompt = prompt }
}

// WithTimeout sets the per-call provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithSampling sets sampling parameters for every call.
func WithSampling(s inference.Sampling) Option {
	return func(c *Config) { c.Sampling = &s }
}

// WithMaxWords sets the spoken answer limit.
func WithMaxWords(n int) Option {
	return func(c *Config) { c.Shaper = shaper.New(n) }
}

// WithShaper replaces the response shaper.
func WithShaper(s shaper.Shaper) Option {
	return func(c *Config) { c.Shaper = s }
}

// WithReplies replaces the fixed answers. Empty fields keep their default.
func WithReplies(r Replies) Option {
	return func(c *Config) {
		d := c.Replies
		if r.Clarification != "" {
			d.Clarification = r.Clarification
		}
		if r.FallbackApology != "" {
			d.FallbackApology = r.FallbackApology
		}
		if r.ProviderApology != "" {
			d.ProviderApology = r.ProviderApology
		}
		if r.EmptyToolResult != "" {
			d.EmptyToolResult = r.EmptyToolResult
		}
		c.Replies = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SystemPrompt: dialogue.DefaultSystemPrompt,
		Timeout:      DefaultTimeout,
		Shaper:       shaper.New(shaper.DefaultMaxWords),
		Replies:      DefaultReplies(),
		Logger:       slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

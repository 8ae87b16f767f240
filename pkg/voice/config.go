package voice

import (
	"errors"
	"log/slog"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

// DefaultNoiseReply answers clips that produced no usable text.
const DefaultNoiseReply = "No se detectó audio claro. Intenta hablar más cerca del micrófono."

// Reply results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Common errors returned by pipelines.
var (
	ErrEmptyUpload    = errors.New("voice: empty audio upload")
	ErrNoTranscriber  = errors.New("voice: no transcriber configured")
	ErrMissingEngine  = errors.New("voice: conversation engine required")
	ErrMissingStore   = errors.New("voice: session store required")
	ErrMissingSession = errors.New("voice: session key required")
)

// Config holds pipeline tunables.
type Config struct {
	// MaxHistory bounds the stored dialogue, system message excluded.
	MaxHistory int

	// NoiseReply answers unusable or failed transcriptions.
	NoiseReply string

	Sink    EventSink
	Metrics *MetricsCollector
	Logger  *slog.Logger
}

// Option is a functional option for configuring the pipeline.
type Option func(*Config)

// WithMaxHistory sets how many messages are kept between turns.
func WithMaxHistory(n int) Option {
	return func(c *Config) { c.MaxHistory = n }
}

// WithNoiseReply replaces the reply for unusable audio.
func WithNoiseReply(text string) Option {
	return func(c *Config) { c.NoiseReply = text }
}

// WithEventSink publishes a TurnEvent after every request.
func WithEventSink(s EventSink) Option {
	return func(c *Config) { c.Sink = s }
}

// WithMetrics shares a collector between pipelines.
func WithMetrics(m *MetricsCollector) Option {
	return func(c *Config) { c.Metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxHistory: dialogue.DefaultMaxLen,
		NoiseReply: DefaultNoiseReply,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.MaxHistory < 1 {
		return errors.New("voice: max history must be at least 1")
	}
	if c.NoiseReply == "" {
		return errors.New("voice: noise reply must not be empty")
	}
	return nil
}

package tts

import (
	"context"
	"log/slog"
	"strings"
)

// Chain speaks through the first provider that succeeds. Providers are
// tried in order for every request; a failure never removes a provider.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a chain over providers, most preferred first.
func NewChain(providers ...Provider) (*Chain, error) {
	return NewChainWithLogger(slog.Default(), providers...)
}

// NewChainWithLogger is NewChain with an explicit logger.
func NewChainWithLogger(logger *slog.Logger, providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    logger.With("component", "tts.chain"),
	}, nil
}

// Name lists the chained provider names, e.g. "chain(elevenlabs,local)".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Synthesize returns the first provider's audio. Blank text fails with
// ErrEmptyText without touching any provider. A provider that answers
// without audio counts as failed. A cancelled ctx ends the walk with
// ctx.Err().
func (c *Chain) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	var attempts []Attempt
	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.Synthesize(ctx, text)
		if err == nil && (result == nil || len(result.Audio) == 0) {
			err = ErrNoAudio
		}
		if err == nil {
			if result.Provider == "" {
				result.Provider = p.Name()
			}
			if i > 0 {
				c.logger.Info("fallback provider succeeded",
					"provider", p.Name(),
					"skipped", len(attempts),
					"chars", len(text),
				)
			}
			return result, nil
		}

		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
		c.logger.Warn("provider failed, trying next",
			"provider", p.Name(),
			"error", err,
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &ChainError{Attempts: attempts}
}

// Health succeeds when at least one provider is healthy. The offline
// engine last in the chain usually keeps this green.
func (c *Chain) Health(ctx context.Context) error {
	var attempts []Attempt
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
			c.logger.Debug("health check passed", "provider", p.Name(), "failed_before", len(attempts))
			return nil
		}
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
	}
	return &ChainError{Attempts: attempts}
}

// Close closes every provider and returns the last failure.
func (c *Chain) Close() error {
	var lastErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Providers returns the chained providers in order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

var _ Provider = (*Chain)(nil)

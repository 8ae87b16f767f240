package inference

import (
	"context"
	"log/slog"
	"strings"
)

// Chain asks providers in order until one answers.
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
		logger:    logger.With("component", "inference.chain"),
	}, nil
}

// Name lists the chained provider names, e.g. "chain(openai,anthropic)".
func (c *Chain) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Chat returns the first provider's response. A nil response counts as
// a failure; an empty message does not, since the caller owns the
// fallback wording for it. A cancelled ctx ends the walk with ctx.Err().
func (c *Chain) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var attempts []Attempt
	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := p.Chat(ctx, req)
		if err == nil && resp == nil {
			err = ErrEmptyResponse
		}
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded",
					"provider", p.Name(),
					"skipped", len(attempts),
				)
			}
			return resp, nil
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

// Health succeeds when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var attempts []Attempt
	for _, p := range c.providers {
		err := p.Health(ctx)
		if err == nil {
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

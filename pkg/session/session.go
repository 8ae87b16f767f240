// Package session persists dialogue history between turns.
//
// The conversation engine never touches the store; the request pipeline
// loads a session's messages before a turn and saves the trimmed result
// after it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

// Defaults for the in-memory store.
const (
	DefaultCapacity = 1024
	DefaultTTL      = 2 * time.Hour
)

// ErrEmptyKey is returned for a blank session key.
var ErrEmptyKey = errors.New("session: empty key")

// Store maps a session key to its dialogue history.
type Store interface {
	// Get returns the stored messages and whether the key was present.
	Get(ctx context.Context, key string) ([]dialogue.Message, bool, error)

	// Put replaces the stored messages for key.
	Put(ctx context.Context, key string, msgs []dialogue.Message) error
}

// Memory is a bounded in-process Store. Least recently used sessions are
// evicted at capacity and idle sessions expire after the TTL. Contents are
// lost on restart.
type Memory struct {
	cache  *expirable.LRU[string, []dialogue.Message]
	logger *slog.Logger
}

// Option configures a Memory store.
type Option func(*memoryConfig)

type memoryConfig struct {
	capacity int
	ttl      time.Duration
	logger   *slog.Logger
}

// WithCapacity sets the maximum number of sessions.
func WithCapacity(n int) Option {
	return func(c *memoryConfig) { c.capacity = n }
}

// WithTTL sets how long an untouched session lives.
func WithTTL(d time.Duration) Option {
	return func(c *memoryConfig) { c.ttl = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *memoryConfig) { c.logger = l }
}

// NewMemory creates an in-memory store.
func NewMemory(opts ...Option) *Memory {
	cfg := memoryConfig{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity <= 0 {
		cfg.capacity = DefaultCapacity
	}

	m := &Memory{logger: cfg.logger.With("component", "session.memory")}
	m.cache = expirable.NewLRU(cfg.capacity, func(key string, _ []dialogue.Message) {
		m.logger.Debug("session evicted", "session", key)
	}, cfg.ttl)
	return m
}

// Get returns a copy of the stored history.
func (m *Memory) Get(_ context.Context, key string) ([]dialogue.Message, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	msgs, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return dialogue.CloneMessages(msgs), true, nil
}

// Put stores a copy of msgs and refreshes the session's TTL.
func (m *Memory) Put(_ context.Context, key string, msgs []dialogue.Message) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.cache.Add(key, dialogue.CloneMessages(msgs))
	return nil
}

// Delete forgets a session.
func (m *Memory) Delete(key string) {
	m.cache.Remove(key)
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	return m.cache.Len()
}

var _ Store = (*Memory)(nil)

package stt

import (
	"context"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns Text.
	TranscribeFunc func(ctx context.Context, audio Audio) (string, error)

	// Text is the fixed transcription returned by default.
	Text string

	mu    sync.Mutex
	calls []Audio
}

// NewMock returns a mock that always hears text.
func NewMock(text string) *Mock {
	return &Mock{Text: text}
}

// WithError returns a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, audio Audio) (string, error) {
			return "", err
		},
	}
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Transcribe records the clip and returns the configured answer.
func (m *Mock) Transcribe(ctx context.Context, audio Audio) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, audio)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio)
	}
	return m.Text, nil
}

// CallCount returns the number of Transcribe calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

var _ Transcriber = (*Mock)(nil)

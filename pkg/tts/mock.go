package tts

import (
	"context"
	"sync"
	"time"
)

// mockFrameHeader starts every payload the default Mock produces, so a
// stored asset is recognisable as test audio.
const mockFrameHeader = "ID3mock:"

// Mock is a scriptable Provider. Every call is recorded.
type Mock struct {
	// SynthesizeFunc overrides the default, which returns a small MP3-tagged
	// payload carrying the text.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	HealthFunc func(ctx context.Context) error
	CloseFunc  func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records one invocation.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock returns a healthy mock that always speaks.
func NewMock() *Mock {
	return &Mock{}
}

// Synthesize records the call and runs SynthesizeFunc or the default.
func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.recordCall("Synthesize", text)
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text)
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapError(m.Name(), err)
	}
	return &AudioResult{
		Audio:     []byte(mockFrameHeader + text),
		Format:    AudioFormat{Encoding: EncodingMP3, SampleRate: SampleRateFromEncoding(EncodingMP3), Channels: 1},
		Provider:  m.Name(),
		CharCount: len([]rune(text)),
	}, nil
}

// Name returns ProviderName or "mock".
func (m *Mock) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *Mock) Health(ctx context.Context) error {
	m.recordCall("Health", "")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

func (m *Mock) Close() error {
	m.recordCall("Close", "")
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) recordCall(method, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount counts recorded calls of method.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call, or nil.
func (m *Mock) LastCall() *MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	c := m.calls[len(m.calls)-1]
	return &c
}

// Reset forgets recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// WithError returns a mock whose synthesis and health checks fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text string) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

var _ Provider = (*Mock)(nil)

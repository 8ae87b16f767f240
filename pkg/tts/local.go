package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

const providerLocal = "local"

// DefaultLocalEngines are tried in order when no command is configured.
var DefaultLocalEngines = []string{"espeak-ng", "espeak"}

// Runner executes a speech engine and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

// Local implements Provider with an offline espeak engine writing WAV to
// stdout. It needs no network and no credentials.
type Local struct {
	command  string
	language string
	timeout  time.Duration
	run      Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// LocalOption configures a Local provider.
type LocalOption func(*Local)

// WithCommand pins the engine binary.
func WithCommand(command string) LocalOption {
	return func(l *Local) { l.command = command }
}

// WithLocalLanguage sets the espeak voice (e.g., "es", "es-419").
func WithLocalLanguage(lang string) LocalOption {
	return func(l *Local) { l.language = lang }
}

// WithRunner replaces command execution.
func WithRunner(run Runner) LocalOption {
	return func(l *Local) { l.run = run }
}

// WithLocalLogger sets the structured logger.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) { l.logger = logger }
}

// NewLocal creates an offline provider.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{
		language: "es",
		timeout:  20 * time.Second,
		run:      ExecRunner,
		lookPath: exec.LookPath,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "tts.local")
	return l
}

// Name returns "local".
func (l *Local) Name() string {
	return providerLocal
}

// engine returns the configured command or the first installed default.
func (l *Local) engine() (string, error) {
	if l.command != "" {
		return l.command, nil
	}
	for _, name := range DefaultLocalEngines {
		if _, err := l.lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", ErrEngineNotFound
}

// Synthesize runs the engine and returns WAV audio.
func (l *Local) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	command, err := l.engine()
	if err != nil {
		return nil, WrapError(providerLocal, err)
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	audio, err := l.run(ctx, command, "-v", l.language, "--stdout", "--", text)
	if err != nil {
		return nil, WrapError(providerLocal, err)
	}
	if len(audio) == 0 {
		return nil, WrapError(providerLocal, fmt.Errorf("%s produced no audio", command))
	}

	latency := time.Since(start).Milliseconds()
	l.logger.Debug("synthesized audio",
		"engine", command,
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: 22050,
			Channels:   1,
			BitDepth:   16,
		},
		Provider:  providerLocal,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health reports whether an engine is installed.
func (l *Local) Health(ctx context.Context) error {
	command, err := l.engine()
	if err != nil {
		return WrapError(providerLocal, err)
	}
	if _, err := l.lookPath(command); err != nil {
		return WrapError(providerLocal, err)
	}
	return nil
}

// Close releases resources.
func (l *Local) Close() error {
	return nil
}

// Verify Local implements Provider at compile time.
var _ Provider = (*Local)(nil)

package tts

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// AssetMode selects how synthesized files are named.
type AssetMode string

const (
	// AssetSingle reuses one slot ("response.mp3"). Concurrent turns race on
	// it and the last writer wins.
	AssetSingle AssetMode = "single"

	// AssetPerRequest writes a uuid-named file per turn.
	AssetPerRequest AssetMode = "per-request"
)

// SingleSlotName is the base name of the shared asset in AssetSingle mode.
const SingleSlotName = "response"

// DefaultMaxAssets bounds how many per-request files stay on disk.
const DefaultMaxAssets = 64

// Asset is a synthesized answer on disk.
type Asset struct {
	// Name is the file name inside the output directory.
	Name string

	// Path is the full file path.
	Path string

	// Provider names who produced the audio.
	Provider string

	Format AudioFormat
	Bytes  int
}

// Synthesizer writes provider output into an output directory.
type Synthesizer struct {
	provider Provider
	dir      string
	mode     AssetMode
	newID    func() string
	logger   *slog.Logger

	// retained tracks per-request files oldest first. Evicted names are
	// removed from dir.
	maxAssets int
	retained  *lru.Cache[string, struct{}]
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithAssetMode sets the naming mode.
func WithAssetMode(mode AssetMode) SynthesizerOption {
	return func(s *Synthesizer) { s.mode = mode }
}

// WithMaxAssets bounds the per-request files kept on disk. Zero or less
// keeps every file.
func WithMaxAssets(n int) SynthesizerOption {
	return func(s *Synthesizer) { s.maxAssets = n }
}

// WithSynthesizerLogger sets the structured logger.
func WithSynthesizerLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) { s.logger = logger }
}

// NewSynthesizer creates dir if needed and returns a Synthesizer.
func NewSynthesizer(provider Provider, dir string, opts ...SynthesizerOption) (*Synthesizer, error) {
	if provider == nil {
		return nil, ErrProviderUnavailable
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tts: create output dir: %w", err)
	}

	s := &Synthesizer{
		provider:  provider,
		dir:       dir,
		mode:      AssetPerRequest,
		newID:     uuid.NewString,
		logger:    slog.Default(),
		maxAssets: DefaultMaxAssets,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "tts.synthesizer")

	if s.mode == AssetPerRequest && s.maxAssets > 0 {
		cache, err := lru.NewWithEvict(s.maxAssets, s.removeAsset)
		if err != nil {
			return nil, fmt.Errorf("tts: asset retention: %w", err)
		}
		s.retained = cache
	}
	return s, nil
}

// Dir returns the output directory.
func (s *Synthesizer) Dir() string {
	return s.dir
}

// Provider returns the underlying provider.
func (s *Synthesizer) Provider() Provider {
	return s.provider
}

// Synthesize speaks text and stores the audio. It returns nil when text is
// blank, every provider failed, or the file could not be written; the
// caller still delivers the text answer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) *Asset {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	result, err := s.provider.Synthesize(ctx, text)
	if err != nil {
		s.logger.Warn("no audio for answer", "error", err)
		return nil
	}

	name := s.fileName(result.Format.Encoding)
	path := filepath.Join(s.dir, name)
	if err := writeFileAtomic(path, result.Audio); err != nil {
		s.logger.Error("write audio asset", "path", path, "error", err)
		return nil
	}
	if s.retained != nil {
		s.retained.Add(name, struct{}{})
	}

	return &Asset{
		Name:     name,
		Path:     path,
		Provider: result.Provider,
		Format:   result.Format,
		Bytes:    len(result.Audio),
	}
}

func (s *Synthesizer) removeAsset(name string, _ struct{}) {
	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove expired asset", "path", path, "error", err)
		return
	}
	s.logger.Debug("expired asset removed", "name", name)
}

func (s *Synthesizer) fileName(enc Encoding) string {
	if s.mode == AssetSingle {
		return SingleSlotName + enc.Extension()
	}
	return s.newID() + enc.Extension()
}

// writeFileAtomic writes through a temp file so readers never see a
// partial asset.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tts-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

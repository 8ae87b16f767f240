// Package stt converts recorded speech to text.
//
// Transcribers are opaque providers: a failure means no usable text for the
// turn, and callers fall back to a clarification instead of a crash.
package stt

import (
	"context"
	"errors"
	"fmt"
)

// Transcriber converts an audio clip to text.
type Transcriber interface {
	// Transcribe returns the raw transcription, which may be empty or noise.
	Transcribe(ctx context.Context, audio Audio) (string, error)

	// Name identifies the transcriber in logs and errors.
	Name() string
}

// Audio is one uploaded clip.
type Audio struct {
	// Data holds the encoded audio (webm, wav, mp3...).
	Data []byte

	// Filename carries the container type to the provider. Defaults to
	// DefaultFilename when empty.
	Filename string
}

// DefaultFilename is used when the upload has no name.
const DefaultFilename = "audio.webm"

var (
	// ErrEmptyAudio is returned when the clip has no bytes.
	ErrEmptyAudio = errors.New("stt: empty audio")

	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")
)

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("stt [%s]: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Package tts turns the assistant's final answer into a playable audio asset.
//
// Providers are tried in order through a Chain: a networked voice first
// (ElevenLabs, OpenAI, Google Cloud) and an offline engine last, so a turn
// still gets audio when the network tier is down. Synthesizer writes the
// winning result into the output directory and hands back an Asset, or nil
// when every provider failed.
//
// Example usage:
//
//	primary, _ := tts.NewElevenLabs(
//	    tts.WithAPIKey(os.Getenv("ELEVENLABS_API_KEY")),
//	    tts.WithVoice(tts.ResolveElevenLabsVoice("adam")),
//	)
//	chain, _ := tts.NewChain(primary, tts.NewLocal())
//	synth, _ := tts.NewSynthesizer(chain, "static")
//
//	asset := synth.Synthesize(ctx, "Hola, soy MAD-IA.")
//	// asset is nil when no provider produced audio
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Name identifies the provider in logs and assets.
	Name() string

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the encoded audio.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Provider names the provider that produced the audio.
	Provider string

	// Duration is the estimated audio playback duration, zero if unknown.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., mp3_44100_128, wav).
	Encoding Encoding

	// SampleRate in Hz (e.g., 24000, 44100, 22050).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// BitDepth for PCM formats (e.g., 16 for PCM16).
	BitDepth int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// Raw PCM
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"

	// Containers a browser can play directly
	EncodingMP3 Encoding = "mp3_44100_128"
	EncodingWAV Encoding = "wav"
	EncodingOGG Encoding = "ogg_opus"
)

// Extension returns the file extension for an encoding.
func (e Encoding) Extension() string {
	switch e {
	case EncodingMP3:
		return ".mp3"
	case EncodingWAV:
		return ".wav"
	case EncodingOGG:
		return ".ogg"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return ".pcm"
	default:
		return ".bin"
	}
}

// MIME returns the content type for an encoding.
func (e Encoding) MIME() string {
	switch e {
	case EncodingWAV:
		return "audio/wav"
	case EncodingOGG:
		return "audio/ogg"
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return "audio/pcm"
	default:
		return "audio/mpeg"
	}
}

// VoiceSettings controls voice characteristics for providers that support it.
type VoiceSettings struct {
	// Stability controls voice consistency (0.0-1.0).
	// Lower values = more expressive/variable, higher = more consistent.
	Stability float64

	// SimilarityBoost controls how closely the voice matches the original (0.0-1.0).
	SimilarityBoost float64

	// Style controls style exaggeration (0.0-1.0). Only sent when non-zero.
	Style float64

	// SpeakerBoost enhances speaker clarity. Only sent when true.
	SpeakerBoost bool
}

// DefaultVoiceSettings returns the assistant's voice settings.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.55,
		SimilarityBoost: 0.55,
	}
}

// SampleRateFromEncoding extracts the sample rate from an encoding type.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22, EncodingWAV:
		return 22050
	case EncodingPCM24, EncodingOGG:
		return 24000
	case EncodingPCM44, EncodingMP3:
		return 44100
	default:
		return 24000
	}
}

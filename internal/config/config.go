// Package config loads mad-ia settings.
//
// Settings are layered: built-in defaults, then an optional TOML file,
// then a .env file, then process environment variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

// Asset modes for synthesized audio.
const (
	AssetModeSingle     = "single"
	AssetModePerRequest = "per-request"
)

// Quality gate profiles.
const (
	QualityDefault  = "default"
	QualityTolerant = "tolerant"
)

// Settings holds all configuration for the assistant.
type Settings struct {
	Server        ServerConfig        `toml:"server"`
	Log           LogConfig           `toml:"log"`
	OpenAI        OpenAIConfig        `toml:"openai"`
	Anthropic     AnthropicConfig     `toml:"anthropic"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Sampling      SamplingConfig      `toml:"sampling"`
	ElevenLabs    ElevenLabsConfig    `toml:"elevenlabs"`
	OpenAITTS     OpenAITTSConfig     `toml:"openai_tts"`
	GoogleTTS     GoogleTTSConfig     `toml:"google_tts"`
	LocalTTS      LocalTTSConfig      `toml:"local_tts"`
	Tools         ToolsConfig         `toml:"tools"`
	Quality       QualityConfig       `toml:"quality"`
	Dialogue      DialogueConfig      `toml:"dialogue"`
	Session       SessionConfig       `toml:"session"`
	Timeouts      TimeoutConfig       `toml:"timeouts"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	OutputDir string `toml:"output_dir"`
	AssetMode string `toml:"asset_mode"`
	// MaxUploadBytes bounds the multipart body accepted on /audio.
	MaxUploadBytes int `toml:"max_upload_bytes"`
	// MaxAssets bounds the per-request audio files kept in OutputDir.
	// Zero keeps every file.
	MaxAssets int `toml:"max_assets"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// OpenAIConfig configures the primary reasoning and transcription provider.
type OpenAIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// AnthropicConfig configures the fallback reasoning provider.
// Leaving APIKey empty disables it.
type AnthropicConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// TranscriptionConfig configures speech-to-text requests.
type TranscriptionConfig struct {
	Model       string  `toml:"model"`
	Language    string  `toml:"language"`
	Prompt      string  `toml:"prompt"`
	Temperature float32 `toml:"temperature"`
}

// SamplingConfig holds reasoning sampling parameters.
type SamplingConfig struct {
	Temperature      float32 `toml:"temperature"`
	TopP             float32 `toml:"top_p"`
	PresencePenalty  float32 `toml:"presence_penalty"`
	FrequencyPenalty float32 `toml:"frequency_penalty"`
	MaxTokens        int     `toml:"max_tokens"`
}

// ElevenLabsConfig configures the primary synthesis provider.
type ElevenLabsConfig struct {
	APIKey     string  `toml:"api_key"`
	BaseURL    string  `toml:"base_url"`
	VoiceID    string  `toml:"voice_id"`
	ModelID    string  `toml:"model_id"`
	Stability  float64 `toml:"stability"`
	Similarity float64 `toml:"similarity"`
}

// OpenAITTSConfig configures the optional OpenAI speech tier. It reuses
// the OpenAI API key.
type OpenAITTSConfig struct {
	Enabled bool   `toml:"enabled"`
	Voice   string `toml:"voice"`
	Model   string `toml:"model"`
}

// GoogleTTSConfig configures the optional Google Cloud synthesis tier.
type GoogleTTSConfig struct {
	Enabled      bool   `toml:"enabled"`
	APIKey       string `toml:"api_key"`
	LanguageCode string `toml:"language_code"`
	VoiceName    string `toml:"voice_name"`
}

// LocalTTSConfig configures the offline synthesis provider.
type LocalTTSConfig struct {
	Command  string `toml:"command"`
	Language string `toml:"language"`
}

// ToolsConfig configures the built-in tools.
type ToolsConfig struct {
	// BrowserCommand overrides the platform URL opener.
	BrowserCommand string `toml:"browser_command"`
	// Weather enables get_weather.
	Weather    bool   `toml:"weather"`
	WeatherURL string `toml:"weather_url"`
}

// QualityConfig configures the transcription quality gate.
type QualityConfig struct {
	Profile         string   `toml:"profile"`
	FillerPhrases   []string `toml:"filler_phrases"`
	NonLatinRatio   float64  `toml:"non_latin_ratio"`
	MinSampleSize   int      `toml:"min_sample_size"`
	RepeatThreshold int      `toml:"repeat_threshold"`
}

// DialogueConfig configures conversation behavior.
type DialogueConfig struct {
	SystemPrompt string `toml:"system_prompt"`
	MaxHistory   int    `toml:"max_history"`
	MaxWords     int    `toml:"max_words"`
}

// SessionConfig configures the in-memory session store.
type SessionConfig struct {
	Capacity int      `toml:"capacity"`
	TTL      Duration `toml:"ttl"`
}

// TimeoutConfig configures per-call provider timeouts.
type TimeoutConfig struct {
	Provider Duration `toml:"provider"`
}

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultSystemPrompt is the assistant persona.
const DefaultSystemPrompt = dialogue.DefaultSystemPrompt

// Default returns the built-in configuration.
func Default() *Settings {
	return &Settings{
		Server: ServerConfig{
			Addr:           ":5000",
			OutputDir:      "static",
			AssetMode:      AssetModePerRequest,
			MaxUploadBytes: 25 << 20,
			MaxAssets:      64,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-3-5-haiku-latest",
		},
		Transcription: TranscriptionConfig{
			Model:    "whisper-1",
			Language: "es",
			Prompt:   "Transcripción en español de una conversación clara.",
		},
		Sampling: SamplingConfig{
			Temperature:      0.7,
			TopP:             1,
			PresencePenalty:  0.3,
			FrequencyPenalty: 0.3,
			MaxTokens:        150,
		},
		ElevenLabs: ElevenLabsConfig{
			VoiceID:    "pNInz6obpgDQGcFmaJgB",
			ModelID:    "eleven_multilingual_v1",
			Stability:  0.55,
			Similarity: 0.55,
		},
		OpenAITTS: OpenAITTSConfig{
			Voice: "onyx",
			Model: "tts-1",
		},
		GoogleTTS: GoogleTTSConfig{
			LanguageCode: "es-ES",
		},
		LocalTTS: LocalTTSConfig{
			Command:  "espeak-ng",
			Language: "es",
		},
		Tools: ToolsConfig{
			Weather:    true,
			WeatherURL: "https://wttr.in",
		},
		Quality: QualityConfig{
			Profile: QualityDefault,
		},
		Dialogue: DialogueConfig{
			SystemPrompt: DefaultSystemPrompt,
			MaxHistory:   10,
			MaxWords:     50,
		},
		Session: SessionConfig{
			Capacity: 1024,
			TTL:      Duration{2 * time.Hour},
		},
		Timeouts: TimeoutConfig{
			Provider: Duration{30 * time.Second},
		},
	}
}

// Load builds Settings from defaults, the optional TOML file at path,
// the optional .env file, and the environment.
func Load(path, envFile string) (*Settings, error) {
	s := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, s); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if envFile != "" {
		// A missing .env is normal outside development.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}

	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that required configuration is present and in range.
func (s *Settings) Validate() error {
	if s.OpenAI.APIKey == "" && s.Anthropic.APIKey == "" {
		return &ConfigError{Field: "OpenAI.APIKey", Message: "OPENAI_API_KEY or ANTHROPIC_API_KEY environment variable is required"}
	}
	switch s.Server.AssetMode {
	case AssetModeSingle, AssetModePerRequest:
	default:
		return &ConfigError{Field: "Server.AssetMode", Message: fmt.Sprintf("asset mode must be %q or %q, got %q", AssetModeSingle, AssetModePerRequest, s.Server.AssetMode)}
	}
	if s.Server.MaxAssets < 0 {
		return &ConfigError{Field: "Server.MaxAssets", Message: "max assets must not be negative"}
	}
	switch s.Quality.Profile {
	case QualityDefault, QualityTolerant:
	default:
		return &ConfigError{Field: "Quality.Profile", Message: fmt.Sprintf("quality profile must be %q or %q, got %q", QualityDefault, QualityTolerant, s.Quality.Profile)}
	}
	if s.Quality.NonLatinRatio < 0 || s.Quality.NonLatinRatio > 1 {
		return &ConfigError{Field: "Quality.NonLatinRatio", Message: "non-latin ratio must be between 0 and 1"}
	}
	if s.Dialogue.MaxHistory < 1 {
		return &ConfigError{Field: "Dialogue.MaxHistory", Message: "max history must be at least 1"}
	}
	if s.Dialogue.MaxWords < 1 {
		return &ConfigError{Field: "Dialogue.MaxWords", Message: "max words must be at least 1"}
	}
	if s.Timeouts.Provider.Duration <= 0 {
		return &ConfigError{Field: "Timeouts.Provider", Message: "provider timeout must be positive"}
	}
	if s.Session.Capacity < 1 {
		return &ConfigError{Field: "Session.Capacity", Message: "session capacity must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

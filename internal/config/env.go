package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overlays environment variables onto s.
func (s *Settings) applyEnv() error {
	setString(&s.Server.Addr, "MADIA_ADDR")
	setString(&s.Server.OutputDir, "MADIA_OUTPUT_DIR")
	setString(&s.Server.AssetMode, "MADIA_ASSET_MODE")
	setString(&s.Log.Level, "MADIA_LOG_LEVEL")
	setString(&s.Log.Format, "MADIA_LOG_FORMAT")

	setString(&s.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&s.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&s.OpenAI.Model, "MADIA_OPENAI_MODEL")
	setString(&s.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setString(&s.Anthropic.Model, "MADIA_ANTHROPIC_MODEL")

	setString(&s.Transcription.Language, "MADIA_LANGUAGE")

	setString(&s.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	setString(&s.ElevenLabs.VoiceID, "ELEVENLABS_VOICE_ID")
	setString(&s.ElevenLabs.ModelID, "ELEVENLABS_MODEL_ID")

	setString(&s.GoogleTTS.APIKey, "GOOGLE_API_KEY")
	setString(&s.LocalTTS.Command, "MADIA_LOCAL_TTS")
	setString(&s.OpenAITTS.Voice, "MADIA_OPENAI_TTS_VOICE")
	setString(&s.Tools.BrowserCommand, "MADIA_BROWSER")
	setString(&s.Tools.WeatherURL, "MADIA_WEATHER_URL")
	setString(&s.Quality.Profile, "MADIA_QUALITY_PROFILE")
	setString(&s.Dialogue.SystemPrompt, "MADIA_SYSTEM_PROMPT")

	var err error
	if s.Server.MaxUploadBytes, err = getEnvInt("MADIA_MAX_UPLOAD_BYTES", s.Server.MaxUploadBytes); err != nil {
		return err
	}
	if s.Server.MaxAssets, err = getEnvInt("MADIA_MAX_ASSETS", s.Server.MaxAssets); err != nil {
		return err
	}
	if s.Sampling.Temperature, err = getEnvFloat32("MADIA_TEMPERATURE", s.Sampling.Temperature); err != nil {
		return err
	}
	if s.Sampling.TopP, err = getEnvFloat32("MADIA_TOP_P", s.Sampling.TopP); err != nil {
		return err
	}
	if s.Sampling.PresencePenalty, err = getEnvFloat32("MADIA_PRESENCE_PENALTY", s.Sampling.PresencePenalty); err != nil {
		return err
	}
	if s.Sampling.FrequencyPenalty, err = getEnvFloat32("MADIA_FREQUENCY_PENALTY", s.Sampling.FrequencyPenalty); err != nil {
		return err
	}
	if s.Sampling.MaxTokens, err = getEnvInt("MADIA_MAX_TOKENS", s.Sampling.MaxTokens); err != nil {
		return err
	}
	if s.ElevenLabs.Stability, err = getEnvFloat64("ELEVENLABS_STABILITY", s.ElevenLabs.Stability); err != nil {
		return err
	}
	if s.ElevenLabs.Similarity, err = getEnvFloat64("ELEVENLABS_SIMILARITY", s.ElevenLabs.Similarity); err != nil {
		return err
	}
	if s.GoogleTTS.Enabled, err = getEnvBool("MADIA_GOOGLE_TTS", s.GoogleTTS.Enabled); err != nil {
		return err
	}
	if s.OpenAITTS.Enabled, err = getEnvBool("MADIA_OPENAI_TTS", s.OpenAITTS.Enabled); err != nil {
		return err
	}
	if s.Tools.Weather, err = getEnvBool("MADIA_WEATHER", s.Tools.Weather); err != nil {
		return err
	}
	if s.Quality.NonLatinRatio, err = getEnvFloat64("MADIA_NON_LATIN_RATIO", s.Quality.NonLatinRatio); err != nil {
		return err
	}
	if s.Quality.RepeatThreshold, err = getEnvInt("MADIA_REPEAT_THRESHOLD", s.Quality.RepeatThreshold); err != nil {
		return err
	}
	if s.Dialogue.MaxHistory, err = getEnvInt("MADIA_MAX_HISTORY", s.Dialogue.MaxHistory); err != nil {
		return err
	}
	if s.Dialogue.MaxWords, err = getEnvInt("MADIA_MAX_WORDS", s.Dialogue.MaxWords); err != nil {
		return err
	}
	if s.Session.Capacity, err = getEnvInt("MADIA_SESSION_CAPACITY", s.Session.Capacity); err != nil {
		return err
	}
	if s.Session.TTL.Duration, err = getEnvDuration("MADIA_SESSION_TTL", s.Session.TTL.Duration); err != nil {
		return err
	}
	if s.Timeouts.Provider.Duration, err = getEnvDuration("MADIA_PROVIDER_TIMEOUT", s.Timeouts.Provider.Duration); err != nil {
		return err
	}

	if v := os.Getenv("MADIA_FILLER_PHRASES"); v != "" {
		s.Quality.FillerPhrases = splitList(v)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvFloat32(key string, defaultVal float32) (float32, error) {
	f, err := getEnvFloat64(key, float64(defaultVal))
	return float32(f), err
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}

// splitList splits a '|' separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

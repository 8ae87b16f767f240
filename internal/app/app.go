// Package app wires the assistant's components from Settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JxsueMd16/mad-ia/internal/config"
	"github.com/JxsueMd16/mad-ia/internal/httpc"
	"github.com/JxsueMd16/mad-ia/pkg/conversation"
	"github.com/JxsueMd16/mad-ia/pkg/hub"
	"github.com/JxsueMd16/mad-ia/pkg/inference"
	"github.com/JxsueMd16/mad-ia/pkg/quality"
	"github.com/JxsueMd16/mad-ia/pkg/session"
	"github.com/JxsueMd16/mad-ia/pkg/stt"
	"github.com/JxsueMd16/mad-ia/pkg/tools"
	"github.com/JxsueMd16/mad-ia/pkg/tts"
	"github.com/JxsueMd16/mad-ia/pkg/voice"
	"github.com/JxsueMd16/mad-ia/pkg/web"
)

// weatherTimeout bounds get_weather lookups.
const weatherTimeout = 10 * time.Second

// App is the assembled assistant.
type App struct {
	settings *config.Settings
	logger   *slog.Logger

	reasoning   inference.Provider
	transcriber stt.Transcriber
	speech      tts.Provider
	registry    *tools.Registry
	engine      *conversation.Engine
	store       *session.Memory
	turns       *hub.Hub
	pipeline    *voice.Pipeline
	server      *web.Server

	launcher tools.Launcher
	// quiet drops turn events. Set when nothing runs the hub.
	quiet bool
}

// Option replaces a component, mainly for tests and the CLI.
type Option func(*App)

// WithReasoning replaces the reasoning provider built from settings.
func WithReasoning(p inference.Provider) Option {
	return func(a *App) { a.reasoning = p }
}

// WithTranscriber replaces the transcriber built from settings.
func WithTranscriber(t stt.Transcriber) Option {
	return func(a *App) { a.transcriber = t }
}

// WithSpeech replaces the synthesis chain built from settings.
func WithSpeech(p tts.Provider) Option {
	return func(a *App) { a.speech = p }
}

// WithLauncher replaces the browser launcher used by open_website.
func WithLauncher(l tools.Launcher) Option {
	return func(a *App) { a.launcher = l }
}

// WithoutEvents builds the pipeline without publishing turn events. The
// terminal chat uses it because no hub runs there.
func WithoutEvents() Option {
	return func(a *App) { a.quiet = true }
}

// WithLogger sets the root logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New validates settings and builds every component.
func New(s *config.Settings, opts ...Option) (*App, error) {
	if s == nil {
		return nil, errors.New("app: nil settings")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}

	a := &App{settings: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}

	var err error
	if a.reasoning == nil {
		if a.reasoning, err = newReasoning(s, a.logger); err != nil {
			return nil, err
		}
	}
	if a.transcriber == nil {
		a.transcriber = newTranscriber(s, a.logger)
	}
	if a.speech == nil {
		if a.speech, err = newSpeech(s, a.logger); err != nil {
			return nil, err
		}
	}
	if a.launcher == nil {
		a.launcher = tools.BrowserLauncher{Command: s.Tools.BrowserCommand}
	}
	a.registry = newRegistry(s, a.launcher, a.logger)

	a.engine = conversation.New(a.reasoning, a.registry,
		conversation.WithSystemPrompt(s.Dialogue.SystemPrompt),
		conversation.WithTimeout(s.Timeouts.Provider.Duration),
		conversation.WithMaxWords(s.Dialogue.MaxWords),
		conversation.WithLogger(a.logger),
	)

	a.store = session.NewMemory(
		session.WithCapacity(s.Session.Capacity),
		session.WithTTL(s.Session.TTL.Duration),
		session.WithLogger(a.logger),
	)

	synth, err := tts.NewSynthesizer(a.speech, s.Server.OutputDir,
		tts.WithAssetMode(tts.AssetMode(s.Server.AssetMode)),
		tts.WithMaxAssets(s.Server.MaxAssets),
		tts.WithSynthesizerLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}

	a.turns = hub.New("turns", hub.WithLogger(a.logger))

	pipelineOpts := []voice.Option{
		voice.WithMaxHistory(s.Dialogue.MaxHistory),
		voice.WithLogger(a.logger),
	}
	if !a.quiet {
		pipelineOpts = append(pipelineOpts, voice.WithEventSink(a.turns))
	}
	a.pipeline, err = voice.New(voice.Components{
		Transcriber: a.transcriber,
		Gate:        quality.New(qualityConfig(s.Quality)),
		Engine:      a.engine,
		Store:       a.store,
		Synthesizer: synth,
	}, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	a.server = web.NewServer(a.pipeline,
		web.WithHub(a.turns),
		web.WithTools(a.registry),
		web.WithStaticDir(s.Server.OutputDir),
		web.WithBodyLimit(s.Server.MaxUploadBytes),
		web.WithHealthCheck("reasoning", a.reasoning.Health),
		web.WithHealthCheck("speech", a.speech.Health),
		web.WithLogger(a.logger),
	)

	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	go a.turns.Run(ctx)

	a.logger.Info("mad-ia ready",
		"addr", a.settings.Server.Addr,
		"reasoning", a.reasoning.Name(),
		"speech", a.speech.Name(),
		"tools", a.registry.Names(),
	)
	return a.server.Run(ctx, a.settings.Server.Addr)
}

// Shutdown releases provider resources.
func (a *App) Shutdown() {
	if err := a.reasoning.Close(); err != nil {
		a.logger.Warn("close reasoning provider", "error", err)
	}
	if err := a.speech.Close(); err != nil {
		a.logger.Warn("close speech provider", "error", err)
	}
}

// Pipeline returns the request pipeline.
func (a *App) Pipeline() *voice.Pipeline {
	return a.pipeline
}

// Registry returns the tool registry.
func (a *App) Registry() *tools.Registry {
	return a.registry
}

// Server returns the HTTP server.
func (a *App) Server() *web.Server {
	return a.server
}

func newReasoning(s *config.Settings, logger *slog.Logger) (inference.Provider, error) {
	sampling := inference.Sampling{
		Temperature:      s.Sampling.Temperature,
		TopP:             s.Sampling.TopP,
		PresencePenalty:  s.Sampling.PresencePenalty,
		FrequencyPenalty: s.Sampling.FrequencyPenalty,
		MaxTokens:        s.Sampling.MaxTokens,
	}
	timeout := s.Timeouts.Provider.Duration

	var providers []inference.Provider
	if s.OpenAI.APIKey != "" {
		p, err := inference.NewOpenAI(
			inference.WithAPIKey(s.OpenAI.APIKey),
			inference.WithBaseURL(s.OpenAI.BaseURL),
			inference.WithModel(s.OpenAI.Model),
			inference.WithSampling(sampling),
			inference.WithHTTPClient(httpc.NewClient(timeout)),
			inference.WithTimeout(timeout),
			inference.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("app: openai: %w", err)
		}
		providers = append(providers, p)
	}
	if s.Anthropic.APIKey != "" {
		p, err := inference.NewAnthropic(
			inference.WithAPIKey(s.Anthropic.APIKey),
			inference.WithModel(s.Anthropic.Model),
			inference.WithSampling(sampling),
			inference.WithHTTPClient(httpc.NewClient(timeout)),
			inference.WithTimeout(timeout),
			inference.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("app: anthropic: %w", err)
		}
		providers = append(providers, p)
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return inference.NewChainWithLogger(logger, providers...)
}

func newTranscriber(s *config.Settings, logger *slog.Logger) stt.Transcriber {
	w, err := stt.NewWhisper(
		stt.WithAPIKey(s.OpenAI.APIKey),
		stt.WithBaseURL(s.OpenAI.BaseURL),
		stt.WithModel(s.Transcription.Model),
		stt.WithLanguage(s.Transcription.Language),
		stt.WithPrompt(s.Transcription.Prompt),
		stt.WithTemperature(s.Transcription.Temperature),
		stt.WithHTTPClient(httpc.NewClient(s.Timeouts.Provider.Duration)),
		stt.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("audio disabled: no transcriber", "error", err)
		return nil
	}
	return w
}

// newSpeech builds the synthesis fallback chain. The offline engine is
// always last.
func newSpeech(s *config.Settings, logger *slog.Logger) (tts.Provider, error) {
	var providers []tts.Provider

	if s.ElevenLabs.APIKey != "" {
		p, err := tts.NewElevenLabs(
			tts.WithAPIKey(s.ElevenLabs.APIKey),
			tts.WithBaseURL(s.ElevenLabs.BaseURL),
			tts.WithVoice(tts.ResolveElevenLabsVoice(s.ElevenLabs.VoiceID)),
			tts.WithModel(s.ElevenLabs.ModelID),
			tts.WithVoiceSettings(tts.VoiceSettings{
				Stability:       s.ElevenLabs.Stability,
				SimilarityBoost: s.ElevenLabs.Similarity,
			}),
			tts.WithHTTPClient(httpc.NewClient(s.Timeouts.Provider.Duration)),
			tts.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("app: elevenlabs: %w", err)
		}
		providers = append(providers, p)
	}

	if s.OpenAITTS.Enabled && s.OpenAI.APIKey != "" {
		p, err := tts.NewOpenAI(
			tts.WithAPIKey(s.OpenAI.APIKey),
			tts.WithBaseURL(s.OpenAI.BaseURL),
			tts.WithVoice(s.OpenAITTS.Voice),
			tts.WithModel(s.OpenAITTS.Model),
			tts.WithHTTPClient(httpc.NewClient(s.Timeouts.Provider.Duration)),
			tts.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("app: openai tts: %w", err)
		}
		providers = append(providers, p)
	}

	if s.GoogleTTS.Enabled {
		providers = append(providers, tts.NewGoogleCloud([]tts.Option{
			tts.WithAPIKey(s.GoogleTTS.APIKey),
			tts.WithVoice(s.GoogleTTS.VoiceName),
			tts.WithLanguage(s.GoogleTTS.LanguageCode),
			tts.WithTimeout(s.Timeouts.Provider.Duration),
			tts.WithLogger(logger),
		}))
	}

	providers = append(providers, tts.NewLocal(
		tts.WithCommand(s.LocalTTS.Command),
		tts.WithLocalLanguage(s.LocalTTS.Language),
		tts.WithLocalLogger(logger),
	))

	return tts.NewChainWithLogger(logger, providers...)
}

func newRegistry(s *config.Settings, launcher tools.Launcher, logger *slog.Logger) *tools.Registry {
	deps := tools.Deps{Launcher: launcher}
	if s.Tools.Weather {
		deps.Weather = tools.WeatherClient{
			BaseURL:  s.Tools.WeatherURL,
			Language: s.Transcription.Language,
			Client:   httpc.NewClient(weatherTimeout),
		}
	}
	return tools.Defaults(deps, tools.WithLogger(logger))
}

// qualityConfig starts from the selected profile and applies the
// explicitly configured overrides.
func qualityConfig(q config.QualityConfig) quality.Config {
	cfg := quality.DefaultConfig()
	if q.Profile == config.QualityTolerant {
		cfg = quality.TolerantConfig()
	}
	if len(q.FillerPhrases) > 0 {
		cfg.FillerPhrases = q.FillerPhrases
	}
	if q.NonLatinRatio > 0 {
		cfg.NonLatinRatio = q.NonLatinRatio
	}
	if q.MinSampleSize > 0 {
		cfg.MinSampleSize = q.MinSampleSize
	}
	if q.RepeatThreshold > 0 {
		cfg.RepeatThreshold = q.RepeatThreshold
	}
	return cfg
}

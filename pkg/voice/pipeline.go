package voice

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/JxsueMd16/mad-ia/pkg/conversation"
	"github.com/JxsueMd16/mad-ia/pkg/hub"
	"github.com/JxsueMd16/mad-ia/pkg/quality"
	"github.com/JxsueMd16/mad-ia/pkg/session"
	"github.com/JxsueMd16/mad-ia/pkg/stt"
	"github.com/JxsueMd16/mad-ia/pkg/tts"
)

// EventSink receives one event per handled request. *hub.Hub satisfies it.
type EventSink interface {
	PublishTurn(ev hub.TurnEvent)
}

// Components are the collaborators a pipeline drives. Engine and Store are
// required. Without a Transcriber only HandleText works; without a
// Synthesizer replies carry no audio.
type Components struct {
	Transcriber stt.Transcriber
	Gate        *quality.Gate
	Engine      *conversation.Engine
	Store       session.Store
	Synthesizer *tts.Synthesizer
}

// Upload is one recorded clip.
type Upload struct {
	Data     []byte
	Filename string
}

// Reply is the caller-facing answer.
type Reply struct {
	Result string `json:"result"`
	Text   string `json:"text"`
	// File names the synthesized asset, nil when no audio was produced.
	File *string `json:"file"`

	Transcript string               `json:"-"`
	Outcome    string               `json:"-"`
	Tools      []string             `json:"-"`
	Phase      conversation.Phase   `json:"-"`
	Metrics    Metrics              `json:"-"`
	Turn       *conversation.Result `json:"-"`
}

// Pipeline handles requests. It is safe for concurrent use; requests for
// the same session key race and the last Put wins.
type Pipeline struct {
	transcriber stt.Transcriber
	gate        *quality.Gate
	engine      *conversation.Engine
	store       session.Store
	synth       *tts.Synthesizer

	config  *Config
	metrics *MetricsCollector
	logger  *slog.Logger
}

// New creates a pipeline.
func New(c Components, opts ...Option) (*Pipeline, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.Engine == nil {
		return nil, ErrMissingEngine
	}
	if c.Store == nil {
		return nil, ErrMissingStore
	}
	if c.Gate == nil {
		c.Gate = quality.New(quality.DefaultConfig())
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetricsCollector()
	}

	return &Pipeline{
		transcriber: c.Transcriber,
		gate:        c.Gate,
		engine:      c.Engine,
		store:       c.Store,
		synth:       c.Synthesizer,
		config:      cfg,
		metrics:     metrics,
		logger:      cfg.Logger.With("component", "voice.pipeline"),
	}, nil
}

// Metrics returns the pipeline's collector.
func (p *Pipeline) Metrics() *MetricsCollector {
	return p.metrics
}

// HandleAudio transcribes the upload and answers it. A failed or unusable
// transcription is answered with the noise reply and Result "error".
func (p *Pipeline) HandleAudio(ctx context.Context, sessionKey string, up Upload) (*Reply, error) {
	if len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	if p.transcriber == nil {
		return nil, ErrNoTranscriber
	}
	if sessionKey == "" {
		return nil, ErrMissingSession
	}

	turn := p.metrics.Begin()

	raw, err := p.transcriber.Transcribe(ctx, stt.Audio{Data: up.Data, Filename: up.Filename})
	turn.MarkTranscript()
	if err != nil {
		p.logger.Warn("transcription failed",
			"transcriber", p.transcriber.Name(),
			"error", err,
		)
		return p.noise(sessionKey, raw, turn), nil
	}

	verdict := p.gate.Classify(raw)
	if !verdict.Usable() {
		p.logger.Info("transcription rejected",
			"reason", verdict.Reason,
			"chars", len([]rune(raw)),
		)
		p.logger.Debug("rejected transcription", "text", raw)
		return p.noise(sessionKey, raw, turn), nil
	}

	p.logger.Debug("transcribed", "text", verdict.Text)
	return p.respond(ctx, sessionKey, verdict.Text, turn)
}

// HandleText answers typed text, skipping transcription and the gate.
func (p *Pipeline) HandleText(ctx context.Context, sessionKey, text string) (*Reply, error) {
	if sessionKey == "" {
		return nil, ErrMissingSession
	}
	return p.respond(ctx, sessionKey, text, p.metrics.Begin())
}

// Reset forgets the dialogue stored under sessionKey.
func (p *Pipeline) Reset(ctx context.Context, sessionKey string) error {
	return p.store.Put(ctx, sessionKey, nil)
}

func (p *Pipeline) respond(ctx context.Context, key, text string, turn *Turn) (*Reply, error) {
	prior, _, err := p.store.Get(ctx, key)
	if err != nil {
		// A broken store costs the dialogue's memory, not the answer.
		p.logger.Warn("load session failed", "error", err)
		prior = nil
	}

	res := p.engine.RunTurn(ctx, p.engine.NewState(prior), text)
	turn.MarkReply(res.Calls, len(res.ToolResults))

	reply := &Reply{
		Result:     ResultOK,
		Text:       res.Text,
		Transcript: text,
		Outcome:    res.Outcome.String(),
		Phase:      res.Phase,
		Turn:       &res,
		Tools: lo.Map(res.ToolResults, func(r conversation.ToolResult, _ int) string {
			return r.Name
		}),
	}

	if res.Outcome == conversation.OutcomeRejected {
		reply.Result = ResultError
	} else if err := p.store.Put(ctx, key, res.State.Trim(p.config.MaxHistory)); err != nil {
		p.logger.Warn("save session failed", "error", err)
	}

	if p.synth != nil && reply.Result == ResultOK {
		asset := p.synth.Synthesize(ctx, reply.Text)
		turn.MarkAudio(asset != nil)
		if asset != nil {
			reply.File = lo.ToPtr(asset.Name)
		}
	}

	reply.Metrics = turn.Done(reply.Outcome)
	p.publish(key, reply)

	p.logger.Info("turn handled",
		"outcome", reply.Outcome,
		"tools", len(reply.Tools),
		"audio", reply.File != nil,
		"latency", reply.Metrics.FormatLatency(),
	)
	return reply, nil
}

func (p *Pipeline) noise(key, raw string, turn *Turn) *Reply {
	reply := &Reply{
		Result:     ResultError,
		Text:       p.config.NoiseReply,
		Transcript: strings.TrimSpace(raw),
		Outcome:    OutcomeNoise,
	}
	reply.Metrics = turn.Done(OutcomeNoise)
	p.publish(key, reply)
	return reply
}

func (p *Pipeline) publish(key string, r *Reply) {
	if p.config.Sink == nil {
		return
	}
	ev := hub.TurnEvent{
		Type:      hub.EventTurn,
		Session:   shortKey(key),
		Result:    r.Result,
		Input:     r.Transcript,
		Reply:     r.Text,
		Outcome:   r.Outcome,
		Tools:     r.Tools,
		LatencyMs: r.Metrics.TotalLatency.Milliseconds(),
		Time:      time.Now(),
	}
	if r.File != nil {
		ev.File = *r.File
	}
	p.config.Sink.PublishTurn(ev)
}

// shortKey keeps session keys out of the broadcast feed.
func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}

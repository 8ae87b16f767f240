package voice

import (
	"sync"
	"time"
)

// historySize bounds the turns kept for averaging.
const historySize = 100

// Metrics holds the latency of each stage of one request.
// All durations are measured from the moment the request arrived.
type Metrics struct {
	// Timestamps for key events
	StartTime      time.Time
	TranscriptTime time.Time
	ReplyTime      time.Time
	AudioTime      time.Time
	DoneTime       time.Time

	// Stage latencies
	ASRLatency   time.Duration
	LLMLatency   time.Duration
	TTSLatency   time.Duration
	TotalLatency time.Duration

	// Outcome is one of the Outcome* labels.
	Outcome string

	ProviderCalls int
	ToolCalls     int
}

// Outcome labels recorded per request.
const (
	OutcomeAnswered = "answered"
	OutcomeRejected = "rejected"
	OutcomeFallback = "fallback"
	OutcomeFailed   = "failed"
	OutcomeNoise    = "noise"
)

// Summary is a point-in-time view of the collector.
type Summary struct {
	Turns    int
	Outcomes map[string]int
	// NoAudio counts answers delivered without synthesized audio.
	NoAudio int
	Average Metrics
	Last    Metrics
}

// MetricsCollector aggregates per-request metrics. It is goroutine-safe;
// each request measures itself through its own Turn.
type MetricsCollector struct {
	mu       sync.Mutex
	history  []Metrics
	turns    int
	noAudio  int
	outcomes map[string]int

	onUpdate func(Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		history:  make([]Metrics, 0, historySize),
		outcomes: make(map[string]int),
	}
}

// OnUpdate sets a callback that fires whenever a turn is recorded.
func (m *MetricsCollector) OnUpdate(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Begin starts measuring one request.
func (m *MetricsCollector) Begin() *Turn {
	return &Turn{collector: m, current: Metrics{StartTime: time.Now()}}
}

// Turn measures a single request. It is owned by one goroutine.
type Turn struct {
	collector *MetricsCollector
	current   Metrics
	audio     bool
}

// MarkTranscript records when transcription completed.
func (t *Turn) MarkTranscript() {
	t.current.TranscriptTime = time.Now()
	t.current.ASRLatency = t.current.TranscriptTime.Sub(t.current.StartTime)
}

// MarkReply records when the conversation engine answered.
func (t *Turn) MarkReply(providerCalls, toolCalls int) {
	t.current.ReplyTime = time.Now()
	from := t.current.StartTime
	if !t.current.TranscriptTime.IsZero() {
		from = t.current.TranscriptTime
	}
	t.current.LLMLatency = t.current.ReplyTime.Sub(from)
	t.current.ProviderCalls = providerCalls
	t.current.ToolCalls = toolCalls
}

// MarkAudio records when synthesis finished. ok is false when no asset was
// produced.
func (t *Turn) MarkAudio(ok bool) {
	t.current.AudioTime = time.Now()
	if !t.current.ReplyTime.IsZero() {
		t.current.TTSLatency = t.current.AudioTime.Sub(t.current.ReplyTime)
	}
	t.audio = ok
}

// Done archives the turn with its outcome and returns the final metrics.
func (t *Turn) Done(outcome string) Metrics {
	t.current.DoneTime = time.Now()
	t.current.TotalLatency = t.current.DoneTime.Sub(t.current.StartTime)
	t.current.Outcome = outcome
	t.collector.record(t.current, t.audio)
	return t.current
}

func (m *MetricsCollector) record(metrics Metrics, audio bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.turns++
	m.outcomes[metrics.Outcome]++
	if !audio && metrics.Outcome != OutcomeNoise && metrics.Outcome != OutcomeRejected {
		m.noAudio++
	}

	m.history = append(m.history, metrics)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}

	if m.onUpdate != nil {
		go m.onUpdate(metrics)
	}
}

// Summary returns counters, the last turn and averages over recent turns.
func (m *MetricsCollector) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		Turns:    m.turns,
		NoAudio:  m.noAudio,
		Outcomes: make(map[string]int, len(m.outcomes)),
	}
	for k, v := range m.outcomes {
		s.Outcomes[k] = v
	}
	if len(m.history) == 0 {
		return s
	}
	s.Last = m.history[len(m.history)-1]

	for _, h := range m.history {
		s.Average.ASRLatency += h.ASRLatency
		s.Average.LLMLatency += h.LLMLatency
		s.Average.TTSLatency += h.TTSLatency
		s.Average.TotalLatency += h.TotalLatency
	}
	n := time.Duration(len(m.history))
	s.Average.ASRLatency /= n
	s.Average.LLMLatency /= n
	s.Average.TTSLatency /= n
	s.Average.TotalLatency /= n

	return s
}

// FormatLatency returns a formatted string of the stage latencies.
func (m *Metrics) FormatLatency() string {
	return formatDuration(m.ASRLatency) + " ASR | " +
		formatDuration(m.LLMLatency) + " LLM | " +
		formatDuration(m.TTSLatency) + " TTS | " +
		formatDuration(m.TotalLatency) + " TOTAL"
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "---ms"
	}
	return d.Round(time.Millisecond).String()
}

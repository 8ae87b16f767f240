// Package quality decides whether a transcription is usable speech or
// noise produced by the transcription model (captions, music markers,
// wrong-script hallucinations, stuck repetitions).
//
// Classification is a pure function of the input and the Gate's Config.
package quality

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Thresholds shared by the built-in profiles.
const (
	// DefaultMinLength is the minimum trimmed rune count for usable text.
	DefaultMinLength = 2

	// DefaultNonLatinCutoff is the last code point of Latin Extended-B.
	// Runes above it count toward the non-Latin ratio.
	DefaultNonLatinCutoff rune = 0x024F

	// DefaultNonLatinRatio rejects text when more than 30% of its runes
	// fall outside the Latin range.
	DefaultNonLatinRatio = 0.3

	// DefaultMinSampleSize is the rune count above which the ratio applies.
	DefaultMinSampleSize = 0

	// DefaultRepeatThreshold rejects "hola hola".
	DefaultRepeatThreshold = 2

	// TolerantNonLatinRatio allows mixed-script text such as names.
	TolerantNonLatinRatio = 0.7

	// TolerantMinSampleSize skips the ratio check for short utterances.
	TolerantMinSampleSize = 8

	// TolerantRepeatThreshold keeps "sí sí" and "no no no".
	TolerantRepeatThreshold = 4
)

// DefaultFillerPhrases are caption artifacts Whisper emits on silence.
var DefaultFillerPhrases = []string{
	"thanks for watching",
	"thank you for watching",
	"subscribe",
	"like and subscribe",
	"music",
	"[music]",
	"[applause]",
	"subtitles by",
	"subtítulos realizados por",
	"gracias por ver el video",
	"suscríbete",
	"♪",
	"🎵",
	"😊",
}

// DefaultDecorativeSymbols are symbols that carry no speech on their own.
const DefaultDecorativeSymbols = "♪♫🎵🎶😊😂😄.,;:!?¡¿-_*~…()[]\"'"

// Kind is the classification outcome.
type Kind int

const (
	// Noise means the text must not enter the dialogue.
	Noise Kind = iota
	// Usable means the text may be handed to the conversation engine.
	Usable
)

// String returns a human-readable verdict kind.
func (k Kind) String() string {
	switch k {
	case Usable:
		return "usable"
	case Noise:
		return "noise"
	default:
		return "unknown"
	}
}

// Rejection reasons.
const (
	ReasonEmpty      = "empty"
	ReasonTooShort   = "too_short"
	ReasonFiller     = "filler"
	ReasonDecorative = "decorative"
	ReasonNonLatin   = "non_latin"
	ReasonRepeated   = "repeated"
)

// Verdict is the result of classifying one transcription.
type Verdict struct {
	Kind Kind
	// Text is the normalized text. Empty unless Kind is Usable.
	Text string
	// Reason names the rule that rejected the text.
	Reason string
}

// Usable reports whether the verdict admits the text.
func (v Verdict) Usable() bool {
	return v.Kind == Usable
}

// Config holds the gate's tunables.
type Config struct {
	FillerPhrases     []string
	DecorativeSymbols string
	NonLatinCutoff    rune
	NonLatinRatio     float64
	MinSampleSize     int
	RepeatThreshold   int
	MinLength         int
}

// DefaultConfig returns the strict profile.
func DefaultConfig() Config {
	return Config{
		FillerPhrases:     DefaultFillerPhrases,
		DecorativeSymbols: DefaultDecorativeSymbols,
		NonLatinCutoff:    DefaultNonLatinCutoff,
		NonLatinRatio:     DefaultNonLatinRatio,
		MinSampleSize:     DefaultMinSampleSize,
		RepeatThreshold:   DefaultRepeatThreshold,
		MinLength:         DefaultMinLength,
	}
}

// TolerantConfig returns the lenient profile for noisy deployments.
func TolerantConfig() Config {
	return Config{
		FillerPhrases:     DefaultFillerPhrases,
		DecorativeSymbols: DefaultDecorativeSymbols,
		NonLatinCutoff:    DefaultNonLatinCutoff,
		NonLatinRatio:     TolerantNonLatinRatio,
		MinSampleSize:     TolerantMinSampleSize,
		RepeatThreshold:   TolerantRepeatThreshold,
		MinLength:         DefaultMinLength,
	}
}

// Gate classifies transcriptions. The zero value is not usable; use New.
type Gate struct {
	fillers    []string
	decorative map[rune]struct{}
	cfg        Config
}

// New creates a Gate. Zero-valued numeric fields fall back to the
// strict profile's values.
func New(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.NonLatinRatio <= 0 {
		cfg.NonLatinRatio = def.NonLatinRatio
	}
	if cfg.RepeatThreshold < 2 {
		cfg.RepeatThreshold = def.RepeatThreshold
	}
	if cfg.NonLatinCutoff <= 0 {
		cfg.NonLatinCutoff = def.NonLatinCutoff
	}
	if cfg.MinLength < 1 {
		cfg.MinLength = def.MinLength
	}
	if cfg.MinSampleSize < 0 {
		cfg.MinSampleSize = 0
	}
	if cfg.DecorativeSymbols == "" {
		cfg.DecorativeSymbols = def.DecorativeSymbols
	}

	fillers := lo.FilterMap(cfg.FillerPhrases, func(p string, _ int) (string, bool) {
		p = strings.ToLower(strings.TrimSpace(p))
		return p, p != ""
	})

	decorative := make(map[rune]struct{}, len(cfg.DecorativeSymbols))
	for _, r := range cfg.DecorativeSymbols {
		decorative[r] = struct{}{}
	}

	return &Gate{
		fillers:    lo.Uniq(fillers),
		decorative: decorative,
		cfg:        cfg,
	}
}

// Config returns the effective configuration.
func (g *Gate) Config() Config {
	return g.cfg
}

// Classify returns whether raw is usable speech.
func (g *Gate) Classify(raw string) Verdict {
	text := normalize(raw)
	if text == "" {
		return noise(ReasonEmpty)
	}
	if utf8.RuneCountInString(text) < g.cfg.MinLength {
		return noise(ReasonTooShort)
	}

	lower := strings.ToLower(text)
	if _, ok := lo.Find(g.fillers, func(p string) bool { return strings.Contains(lower, p) }); ok {
		return noise(ReasonFiller)
	}

	if g.onlyDecorative(text) {
		return noise(ReasonDecorative)
	}

	if g.nonLatinExceeded(text) {
		return noise(ReasonNonLatin)
	}

	if g.repeated(text) {
		return noise(ReasonRepeated)
	}

	return Verdict{Kind: Usable, Text: text}
}

func noise(reason string) Verdict {
	return Verdict{Kind: Noise, Reason: reason}
}

func (g *Gate) onlyDecorative(text string) bool {
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if _, ok := g.decorative[r]; !ok {
			return false
		}
	}
	return true
}

// nonLatinExceeded compares the share of runes above NonLatinCutoff,
// spaces and punctuation included, with the configured ratio.
func (g *Gate) nonLatinExceeded(text string) bool {
	total := utf8.RuneCountInString(text)
	if total <= g.cfg.MinSampleSize {
		return false
	}
	foreign := 0
	for _, r := range text {
		if r > g.cfg.NonLatinCutoff {
			foreign++
		}
	}
	return float64(foreign)/float64(total) > g.cfg.NonLatinRatio
}

// repeated is case-sensitive: "Hola hola" is a greeting, "hola hola" is not.
func (g *Gate) repeated(text string) bool {
	words := strings.Fields(text)
	if len(words) < g.cfg.RepeatThreshold {
		return false
	}
	return len(lo.Uniq(words)) == 1
}

// normalize trims and collapses internal whitespace.
func normalize(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

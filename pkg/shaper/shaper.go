// Package shaper bounds model answers to a length that is comfortable to
// listen to, cutting at the most natural point available.
package shaper

import (
	"strings"
	"unicode"
)

// Ellipsis marks a cut that did not land on a sentence boundary.
const Ellipsis = "..."

const (
	// DefaultMaxWords is the default spoken answer length.
	DefaultMaxWords = 50

	// SentenceWindow is the trailing share of the span searched for . ? !
	SentenceWindow = 0.4

	// CommaWindow is the trailing share of the span searched for a comma.
	CommaWindow = 0.3
)

const sentenceMarks = ".?!"

// Shape truncates text to at most maxWords words.
//
// Text within the limit is returned unchanged. Otherwise the first maxWords
// words form the span, and the cut is made at the last sentence mark in the
// span's final 40% (mark kept), else at the last comma in the final 30%
// (comma dropped, ellipsis appended), else at the span's end with trailing
// punctuation stripped and an ellipsis appended.
func Shape(text string, maxWords int) string {
	if maxWords < 1 {
		maxWords = DefaultMaxWords
	}

	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}

	span := []rune(strings.Join(words[:maxWords], " "))
	n := len(span)

	if i := lastIndexAny(span, sentenceMarks); i >= 0 && float64(i) >= float64(n)*(1-SentenceWindow) {
		return string(span[:i+1])
	}

	if i := lastIndexAny(span, ","); i >= 0 && float64(i) >= float64(n)*(1-CommaWindow) {
		return strings.TrimRightFunc(string(span[:i]), unicode.IsSpace) + Ellipsis
	}

	return strings.TrimRightFunc(string(span), func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	}) + Ellipsis
}

func lastIndexAny(s []rune, chars string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if strings.ContainsRune(chars, s[i]) {
			return i
		}
	}
	return -1
}

// StripSymbols removes emoji and other pictographic symbols that speech
// synthesis would read aloud or mangle, and collapses the whitespace they
// leave behind.
func StripSymbols(text string) string {
	if !strings.ContainsFunc(text, isPictographic) {
		return text
	}
	cleaned := strings.Map(func(r rune) rune {
		if isPictographic(r) {
			return -1
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}

func isPictographic(r rune) bool {
	return unicode.Is(unicode.So, r) || r == '\uFE0F' || r == '\u200D'
}

// Shaper applies StripSymbols then Shape with a fixed limit.
type Shaper struct {
	MaxWords     int
	StripSymbols bool
}

// New returns a Shaper limited to maxWords that strips symbols.
func New(maxWords int) Shaper {
	return Shaper{MaxWords: maxWords, StripSymbols: true}
}

// Shape bounds text for speech.
func (s Shaper) Shape(text string) string {
	if s.StripSymbols {
		text = StripSymbols(text)
	}
	return Shape(text, s.MaxWords)
}

package tts

import "strings"

// DefaultElevenLabsVoiceID is Adam, the assistant's voice.
const DefaultElevenLabsVoiceID = "pNInz6obpgDQGcFmaJgB"

// elevenLabsPresets names the multilingual voices that read Spanish well.
var elevenLabsPresets = map[string]string{
	"adam":      DefaultElevenLabsVoiceID,
	"antoni":    "ErXwobaYiN019PkySvjV",
	"josh":      "TxGEqnHWrfWFTfGW9XjX",
	"sam":       "yoZ06aMxZJJ28mfd3POQ",
	"rachel":    "21m00Tcm4TlvDq8ikWAM",
	"bella":     "EXAVITQu4vr4xnSDxMaL",
	"charlotte": "XB0fDUnXU5powFXDhCwa",
}

// ResolveElevenLabsVoice maps a preset name such as "Adam" to its voice
// id. Anything else is taken to be an id already; blank means the default.
func ResolveElevenLabsVoice(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultElevenLabsVoiceID
	}
	if id, ok := elevenLabsPresets[strings.ToLower(name)]; ok {
		return id
	}
	return name
}

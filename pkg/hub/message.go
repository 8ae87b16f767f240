// Package hub fans turn events out to websocket subscribers using a single
// goroutine that owns the client set.
package hub

import "time"

// Message is one frame queued for every subscriber.
type Message struct {
	Data []byte
}

// NewJSONMessage creates a message from pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}

// TurnEvent is the JSON document published after every handled request.
type TurnEvent struct {
	Type      string    `json:"type"`
	Session   string    `json:"session,omitempty"`
	Result    string    `json:"result"`
	Input     string    `json:"input,omitempty"`
	Reply     string    `json:"reply"`
	Outcome   string    `json:"outcome,omitempty"`
	Tools     []string  `json:"tools,omitempty"`
	File      string    `json:"file,omitempty"`
	LatencyMs int64     `json:"latency_ms"`
	Time      time.Time `json:"time"`
}

// EventTurn is the TurnEvent type tag.
const EventTurn = "turn"

// Package dialogue holds the ordered turn history of one conversation and
// enforces its structural rules: a leading system message, tool results
// that answer earlier invocations, and a bounded persisted length.
package dialogue

import (
	"errors"
	"fmt"
)

// DefaultMaxLen is the number of messages kept when a turn is persisted.
const DefaultMaxLen = 10

// Errors returned by Append.
var (
	// ErrMissingSystem is returned when the first message is not a system message.
	ErrMissingSystem = errors.New("dialogue: first message must have role system")

	// ErrMissingInvocationID is returned for a tool result without an id.
	ErrMissingInvocationID = errors.New("dialogue: tool result requires an invocation id")

	// ErrOrphanToolResult is returned when a tool result answers no known invocation.
	ErrOrphanToolResult = errors.New("dialogue: tool result references unknown invocation")

	// ErrDuplicateSystem is returned for a system message after the first position.
	ErrDuplicateSystem = errors.New("dialogue: system message must be first")

	// ErrUnknownRole is returned for messages with an unrecognized role.
	ErrUnknownRole = errors.New("dialogue: unknown role")
)

// State is an ordered message history. A State is owned by one turn at a
// time and is not safe for concurrent mutation.
type State struct {
	messages []Message
	// invocations indexes invocation ids seen in assistant messages.
	invocations map[string]struct{}
}

// Initialize builds a State from prior messages.
//
// With no prior messages the State holds a single system message. Otherwise
// the system message is re-inserted when missing, and tool results whose
// invocation is no longer present are dropped.
func Initialize(systemPrompt string, prior []Message) *State {
	s := &State{invocations: make(map[string]struct{})}

	if len(prior) == 0 || prior[0].Role != RoleSystem {
		s.push(NewSystemMessage(systemPrompt))
	}

	for _, m := range prior {
		// Tool results orphaned by an earlier trim are dropped here.
		_ = s.Append(m)
	}
	return s
}

// Append adds msg to the end of the history.
func (s *State) Append(msg Message) error {
	if s.invocations == nil {
		s.invocations = make(map[string]struct{})
	}

	switch msg.Role {
	case RoleSystem:
		if len(s.messages) != 0 {
			return ErrDuplicateSystem
		}
	case RoleUser, RoleAssistant:
		if len(s.messages) == 0 {
			return ErrMissingSystem
		}
	case RoleTool:
		if len(s.messages) == 0 {
			return ErrMissingSystem
		}
		if msg.ToolInvocationID == "" {
			return ErrMissingInvocationID
		}
		if _, ok := s.invocations[msg.ToolInvocationID]; !ok {
			return fmt.Errorf("%w: %s", ErrOrphanToolResult, msg.ToolInvocationID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, msg.Role)
	}

	s.push(msg.clone())
	return nil
}

func (s *State) push(msg Message) {
	for _, inv := range msg.ToolInvocations {
		s.invocations[inv.ID] = struct{}{}
	}
	s.messages = append(s.messages, msg)
}

// Messages returns a copy of the history.
func (s *State) Messages() []Message {
	return CloneMessages(s.messages)
}

// Len returns the number of messages.
func (s *State) Len() int {
	return len(s.messages)
}

// Last returns the most recent message.
func (s *State) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1].clone(), true
}

// System returns the leading system message.
func (s *State) System() (Message, bool) {
	if len(s.messages) == 0 || s.messages[0].Role != RoleSystem {
		return Message{}, false
	}
	return s.messages[0].clone(), true
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := &State{
		messages:    CloneMessages(s.messages),
		invocations: make(map[string]struct{}, len(s.invocations)),
	}
	for id := range s.invocations {
		c.invocations[id] = struct{}{}
	}
	return c
}

// Trim keeps the most recent maxLen messages. When the leading system
// message falls outside that window it is kept anyway, so the result holds
// maxLen+1 messages. The receiver is not modified.
func (s *State) Trim(maxLen int) []Message {
	if maxLen < 1 {
		maxLen = DefaultMaxLen
	}
	if len(s.messages) <= maxLen {
		return s.Messages()
	}

	window := s.messages[len(s.messages)-maxLen:]
	if sys, ok := s.System(); ok && window[0].Role != RoleSystem {
		out := make([]Message, 0, maxLen+1)
		out = append(out, sys)
		return append(out, CloneMessages(window)...)
	}
	return CloneMessages(window)
}

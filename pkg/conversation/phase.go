package conversation

// Phase is a step of the turn state machine.
type Phase int

const (
	// PhaseAwaitingUserTurn is the initial phase.
	PhaseAwaitingUserTurn Phase = iota
	// PhaseRequestingCompletion is the first provider call, tools offered.
	PhaseRequestingCompletion
	// PhaseHasToolInvocations means the reply requested tools.
	PhaseHasToolInvocations
	// PhaseNoToolInvocations means the reply is the answer.
	PhaseNoToolInvocations
	// PhaseExecutingTools runs each invocation in order.
	PhaseExecutingTools
	// PhaseRequestingFinalCompletion is the follow-up call, no tools offered.
	PhaseRequestingFinalCompletion
	// PhaseTurnComplete is terminal.
	PhaseTurnComplete
)

// String returns a human-readable phase.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingUserTurn:
		return "awaiting_user_turn"
	case PhaseRequestingCompletion:
		return "requesting_completion"
	case PhaseHasToolInvocations:
		return "has_tool_invocations"
	case PhaseNoToolInvocations:
		return "no_tool_invocations"
	case PhaseExecutingTools:
		return "executing_tools"
	case PhaseRequestingFinalCompletion:
		return "requesting_final_completion"
	case PhaseTurnComplete:
		return "turn_complete"
	default:
		return "unknown"
	}
}

// Outcome classifies how a turn ended.
type Outcome int

const (
	// OutcomeAnswered means the provider produced a usable answer.
	OutcomeAnswered Outcome = iota
	// OutcomeRejected means the input was too short; no provider call was made.
	OutcomeRejected
	// OutcomeFallback means the answer was empty and the fallback apology was used.
	OutcomeFallback
	// OutcomeFailed means a provider or internal failure; the apology was used.
	OutcomeFailed
)

// String returns a human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAnswered:
		return "answered"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFallback:
		return "fallback"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

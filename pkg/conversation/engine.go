// Package conversation drives one user turn through the reasoning provider.
//
// A turn appends the user's text to the dialogue, asks the provider for a
// reply with the registered tools on offer, runs any requested tools in
// order, asks once more without tools, and shapes the final answer for
// speech. Every exit path produces a non-empty answer: provider failures
// and panics become a fixed apology and the dialogue is handed back with
// whatever was appended before the failure.
//
// Example usage:
//
//	engine := conversation.New(provider, registry,
//	    conversation.WithMaxWords(50),
//	)
//	state := dialogue.Initialize(prompt, prior)
//	result := engine.RunTurn(ctx, state, "abre youtube")
//	store.Put(ctx, key, result.State.Trim(dialogue.DefaultMaxLen))
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
	"github.com/JxsueMd16/mad-ia/pkg/inference"
	"github.com/JxsueMd16/mad-ia/pkg/tools"
)

// Engine runs turns. It holds no per-session state and is safe for
// concurrent use across sessions.
type Engine struct {
	provider inference.Provider
	registry *tools.Registry
	config   *Config
	logger   *slog.Logger
}

// ToolResult records one executed invocation.
type ToolResult struct {
	InvocationID string `json:"invocation_id"`
	Name         string `json:"name"`
	Content      string `json:"content"`
	// Failed is true when the call was rejected or the tool failed.
	Failed bool `json:"failed"`
}

// Result is the outcome of one turn.
type Result struct {
	// Text is the shaped answer. Never empty.
	Text string

	// State is the untrimmed dialogue after the turn.
	State *dialogue.State

	Outcome Outcome

	// Phase is the last phase reached.
	Phase Phase

	// Path lists every phase visited, in order.
	Path []Phase

	ToolResults []ToolResult

	// Calls counts provider requests made.
	Calls int

	// Err holds the provider failure, if any.
	Err error

	Latency time.Duration
}

// New creates an engine. registry may be nil, in which case no tools are
// offered.
func New(provider inference.Provider, registry *tools.Registry, opts ...Option) *Engine {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	return &Engine{
		provider: provider,
		registry: registry,
		config:   cfg,
		logger:   cfg.Logger.With("component", "conversation.engine"),
	}
}

// SystemPrompt returns the prompt used for fresh states.
func (e *Engine) SystemPrompt() string {
	return e.config.SystemPrompt
}

// NewState returns a dialogue seeded with the engine's system prompt.
func (e *Engine) NewState(prior []dialogue.Message) *dialogue.State {
	return dialogue.Initialize(e.config.SystemPrompt, prior)
}

// turn carries the mutable progress of one RunTurn call.
type turn struct {
	// id prefixes invocation ids the provider left blank, keeping them
	// unique across the stored history.
	id     string
	result Result
}

func (t *turn) enter(p Phase) {
	t.result.Phase = p
	t.result.Path = append(t.result.Path, p)
}

// RunTurn drives one turn. state is not modified; the updated dialogue is
// returned in Result.State. A nil state starts a fresh dialogue.
func (e *Engine) RunTurn(ctx context.Context, state *dialogue.State, userText string) (res Result) {
	start := time.Now()

	if state == nil {
		state = e.NewState(nil)
	} else {
		state = state.Clone()
	}

	t := &turn{id: uuid.NewString(), result: Result{State: state}}
	t.enter(PhaseAwaitingUserTurn)

	defer func() {
		if p := recover(); p != nil {
			e.logger.Error("turn panicked",
				"panic", p,
				"phase", t.result.Phase.String(),
				"stack", string(debug.Stack()),
			)
			t.result.Text = e.config.Replies.ProviderApology
			t.result.Outcome = OutcomeFailed
			t.result.Err = fmt.Errorf("conversation: panic in %s: %v", t.result.Phase, p)
		}
		t.result.Latency = time.Since(start)
		res = t.result
	}()

	text := strings.TrimSpace(userText)
	if utf8.RuneCountInString(text) < MinUserTextLength {
		t.result.Text = e.config.Replies.Clarification
		t.result.Outcome = OutcomeRejected
		return
	}

	if err := state.Append(dialogue.NewUserMessage(text)); err != nil {
		// Only possible with a corrupted state.
		e.fail(t, err)
		return
	}

	t.enter(PhaseRequestingCompletion)
	reply, err := e.chat(ctx, t, state, e.declarations())
	if err != nil {
		e.fail(t, err)
		return
	}

	answer := reply.Content
	if reply.HasToolInvocations() {
		t.enter(PhaseHasToolInvocations)
		t.enter(PhaseExecutingTools)
		e.executeTools(ctx, t, state, reply.ToolInvocations)

		t.enter(PhaseRequestingFinalCompletion)
		final, err := e.chat(ctx, t, state, nil)
		if err != nil {
			e.fail(t, err)
			return
		}
		answer = final.Content
	} else {
		t.enter(PhaseNoToolInvocations)
	}

	t.result.Text = e.config.Shaper.Shape(answer)
	t.result.Outcome = OutcomeAnswered
	if strings.TrimSpace(t.result.Text) == "" {
		t.result.Text = e.config.Replies.FallbackApology
		t.result.Outcome = OutcomeFallback
	}
	t.enter(PhaseTurnComplete)

	e.logger.Debug("turn complete",
		"outcome", t.result.Outcome.String(),
		"calls", t.result.Calls,
		"tools", len(t.result.ToolResults),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return
}

// chat makes one bounded provider call and appends the reply verbatim.
func (e *Engine) chat(ctx context.Context, t *turn, state *dialogue.State, offered []inference.Tool) (dialogue.Message, error) {
	if e.provider == nil {
		return dialogue.Message{}, inference.ErrProviderUnavailable
	}

	callCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	t.result.Calls++
	resp, err := e.provider.Chat(callCtx, &inference.ChatRequest{
		Messages: state.Messages(),
		Tools:    offered,
		Sampling: e.config.Sampling,
	})
	if err != nil {
		return dialogue.Message{}, err
	}
	if resp == nil {
		return dialogue.Message{}, inference.ErrEmptyResponse
	}

	msg := resp.Message
	msg.Role = dialogue.RoleAssistant
	msg.ToolInvocationID = ""
	if len(offered) == 0 {
		// Invocations cannot be honoured once tools are withdrawn.
		msg.ToolInvocations = nil
	}
	for i := range msg.ToolInvocations {
		if msg.ToolInvocations[i].ID == "" {
			msg.ToolInvocations[i].ID = fmt.Sprintf("call_%s_%d_%d", t.id, t.result.Calls, i)
		}
	}

	if err := state.Append(msg); err != nil {
		return dialogue.Message{}, err
	}
	return msg, nil
}

// executeTools answers every invocation, in order, with one tool result.
func (e *Engine) executeTools(ctx context.Context, t *turn, state *dialogue.State, invocations []dialogue.ToolInvocation) {
	for _, inv := range invocations {
		content, failed := e.execute(ctx, inv)
		if strings.TrimSpace(content) == "" {
			content = e.config.Replies.EmptyToolResult
		}

		if err := state.Append(dialogue.NewToolResultMessage(inv.ID, content)); err != nil {
			// The invocation was appended just before, so this is unreachable
			// unless ids collide; keep going so the rest are answered.
			e.logger.Error("append tool result", "tool", inv.Name, "error", err)
		}
		t.result.ToolResults = append(t.result.ToolResults, ToolResult{
			InvocationID: inv.ID,
			Name:         inv.Name,
			Content:      content,
			Failed:       failed,
		})
	}
}

func (e *Engine) execute(ctx context.Context, inv dialogue.ToolInvocation) (string, bool) {
	if e.registry == nil {
		return tools.FailureText(&tools.ToolError{Tool: inv.Name, Err: tools.ErrUnknownTool}), true
	}

	content, err := e.registry.Execute(ctx, inv.Name, inv.Arguments)
	if err != nil {
		e.logger.Warn("tool call rejected",
			"tool", inv.Name,
			"error", err,
		)
		return tools.FailureText(err), true
	}
	return content, strings.HasPrefix(content, tools.FailurePrefix)
}

func (e *Engine) declarations() []inference.Tool {
	if e.registry == nil {
		return nil
	}
	return lo.Map(e.registry.Declarations(), func(d tools.Declaration, _ int) inference.Tool {
		return inference.NewTool(d.Name, d.Description, d.Parameters, d.Required...)
	})
}

func (e *Engine) fail(t *turn, err error) {
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelInfo
	}
	e.logger.Log(context.Background(), level, "turn failed",
		"phase", t.result.Phase.String(),
		"error", err,
	)
	t.result.Text = e.config.Replies.ProviderApology
	t.result.Outcome = OutcomeFailed
	t.result.Err = err
}

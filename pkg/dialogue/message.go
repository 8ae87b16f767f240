package dialogue

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolInvocation is a provider request to run a registered tool.
type ToolInvocation struct {
	// ID is the provider's correlation token.
	ID string `json:"id"`

	// Name must match a tool in the registry.
	Name string `json:"name"`

	// Arguments is the raw JSON argument payload.
	Arguments string `json:"arguments"`
}

// Message is one entry of a dialogue.
type Message struct {
	Role Role `json:"role"`

	// Content may be empty when an assistant message only carries invocations.
	Content string `json:"content,omitempty"`

	// ToolInvocations is set on assistant messages that request tools.
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty"`

	// ToolInvocationID is set on tool-result messages.
	ToolInvocationID string `json:"tool_invocation_id,omitempty"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message without invocations.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolResultMessage creates the reply to one tool invocation.
func NewToolResultMessage(invocationID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolInvocationID: invocationID}
}

// HasToolInvocations reports whether the message requests tool use.
func (m Message) HasToolInvocations() bool {
	return len(m.ToolInvocations) > 0
}

// clone returns a deep copy of m.
func (m Message) clone() Message {
	if m.ToolInvocations != nil {
		inv := make([]ToolInvocation, len(m.ToolInvocations))
		copy(inv, m.ToolInvocations)
		m.ToolInvocations = inv
	}
	return m
}

// CloneMessages deep-copies a message slice.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}

// DefaultSystemPrompt is the assistant persona used when none is configured.
const DefaultSystemPrompt = "Eres un robot que sabe que es un robot, eres sarcastico pero amigable. " +
	"No uses emojis en tus respuestas. Evita símbolos como 🎵, 😂, 😄, etc. " +
	"Responde con texto natural corto."

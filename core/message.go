package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	// RoleSystem carries the agent's standing instructions.
	RoleSystem Role = "system"
	// RoleUser carries caller input.
	RoleUser Role = "user"
	// RoleAssistant carries model output, including tool-call requests.
	RoleAssistant Role = "assistant"
	// RoleTool carries the result of a previously requested tool call.
	RoleTool Role = "tool"
)

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// ToolCall is a function invocation requested by the model. Arguments is the
// serialized (JSON) argument payload exactly as the provider returned it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Message is a single conversation turn. Messages are immutable once created
// and are only ever appended to a Conversation.
type Message struct {
	ID         string     `json:"id"`
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewID generates a new unique identifier for messages, conversations, runs
// and tasks.
func NewID() string { return uuid.NewString() }

func newMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message { return newMessage(RoleSystem, content) }

// UserMessage creates a user message.
func UserMessage(content string) Message { return newMessage(RoleUser, content) }

// AssistantMessage creates a plain-text assistant message.
func AssistantMessage(content string) Message { return newMessage(RoleAssistant, content) }

// AssistantToolCallMessage creates an assistant message that requests the
// given tool calls and carries no text content.
func AssistantToolCallMessage(calls ...ToolCall) Message {
	m := newMessage(RoleAssistant, "")
	m.ToolCalls = calls
	return m
}

// ToolMessage creates a tool-result message correlated to a prior tool call.
func ToolMessage(content, toolCallID string) Message {
	m := newMessage(RoleTool, content)
	m.ToolCallID = toolCallID
	return m
}

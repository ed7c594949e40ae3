package model

import (
	"context"

	"github.com/reasonalabs/reasona/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions,omitempty"` // System prompt, prepended to Messages
	Messages     []core.Message   `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Temperature  float64          `json:"temperature,omitempty"` // Overrides the adapter default when > 0
	MaxTokens    int64            `json:"max_tokens,omitempty"`  // Overrides the adapter default when > 0
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final assistant turn returned by a completion. Either
// Content, ToolCalls, or both may be populated.
type Response struct {
	Content      string          `json:"content"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	// Complete performs a blocking completion and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream performs a streaming completion, delivering text fragments on
	// the first channel. Tool calls are not surfaced on the streaming path.
	Stream(ctx context.Context, req Request) (<-chan string, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

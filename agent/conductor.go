package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/reasonalabs/reasona/config"
	"github.com/reasonalabs/reasona/core"
	"github.com/reasonalabs/reasona/logging"
	"github.com/reasonalabs/reasona/model"
	"github.com/reasonalabs/reasona/tool"
)

// DefaultModelID is used when neither a Model nor a ModelID is configured.
const DefaultModelID = "openai/gpt-4o-mini"

// DefaultMaxToolRounds bounds the tool-invocation loop of a single think
// cycle. A model that keeps requesting tools past this limit aborts the
// cycle with ErrToolLoopExceeded.
const DefaultMaxToolRounds = 10

var (
	// ErrToolLoopExceeded is returned when a think cycle requests more tool
	// rounds than the configured maximum.
	ErrToolLoopExceeded = errors.New("tool invocation rounds exceeded")

	// ErrToolNotFound is returned when the model requests a tool the agent
	// does not carry.
	ErrToolNotFound = errors.New("tool not found")
)

// Options configures a Conductor instance.
//
// Use functional options with New to override defaults.
type Options struct {
	// Model is the language model driving the agent. When nil, ModelID is
	// resolved against Config instead.
	Model model.Model

	// ModelID selects a model as "provider/name" (e.g. "openai/gpt-4o-mini",
	// "anthropic/claude-3-5-sonnet-20241022"). Ignored when Model is set.
	ModelID string

	// Instructions is the system prompt defining the agent's behavior.
	Instructions string

	// Tools the agent may invoke during a think cycle, in lookup order.
	Tools []tool.Tool

	// Temperature and MaxTokens are forwarded to every completion.
	Temperature float64
	MaxTokens   int64

	// MaxToolRounds bounds the tool loop per think cycle.
	MaxToolRounds int

	// Config supplies provider credentials for ModelID resolution.
	// Defaults to config.Default().
	Config *config.Config

	Logger logging.Logger
}

// Conductor orchestrates a single agent's behavior: it assembles prompts
// from the conversation history, drives model completions, and executes the
// bounded tool-invocation loop.
//
// A Conductor owns one Conversation. Think cycles are serialized by an
// internal mutex, so a Conductor is safe for concurrent use; overlapping
// calls simply queue.
type Conductor struct {
	name          string
	instructions  string
	llm           model.Model
	tools         []tool.Tool
	temperature   float64
	maxTokens     int64
	maxToolRounds int
	conversation  *core.Conversation
	logger        logging.Logger

	mu sync.Mutex // serializes think cycles
}

// New creates a Conductor with sensible defaults: the default model,
// a generic assistant system prompt, no tools, temperature 0.7 and a
// ten-round tool loop limit.
func New(name string, optFns ...func(o *Options)) (*Conductor, error) {
	opts := Options{
		ModelID:       DefaultModelID,
		Instructions:  fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		Temperature:   0.7,
		MaxTokens:     4096,
		MaxToolRounds: DefaultMaxToolRounds,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	llm := opts.Model
	if llm == nil {
		cfg := opts.Config
		if cfg == nil {
			cfg = config.Default()
		}
		resolved, err := ResolveModel(opts.ModelID, cfg)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", name, err)
		}
		llm = resolved
	}

	return &Conductor{
		name:          name,
		instructions:  opts.Instructions,
		llm:           llm,
		tools:         append([]tool.Tool(nil), opts.Tools...),
		temperature:   opts.Temperature,
		maxTokens:     opts.MaxTokens,
		maxToolRounds: opts.MaxToolRounds,
		conversation:  core.NewConversation(),
		logger:        opts.Logger,
	}, nil
}

// Name returns the agent's name.
func (c *Conductor) Name() string { return c.name }

// Instructions returns the agent's system prompt.
func (c *Conductor) Instructions() string { return c.instructions }

// Model returns the underlying language model.
func (c *Conductor) Model() model.Model { return c.llm }

// Tools returns a copy of the agent's tool list in lookup order.
func (c *Conductor) Tools() []tool.Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]tool.Tool(nil), c.tools...)
}

// AddTool appends a tool to the agent's capability set. Returns the
// Conductor for chaining.
func (c *Conductor) AddTool(t tool.Tool) *Conductor {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = append(c.tools, t)
	return c
}

// History returns a copy of the persisted conversation.
func (c *Conductor) History() []core.Message {
	c.mu.Lock()
	conv := c.conversation
	c.mu.Unlock()
	return conv.Messages()
}

// Reset discards the conversation history and starts a fresh conversation.
func (c *Conductor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversation = core.NewConversation()
	c.logger.Debug("agent.reset", "agent", c.name)
}

// Think runs one full reasoning cycle: the input is appended to the prompt,
// the model is consulted, requested tools are executed (feeding results back
// to the model) until the model produces a plain answer or the round limit
// is hit.
//
// On success exactly two messages are persisted to the conversation: the
// user input and the final assistant answer. Intermediate tool traffic stays
// in the prompt of the cycle that produced it.
func (c *Conductor) Think(ctx context.Context, input string) (string, error) {
	return c.ThinkWithRuntime(ctx, input, core.RuntimeContext{})
}

// ThinkWithRuntime runs a think cycle with per-call runtime overrides. A zero
// RuntimeContext behaves exactly like Think; a non-zero Timeout bounds the
// cycle, MaxIterations overrides the tool-round cap and DisableTools withholds
// the tool definitions from the model for this cycle only.
func (c *Conductor) ThinkWithRuntime(ctx context.Context, input string, rt core.RuntimeContext) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.Timeout)
		defer cancel()
	}

	maxRounds := c.maxToolRounds
	if rt.MaxIterations > 0 {
		maxRounds = rt.MaxIterations
	}
	var tools []model.ToolDefinition
	if !rt.DisableTools {
		tools = c.toolDefinitions()
	}

	if rt.Debug {
		c.logger.Debug("agent.think.runtime", "agent", c.name,
			"max_rounds", maxRounds, "tools_disabled", rt.DisableTools, "timeout", rt.Timeout.String())
	}
	c.logger.Debug("agent.think.start", "agent", c.name, "input_len", len(input))

	userMsg := core.UserMessage(input)
	messages := append(c.conversation.Messages(), userMsg)

	resp, err := c.complete(ctx, messages, tools)
	if err != nil {
		return "", err
	}

	rounds := 0
	for len(resp.ToolCalls) > 0 {
		rounds++
		if rounds > maxRounds {
			c.logger.Error("agent.tool.loop_exceeded", "agent", c.name, "rounds", rounds)
			return "", fmt.Errorf("agent %q: %w (max %d)", c.name, ErrToolLoopExceeded, maxRounds)
		}

		assistantMsg := core.AssistantToolCallMessage(resp.ToolCalls...)
		assistantMsg.Content = resp.Content
		messages = append(messages, assistantMsg)

		for _, call := range resp.ToolCalls {
			content, err := c.executeToolCall(ctx, call)
			if err != nil {
				if errors.Is(err, ErrToolNotFound) {
					c.logger.Error("agent.tool.not_found", "agent", c.name, "tool", call.Name)
					return "", err
				}
				// Execution failures go back to the model so it can recover.
				c.logger.Warn("agent.tool.error", "agent", c.name, "tool", call.Name, "error", err.Error())
				content = fmt.Sprintf("Error: %s", err)
			} else {
				c.logger.Debug("agent.tool.executed", "agent", c.name, "tool", call.Name)
			}
			messages = append(messages, core.ToolMessage(content, call.ID))
		}

		resp, err = c.complete(ctx, messages, tools)
		if err != nil {
			return "", err
		}
	}

	c.conversation.Add(userMsg, core.AssistantMessage(resp.Content))
	c.logger.Info("agent.think.complete", "agent", c.name, "tool_rounds", rounds)

	return resp.Content, nil
}

// Stream runs a think cycle on the streaming path, forwarding text fragments
// as they arrive. Tool calls are not handled when streaming; agents that
// rely on tools should use Think.
//
// The user input and the concatenated assistant answer are persisted once
// the stream is exhausted without error.
func (c *Conductor) Stream(ctx context.Context, input string) (<-chan string, <-chan error) {
	out := make(chan string, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		c.mu.Lock()
		defer c.mu.Unlock()

		c.logger.Debug("agent.stream.start", "agent", c.name, "input_len", len(input))

		userMsg := core.UserMessage(input)
		messages := append(c.conversation.Messages(), userMsg)

		fragments, errs := c.llm.Stream(ctx, model.Request{
			Instructions: c.instructions,
			Messages:     messages,
			Temperature:  c.temperature,
			MaxTokens:    c.maxTokens,
		})

		var sb strings.Builder
		for fragment := range fragments {
			sb.WriteString(fragment)
			select {
			case out <- fragment:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if err := <-errs; err != nil {
			c.logger.Error("agent.stream.error", "agent", c.name, "error", err.Error())
			errCh <- err
			return
		}

		c.conversation.Add(userMsg, core.AssistantMessage(sb.String()))
		c.logger.Info("agent.stream.complete", "agent", c.name, "output_len", sb.Len())
	}()
	return out, errCh
}

// complete issues one model completion over the in-flight message list.
func (c *Conductor) complete(ctx context.Context, messages []core.Message, tools []model.ToolDefinition) (*model.Response, error) {
	resp, err := c.llm.Complete(ctx, model.Request{
		Instructions: c.instructions,
		Messages:     messages,
		Tools:        tools,
		Temperature:  c.temperature,
		MaxTokens:    c.maxTokens,
	})
	if err != nil {
		c.logger.Error("agent.model.error", "agent", c.name, "error", err.Error())
		return nil, fmt.Errorf("agent %q: model completion failed: %w", c.name, err)
	}
	return resp, nil
}

// executeToolCall resolves and invokes a single requested tool call,
// returning the stringified result.
func (c *Conductor) executeToolCall(ctx context.Context, call core.ToolCall) (string, error) {
	var target tool.Tool
	for _, t := range c.tools {
		if t.Name() == call.Name {
			target = t
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("%w: %q", ErrToolNotFound, call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if parsed, ok := gjson.Parse(call.Arguments).Value().(map[string]any); ok {
			args = parsed
		}
	}

	result, err := target.Invoke(ctx, args)
	if err != nil {
		return "", err
	}
	return stringifyResult(result), nil
}

// toolDefinitions exposes the agent's tools in the model wire format.
func (c *Conductor) toolDefinitions() []model.ToolDefinition {
	if len(c.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(c.tools))
	for i, t := range c.tools {
		defs[i] = model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}
	return defs
}

// stringifyResult renders a tool result for the model: strings pass through,
// everything else is JSON encoded.
func stringifyResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(data)
}

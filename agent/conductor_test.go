package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reasonalabs/reasona/config"
	"github.com/reasonalabs/reasona/core"
	"github.com/reasonalabs/reasona/model"
	"github.com/reasonalabs/reasona/tool"
)

func newTestConductor(t *testing.T, mock *model.MockModel, optFns ...func(o *Options)) *Conductor {
	t.Helper()
	c, err := New("Tester", append([]func(o *Options){func(o *Options) {
		o.Model = mock
	}}, optFns...)...)
	require.NoError(t, err)
	return c
}

func TestConductorThink(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)

	answer, err := c.Think(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", answer)

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, core.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, core.RoleAssistant, history[1].Role)
	assert.Equal(t, answer, history[1].Content)
}

func TestConductorThinkKeepsHistory(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)

	_, err := c.Think(context.Background(), "first")
	require.NoError(t, err)
	_, err = c.Think(context.Background(), "second")
	require.NoError(t, err)

	assert.Len(t, c.History(), 4)

	// The second cycle saw the first exchange in its prompt.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].Messages, 3)
}

func TestConductorToolLoop(t *testing.T) {
	mock := model.NewMockModel("m")
	mock.EnqueueResponse(&model.Response{
		ToolCalls: []core.ToolCall{
			{ID: "call_1", Name: "calculator", Arguments: `{"expression":"2+3"}`},
		},
		FinishReason: "tool_calls",
	})
	mock.EnqueueResponse(&model.Response{Content: "The answer is 5", FinishReason: "stop"})

	c := newTestConductor(t, mock, func(o *Options) {
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})

	answer, err := c.Think(context.Background(), "What is 2+3?")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 5", answer)

	// Tool traffic is not persisted; only the user input and final answer.
	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "What is 2+3?", history[0].Content)
	assert.Equal(t, "The answer is 5", history[1].Content)

	// The second completion saw the tool result in its prompt.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	var toolMsg *core.Message
	for i := range reqs[1].Messages {
		if reqs[1].Messages[i].Role == core.RoleTool {
			toolMsg = &reqs[1].Messages[i]
		}
	}
	require.NotNil(t, toolMsg)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Contains(t, toolMsg.Content, "5")
}

func TestConductorToolNotFound(t *testing.T) {
	mock := model.NewMockModel("m")
	mock.EnqueueResponse(&model.Response{
		ToolCalls:    []core.ToolCall{{ID: "call_1", Name: "missing_tool", Arguments: "{}"}},
		FinishReason: "tool_calls",
	})

	c := newTestConductor(t, mock)

	_, err := c.Think(context.Background(), "go")
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.Empty(t, c.History())
}

func TestConductorToolLoopExceeded(t *testing.T) {
	mock := model.NewMockModel("m")
	for i := 0; i < 4; i++ {
		mock.EnqueueResponse(&model.Response{
			ToolCalls:    []core.ToolCall{{ID: "call", Name: "calculator", Arguments: `{"expression":"1"}`}},
			FinishReason: "tool_calls",
		})
	}

	c := newTestConductor(t, mock, func(o *Options) {
		o.Tools = []tool.Tool{tool.NewCalculator()}
		o.MaxToolRounds = 2
	})

	_, err := c.Think(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrToolLoopExceeded)
}

func TestConductorToolErrorFedBack(t *testing.T) {
	mock := model.NewMockModel("m")
	mock.EnqueueResponse(&model.Response{
		ToolCalls:    []core.ToolCall{{ID: "call_1", Name: "calculator", Arguments: `{"expression":"1/0"}`}},
		FinishReason: "tool_calls",
	})
	mock.EnqueueResponse(&model.Response{Content: "Cannot divide by zero.", FinishReason: "stop"})

	c := newTestConductor(t, mock, func(o *Options) {
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})

	answer, err := c.Think(context.Background(), "compute 1/0")
	require.NoError(t, err)
	assert.Equal(t, "Cannot divide by zero.", answer)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Contains(t, last.Content, "Error:")
}

func TestConductorReset(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)

	_, err := c.Think(context.Background(), "hello")
	require.NoError(t, err)
	require.NotEmpty(t, c.History())

	c.Reset()
	assert.Empty(t, c.History())

	// Reset is idempotent.
	c.Reset()
	assert.Empty(t, c.History())

	_, err = c.Think(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, c.History(), 2)
}

func TestThinkWithRuntimeDisableTools(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock, func(o *Options) {
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})

	_, err := c.Think(context.Background(), "hello")
	require.NoError(t, err)

	_, err = c.ThinkWithRuntime(context.Background(), "hello again", core.RuntimeContext{
		DisableTools: true,
	})
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[0].Tools, 1)
	assert.Empty(t, reqs[1].Tools)
}

func TestThinkWithRuntimeMaxIterations(t *testing.T) {
	mock := model.NewMockModel("m")
	for i := 0; i < 3; i++ {
		mock.EnqueueResponse(&model.Response{
			ToolCalls:    []core.ToolCall{{ID: "call", Name: "calculator", Arguments: `{"expression":"1"}`}},
			FinishReason: "tool_calls",
		})
	}

	c := newTestConductor(t, mock, func(o *Options) {
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})

	_, err := c.ThinkWithRuntime(context.Background(), "loop", core.RuntimeContext{MaxIterations: 1})
	assert.ErrorIs(t, err, ErrToolLoopExceeded)
	assert.ErrorContains(t, err, "max 1")
}

func TestHistoryConcurrentWithReset(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)

	_, err := c.Think(context.Background(), "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.History()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Reset()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, c.History())
}

func TestConductorStream(t *testing.T) {
	mock := model.NewMockModel("m")
	mock.AddResponse("story", "Once upon a time")
	c := newTestConductor(t, mock)

	out, errCh := c.Stream(context.Background(), "tell me a story")

	var sb strings.Builder
	for fragment := range out {
		sb.WriteString(fragment)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, "Once upon a time", sb.String())

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, "Once upon a time", history[1].Content)
}

func TestConductorAddTool(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)
	assert.Empty(t, c.Tools())

	c.AddTool(tool.NewCalculator()).AddTool(tool.NewDateTime())

	tools := c.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "calculator", tools[0].Name())
	assert.Equal(t, "datetime", tools[1].Name())
}

func TestConductorCard(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock, func(o *Options) {
		o.Instructions = strings.Repeat("You are thorough. ", 20)
		o.Tools = []tool.Tool{tool.NewCalculator()}
	})

	card := c.Card()
	assert.Equal(t, "Tester", card.Name)
	assert.Len(t, card.Description, 200)
	assert.Equal(t, "1.0.0", card.Version)
	assert.Equal(t, []string{"reasoning", "tool_use", "streaming"}, card.Capabilities)
	assert.Equal(t, []string{"calculator"}, card.Skills)
	assert.Equal(t, []string{"synaptic/1.0", "jsonrpc/2.0"}, card.Protocols)
}

func TestConductorCardWithoutTools(t *testing.T) {
	mock := model.NewMockModel("m")
	c := newTestConductor(t, mock)

	card := c.Card()
	assert.Equal(t, []string{"reasoning", "streaming"}, card.Capabilities)
	assert.Empty(t, card.Skills)
}

func TestFromMarkdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "researcher.md")
	content := `---
name: researcher
model: mock/test-model
temperature: 0.2
max_tokens: 1024
---

You are a meticulous researcher.`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := FromMarkdown(path)
	require.NoError(t, err)

	assert.Equal(t, "researcher", c.Name())
	assert.Equal(t, "You are a meticulous researcher.", c.Instructions())
	assert.Equal(t, "mock", c.Model().Info().Provider)
}

func TestFromMarkdownWithoutFrontmatter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.md")
	require.NoError(t, os.WriteFile(path, []byte("Just instructions."), 0o600))

	mock := model.NewMockModel("m")
	c, err := FromMarkdown(path, func(o *Options) { o.Model = mock })
	require.NoError(t, err)

	assert.Equal(t, "plain", c.Name())
	assert.Equal(t, "Just instructions.", c.Instructions())
}

func TestResolveModel(t *testing.T) {
	cfg := config.New()

	m, err := ResolveModel("mock/test", cfg)
	require.NoError(t, err)
	assert.Equal(t, "mock", m.Info().Provider)

	m, err = ResolveModel("openai/gpt-4o-mini", cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Info().Provider)
	assert.Equal(t, "gpt-4o-mini", m.Info().Name)

	m, err = ResolveModel("anthropic/claude-3-5-sonnet-20241022", cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)

	_, err = ResolveModel("mistral/large", cfg)
	assert.ErrorContains(t, err, `unknown model provider "mistral"`)

	_, err = ResolveModel("gpt-4o-mini", cfg)
	assert.ErrorContains(t, err, "invalid model id")
}

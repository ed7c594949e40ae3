package synapse

import (
	"context"
	"fmt"

	"github.com/reasonalabs/reasona/tool"
)

// NewDelegateTool exposes the network's Delegate operation as a tool, so a
// connected agent can hand work to a named peer from inside its own
// tool-invocation loop.
func NewDelegateTool(s *Synapse) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"delegate_task",
		"Delegate a task to another connected agent and return its response",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"agent": map[string]any{"type": "string", "description": "Name of the agent to delegate to"},
				"task":  map[string]any{"type": "string", "description": "Task description for the agent"},
			},
			"required": []string{"agent", "task"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			agentName, _ := args["agent"].(string)
			task, _ := args["task"].(string)

			response, err := s.Delegate(ctx, agentName, task, nil)
			if err != nil {
				return nil, fmt.Errorf("delegation failed: %w", err)
			}
			return response, nil
		},
	)
}

package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/reasonalabs/reasona/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
//
// Responses are resolved in two tiers: scripted responses enqueued with
// EnqueueResponse are consumed first, in order; otherwise the prompt is
// matched against substrings registered with AddResponse. When nothing
// matches, a generic echo response is produced.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	queue     []*Response
	requests  []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      "mock",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion returned whenever the prompt
// contains match.
func (m *MockModel) AddResponse(match, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[match] = response
}

// EnqueueResponse appends a scripted response consumed before any
// substring-matched response. Useful for scripting tool call turns.
func (m *MockModel) EnqueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return resp, nil
	}

	prompt := lastText(req)
	for match, response := range m.responses {
		if strings.Contains(prompt, match) {
			return &Response{Content: response, FinishReason: "stop"}, nil
		}
	}
	return &Response{
		Content:      fmt.Sprintf("Mock response to: %s", prompt),
		FinishReason: "stop",
	}, nil
}

// Stream implements Model; the resolved completion is emitted word by word.
func (m *MockModel) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	out := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := m.Complete(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		words := strings.SplitAfter(resp.Content, " ")
		for _, w := range words {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- w:
			}
		}
	}()
	return out, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// lastText returns the content of the most recent non-tool message, falling
// back to the most recent message of any role.
func lastText(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role != core.RoleTool {
			return req.Messages[i].Content
		}
	}
	if len(req.Messages) > 0 {
		return req.Messages[len(req.Messages)-1].Content
	}
	return ""
}

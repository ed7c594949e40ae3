package synapse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/reasonalabs/reasona/logging"
)

// Agent is the capability Synapse needs from a connected peer. Satisfied by
// *agent.Conductor.
type Agent interface {
	Name() string
	Think(ctx context.Context, input string) (string, error)
}

// Connection records one agent's registration in the network.
type Connection struct {
	Name         string
	Agent        Agent
	Capabilities []string
	ConnectedAt  time.Time
}

// Options configures a Synapse network.
type Options struct {
	Logger logging.Logger
}

// Synapse manages agent-to-agent communication for a named network of
// connected agents. All methods are safe for concurrent use.
type Synapse struct {
	name   string
	logger logging.Logger

	mu    sync.RWMutex
	conns map[string]*Connection
	order []string // connect order, drives broadcast and orchestration
	tasks map[string]*Task
}

// New creates an empty Synapse network.
func New(name string, optFns ...func(o *Options)) *Synapse {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Synapse{
		name:   name,
		logger: opts.Logger,
		conns:  make(map[string]*Connection),
		tasks:  make(map[string]*Task),
	}
}

// Name returns the network name.
func (s *Synapse) Name() string { return s.name }

// Connect registers an agent by name. Connecting a name twice replaces the
// previous registration (last writer wins) without changing its position in
// the connect order. Returns the Synapse for chaining.
func (s *Synapse) Connect(a Agent, capabilities ...string) *Synapse {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := a.Name()
	if _, exists := s.conns[name]; !exists {
		s.order = append(s.order, name)
	}
	s.conns[name] = &Connection{
		Name:         name,
		Agent:        a,
		Capabilities: capabilities,
		ConnectedAt:  time.Now().UTC(),
	}

	s.logger.Info("synapse.connect", "network", s.name, "agent", name)
	return s
}

// Disconnect removes an agent by name. Unknown names are a no-op.
func (s *Synapse) Disconnect(name string) *Synapse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conns[name]; !exists {
		return s
	}
	delete(s.conns, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	s.logger.Info("synapse.disconnect", "network", s.name, "agent", name)
	return s
}

// Agent returns a connected agent by name.
func (s *Synapse) Agent(name string) (Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[name]
	if !ok {
		return nil, false
	}
	return conn.Agent, true
}

// Agents returns the connected agent names in connect order.
func (s *Synapse) Agents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Delegate sends one task to one named agent and returns its answer. Extra
// context entries, when present, are JSON encoded into the prompt ahead of
// the task.
func (s *Synapse) Delegate(ctx context.Context, agentName, task string, taskCtx map[string]any) (string, error) {
	target, ok := s.Agent(agentName)
	if !ok {
		return "", fmt.Errorf("agent %q not connected", agentName)
	}

	prompt := task
	if len(taskCtx) > 0 {
		encoded, err := json.Marshal(taskCtx)
		if err != nil {
			return "", fmt.Errorf("encode delegation context: %w", err)
		}
		prompt = fmt.Sprintf("Context: %s\n\nTask: %s", encoded, task)
	}

	s.logger.Debug("synapse.delegate", "network", s.name, "agent", agentName)
	response, err := target.Think(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("delegate to %q: %w", agentName, err)
	}
	return response, nil
}

// Broadcast delivers a payload to every connected agent except the source
// and the excluded names, in connect order. Each delivery goes straight to
// the agent's think operation; a failed delivery yields an error envelope
// instead of aborting the remaining ones. The sent envelopes are returned
// in delivery order.
func (s *Synapse) Broadcast(ctx context.Context, payload map[string]any, source string, exclude ...string) []*SynapticMessage {
	excluded := map[string]bool{source: true}
	for _, name := range exclude {
		excluded[name] = true
	}

	s.mu.RLock()
	targets := make([]*Connection, 0, len(s.order))
	for _, name := range s.order {
		if !excluded[name] {
			targets = append(targets, s.conns[name])
		}
	}
	s.mu.RUnlock()

	prompt := broadcastPrompt(payload)

	var messages []*SynapticMessage
	for _, conn := range targets {
		msg := NewMessage(MessageNotification, source, conn.Name, payload)
		if _, err := conn.Agent.Think(ctx, prompt); err != nil {
			s.logger.Warn("synapse.broadcast.error", "network", s.name, "agent", conn.Name, "error", err.Error())
			errMsg := NewMessage(MessageError, source, conn.Name, map[string]any{"error": err.Error()})
			errMsg.CorrelationID = msg.ID
			messages = append(messages, errMsg)
			continue
		}
		s.logger.Debug("synapse.broadcast", "network", s.name, "source", source, "target", conn.Name)
		messages = append(messages, msg)
	}
	return messages
}

// broadcastPrompt renders a payload for delivery: a plain "message" entry
// passes through as-is, anything else is JSON encoded.
func broadcastPrompt(payload map[string]any) string {
	if msg, ok := payload["message"].(string); ok && len(payload) == 1 {
		return msg
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(encoded)
}

// OrchestrateOptions configure one orchestration call.
type OrchestrateOptions struct {
	// Lead coordinates the task: it plans first and synthesizes last.
	// Defaults to the first participant.
	Lead Agent

	// Participants restricts the collaboration to the named agents; unknown
	// names are ignored. Defaults to every connected agent.
	Participants []string

	// MaxRounds bounds the contribution rounds between plan and synthesis.
	MaxRounds int
}

// Orchestrate runs a collaborative task: the lead agent produces a plan,
// participants contribute for up to MaxRounds rounds (each seeing the
// accumulated context), and the lead closes with a synthesis. Every step is
// appended to the Task's artifact list in strict order.
//
// The returned Task is always registered, even on failure; a failed
// orchestration marks it failed and returns the error as well.
func (s *Synapse) Orchestrate(ctx context.Context, task string, optFns ...func(o *OrchestrateOptions)) (*Task, error) {
	opts := OrchestrateOptions{MaxRounds: 5}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := NewTask(task)
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	t.Status = TaskRunning

	conns := s.participants(opts.Participants)

	lead := opts.Lead
	if lead == nil && len(conns) > 0 {
		lead = conns[0].Agent
	}
	if lead == nil {
		return s.failTask(t, fmt.Errorf("no agents available for orchestration"))
	}

	agentNames := make([]string, len(conns))
	for i, conn := range conns {
		agentNames[i] = conn.Name
	}

	s.logger.Info("synapse.orchestrate.start", "network", s.name, "task_id", t.ID,
		"lead", lead.Name(), "participants", strings.Join(agentNames, ","))

	plan, err := lead.Think(ctx, planPrompt(task, agentNames))
	if err != nil {
		return s.failTask(t, fmt.Errorf("lead plan failed: %w", err))
	}
	t.Artifacts = append(t.Artifacts, Artifact{Type: "plan", Agent: lead.Name(), Content: plan})

	currentContext := plan
	for round := 0; round < opts.MaxRounds; round++ {
		for _, conn := range conns {
			if conn.Name == lead.Name() {
				continue
			}
			contribution, err := conn.Agent.Think(ctx, contributionPrompt(task, currentContext))
			if err != nil {
				return s.failTask(t, fmt.Errorf("contribution from %q failed: %w", conn.Name, err))
			}
			t.Artifacts = append(t.Artifacts, Artifact{
				Type:    "contribution",
				Agent:   conn.Name,
				Round:   round,
				Content: contribution,
			})
			currentContext += fmt.Sprintf("\n\n[%s]: %s", conn.Name, contribution)
		}
	}

	synthesis, err := lead.Think(ctx, synthesisPrompt(task, currentContext))
	if err != nil {
		return s.failTask(t, fmt.Errorf("lead synthesis failed: %w", err))
	}
	t.Artifacts = append(t.Artifacts, Artifact{Type: "synthesis", Agent: lead.Name(), Content: synthesis})

	t.Status = TaskCompleted
	t.Result = synthesis
	t.CompletedAt = time.Now().UTC()

	s.logger.Info("synapse.orchestrate.complete", "network", s.name, "task_id", t.ID,
		"artifacts", len(t.Artifacts))
	return t, nil
}

// participants resolves the participant connection list in connect order,
// or the requested subset in the requested order.
func (s *Synapse) participants(names []string) []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if names == nil {
		conns := make([]*Connection, 0, len(s.order))
		for _, name := range s.order {
			conns = append(conns, s.conns[name])
		}
		return conns
	}

	conns := make([]*Connection, 0, len(names))
	for _, name := range names {
		if conn, ok := s.conns[name]; ok {
			conns = append(conns, conn)
		}
	}
	return conns
}

func (s *Synapse) failTask(t *Task, err error) (*Task, error) {
	t.Status = TaskFailed
	t.Error = err.Error()
	s.logger.Error("synapse.orchestrate.failed", "network", s.name, "task_id", t.ID, "error", err.Error())
	return t, err
}

// Task returns a registered task by id.
func (s *Synapse) Task(id string) (*Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

func planPrompt(task string, agentNames []string) string {
	return fmt.Sprintf(`You are coordinating a collaborative task among multiple AI agents.

Available agents: %s

Task: %s

Please analyze the task and provide:
1. A step-by-step plan for completing the task
2. Which agent should handle each step
3. Your initial contribution to the task

Format your response clearly with sections for Plan, Agent Assignments, and Your Contribution.`,
		strings.Join(agentNames, ", "), task)
}

func contributionPrompt(task, currentContext string) string {
	return fmt.Sprintf(`Previous context:
%s

Based on the above, please provide your contribution to the task: %s

Focus on your unique perspective and capabilities.`, currentContext, task)
}

func synthesisPrompt(task, currentContext string) string {
	return fmt.Sprintf(`Based on all contributions:

%s

Please provide a final synthesis and conclusion for the task: %s`, currentContext, task)
}

package synapse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reasonalabs/reasona/tool"
)

// seqAgent replies with a scripted sequence of responses and records every
// prompt it saw.
type seqAgent struct {
	name      string
	responses []string
	next      int
	prompts   []string
	err       error
}

func (a *seqAgent) Name() string { return a.name }

func (a *seqAgent) Think(_ context.Context, input string) (string, error) {
	a.prompts = append(a.prompts, input)
	if a.err != nil {
		return "", a.err
	}
	if a.next < len(a.responses) {
		r := a.responses[a.next]
		a.next++
		return r, nil
	}
	return "", nil
}

func TestConnectDisconnect(t *testing.T) {
	s := New("net")
	s.Connect(&seqAgent{name: "a"}).
		Connect(&seqAgent{name: "b"}, "research").
		Connect(&seqAgent{name: "c"})

	assert.Equal(t, []string{"a", "b", "c"}, s.Agents())

	got, ok := s.Agent("b")
	require.True(t, ok)
	assert.Equal(t, "b", got.Name())

	// Reconnecting replaces the registration but keeps the order slot.
	replacement := &seqAgent{name: "b", responses: []string{"new"}}
	s.Connect(replacement)
	assert.Equal(t, []string{"a", "b", "c"}, s.Agents())
	got, _ = s.Agent("b")
	assert.Same(t, replacement, got.(*seqAgent))

	s.Disconnect("b")
	assert.Equal(t, []string{"a", "c"}, s.Agents())
	_, ok = s.Agent("b")
	assert.False(t, ok)

	// Unknown name is a no-op.
	s.Disconnect("b")
	assert.Equal(t, []string{"a", "c"}, s.Agents())
}

func TestDelegate(t *testing.T) {
	worker := &seqAgent{name: "worker", responses: []string{"did it"}}
	s := New("net").Connect(worker)

	response, err := s.Delegate(context.Background(), "worker", "do the thing", nil)
	require.NoError(t, err)
	assert.Equal(t, "did it", response)
	require.Len(t, worker.prompts, 1)
	assert.Equal(t, "do the thing", worker.prompts[0])
}

func TestDelegateWithContext(t *testing.T) {
	worker := &seqAgent{name: "worker", responses: []string{"ok"}}
	s := New("net").Connect(worker)

	_, err := s.Delegate(context.Background(), "worker", "summarize", map[string]any{"depth": 2})
	require.NoError(t, err)

	require.Len(t, worker.prompts, 1)
	assert.Contains(t, worker.prompts[0], `Context: {"depth":2}`)
	assert.Contains(t, worker.prompts[0], "Task: summarize")
}

func TestDelegateMissingAgent(t *testing.T) {
	s := New("net")

	_, err := s.Delegate(context.Background(), "ghost", "anything", nil)
	assert.ErrorContains(t, err, `agent "ghost" not connected`)
}

func TestBroadcast(t *testing.T) {
	a := &seqAgent{name: "a", responses: []string{"ack"}}
	b := &seqAgent{name: "b", responses: []string{"ack"}}
	c := &seqAgent{name: "c", responses: []string{"ack"}}
	s := New("net").Connect(a).Connect(b).Connect(c)

	payload := map[string]any{"message": "meeting at noon"}
	messages := s.Broadcast(context.Background(), payload, "a", "c")

	// Source and excluded agents are not delivered to.
	require.Len(t, messages, 1)
	assert.Equal(t, MessageNotification, messages[0].Type)
	assert.Equal(t, "a", messages[0].Source)
	assert.Equal(t, "b", messages[0].Target)
	assert.NotEmpty(t, messages[0].ID)

	assert.Empty(t, a.prompts)
	assert.Empty(t, c.prompts)
	require.Len(t, b.prompts, 1)
	assert.Equal(t, "meeting at noon", b.prompts[0])
}

func TestBroadcastDeliveryFailure(t *testing.T) {
	ok := &seqAgent{name: "ok", responses: []string{"ack"}}
	broken := &seqAgent{name: "broken", err: errors.New("offline")}
	s := New("net").Connect(broken).Connect(ok)

	messages := s.Broadcast(context.Background(), map[string]any{"message": "hi"}, "synapse")

	require.Len(t, messages, 2)
	assert.Equal(t, MessageError, messages[0].Type)
	assert.Equal(t, "broken", messages[0].Target)
	assert.Equal(t, "offline", messages[0].Payload["error"])
	assert.NotEmpty(t, messages[0].CorrelationID)
	// Failure does not stop delivery to the remaining agents.
	assert.Equal(t, MessageNotification, messages[1].Type)
	assert.Equal(t, "ok", messages[1].Target)
}

func TestOrchestrate(t *testing.T) {
	lead := &seqAgent{name: "L", responses: []string{"plan", "synthesis"}}
	p1 := &seqAgent{name: "P1", responses: []string{"c1"}}
	p2 := &seqAgent{name: "P2", responses: []string{"c2"}}
	s := New("net").Connect(lead).Connect(p1).Connect(p2)

	task, err := s.Orchestrate(context.Background(), "T", func(o *OrchestrateOptions) {
		o.Lead = lead
		o.Participants = []string{"L", "P1", "P2"}
		o.MaxRounds = 1
	})
	require.NoError(t, err)

	assert.Equal(t, TaskCompleted, task.Status)
	assert.Equal(t, "synthesis", task.Result)
	assert.False(t, task.CompletedAt.IsZero())

	require.Len(t, task.Artifacts, 4)
	assert.Equal(t, Artifact{Type: "plan", Agent: "L", Round: 0, Content: "plan"}, task.Artifacts[0])
	assert.Equal(t, Artifact{Type: "contribution", Agent: "P1", Round: 0, Content: "c1"}, task.Artifacts[1])
	assert.Equal(t, Artifact{Type: "contribution", Agent: "P2", Round: 0, Content: "c2"}, task.Artifacts[2])
	assert.Equal(t, Artifact{Type: "synthesis", Agent: "L", Round: 0, Content: "synthesis"}, task.Artifacts[3])

	// Contributors saw the accumulated context.
	assert.Contains(t, p2.prompts[0], "plan")
	assert.Contains(t, p2.prompts[0], "[P1]: c1")
	// The synthesis prompt carries every contribution.
	assert.Contains(t, lead.prompts[1], "[P2]: c2")

	// The task is registered for later lookup.
	registered, ok := s.Task(task.ID)
	require.True(t, ok)
	assert.Same(t, task, registered)
}

func TestOrchestrateDefaults(t *testing.T) {
	lead := &seqAgent{name: "first", responses: []string{"plan", "synthesis"}}
	peer := &seqAgent{name: "second", responses: []string{"c1", "c2"}}
	s := New("net").Connect(lead).Connect(peer)

	task, err := s.Orchestrate(context.Background(), "T", func(o *OrchestrateOptions) {
		o.MaxRounds = 2
	})
	require.NoError(t, err)

	// Default lead is the first connected agent; two rounds yield two
	// contributions from the peer.
	assert.Equal(t, TaskCompleted, task.Status)
	require.Len(t, task.Artifacts, 4)
	assert.Equal(t, "plan", task.Artifacts[0].Type)
	assert.Equal(t, 0, task.Artifacts[1].Round)
	assert.Equal(t, 1, task.Artifacts[2].Round)
	assert.Equal(t, "synthesis", task.Artifacts[3].Type)
}

func TestOrchestrateNoAgents(t *testing.T) {
	s := New("net")

	task, err := s.Orchestrate(context.Background(), "T")
	assert.ErrorContains(t, err, "no agents available")
	require.NotNil(t, task)
	assert.Equal(t, TaskFailed, task.Status)
	assert.Contains(t, task.Error, "no agents available")
}

func TestOrchestrateContributionFailure(t *testing.T) {
	lead := &seqAgent{name: "L", responses: []string{"plan", "synthesis"}}
	broken := &seqAgent{name: "broken", err: errors.New("model down")}
	s := New("net").Connect(lead).Connect(broken)

	task, err := s.Orchestrate(context.Background(), "T", func(o *OrchestrateOptions) {
		o.MaxRounds = 1
	})
	assert.ErrorContains(t, err, `contribution from "broken" failed`)
	assert.Equal(t, TaskFailed, task.Status)
	// The plan artifact survives the failure.
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, "plan", task.Artifacts[0].Type)
}

func TestDelegateTool(t *testing.T) {
	worker := &seqAgent{name: "worker", responses: []string{"delegated result"}}
	s := New("net").Connect(worker)

	dt := NewDelegateTool(s)
	assert.Equal(t, "delegate_task", dt.Name())

	result, err := dt.Invoke(context.Background(), map[string]any{
		"agent": "worker",
		"task":  "do it",
	})
	require.NoError(t, err)
	assert.Equal(t, "delegated result", result)

	// Unknown peers surface as execution errors.
	_, err = dt.Invoke(context.Background(), map[string]any{
		"agent": "ghost",
		"task":  "do it",
	})
	var toolErr *tool.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

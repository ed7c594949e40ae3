package workflow

import (
	"context"
	"time"
)

// Agent is the minimal capability a stage needs from its executor. It is
// satisfied by *agent.Conductor; defining it locally keeps the package free
// of an agent dependency and lets tests plug in plain stubs.
type Agent interface {
	Name() string
	Think(ctx context.Context, input string) (string, error)
}

// Condition gates a stage: evaluated against the accumulated run context,
// false means the stage is skipped without invoking its agent.
type Condition func(runCtx map[string]any) bool

// Transform post-processes a completed stage's output before it is recorded
// and merged into the run context.
type Transform func(output any) any

// Stage is one step of a workflow pipeline.
type Stage struct {
	Name      string
	Agent     Agent
	Template  string // prompt template with {key} placeholders; empty falls back to the last output
	Condition Condition
	Transform Transform
	Timeout   time.Duration // bounds a single agent invocation; zero means unbounded
	Retries   int           // extra attempts after a failed invocation
}

// StageOption customizes a stage added via AddStage.
type StageOption func(s *Stage)

// WithCondition gates the stage on a context predicate.
func WithCondition(cond Condition) StageOption {
	return func(s *Stage) { s.Condition = cond }
}

// WithTransform post-processes the stage output.
func WithTransform(transform Transform) StageOption {
	return func(s *Stage) { s.Transform = transform }
}

// WithTimeout bounds each agent invocation of the stage.
func WithTimeout(timeout time.Duration) StageOption {
	return func(s *Stage) { s.Timeout = timeout }
}

// WithRetries re-invokes the agent up to retries extra times on failure,
// with linear backoff between attempts.
func WithRetries(retries int) StageOption {
	return func(s *Stage) { s.Retries = retries }
}

// Status describes the lifecycle state of a stage within one run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageResult is the immutable outcome of one stage in one run.
type StageResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Output   any           `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Run is the complete, immutable record of one workflow execution.
type Run struct {
	ID        string        `json:"run_id"`
	Status    Status        `json:"status"` // completed or failed
	Input     string        `json:"input"`
	Output    any           `json:"output"` // output of the last completed stage
	Stages    []StageResult `json:"stages"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

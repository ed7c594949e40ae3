package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reasonalabs/reasona/core"
	"github.com/reasonalabs/reasona/logging"
)

// Options configures a Workflow instance.
type Options struct {
	Description string
	Logger      logging.Logger
}

// Workflow owns an ordered sequence of stages and an execution history.
// Stage mutation (AddStage/RemoveStage) and Run may be called from multiple
// goroutines; each run executes against a snapshot of the stage list.
type Workflow struct {
	name        string
	description string
	logger      logging.Logger

	mu      sync.Mutex
	stages  []Stage
	history []*Run
}

// New creates an empty Workflow.
func New(name string, optFns ...func(o *Options)) *Workflow {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Workflow{
		name:        name,
		description: opts.Description,
		logger:      opts.Logger,
	}
}

// Name returns the workflow's name.
func (w *Workflow) Name() string { return w.name }

// AddStage appends a stage binding an agent to a prompt template. Returns
// the Workflow for chained construction.
func (w *Workflow) AddStage(name string, agent Agent, template string, opts ...StageOption) *Workflow {
	stage := Stage{
		Name:     name,
		Agent:    agent,
		Template: template,
	}
	for _, opt := range opts {
		opt(&stage)
	}

	w.mu.Lock()
	w.stages = append(w.stages, stage)
	w.mu.Unlock()
	return w
}

// RemoveStage removes the first stage with the given name. Removing an
// unknown name is a no-op.
func (w *Workflow) RemoveStage(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, stage := range w.stages {
		if stage.Name == name {
			w.stages = append(w.stages[:i], w.stages[i+1:]...)
			return
		}
	}
}

// StageNames returns the stage names in execution order.
func (w *Workflow) StageNames() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, len(w.stages))
	for i, stage := range w.stages {
		names[i] = stage.Name
	}
	return names
}

// runOptions hold per-run settings.
type runOptions struct {
	initialContext map[string]any
	stopOnError    bool
}

// RunOption customizes a single Run invocation.
type RunOption func(o *runOptions)

// WithInitialContext seeds the run context with extra entries before the
// first stage executes.
func WithInitialContext(initial map[string]any) RunOption {
	return func(o *runOptions) { o.initialContext = initial }
}

// WithStopOnError controls whether a failed stage halts the run (the
// default) or later stages still execute.
func WithStopOnError(stop bool) RunOption {
	return func(o *runOptions) { o.stopOnError = stop }
}

// Run executes the pipeline against input. It always returns a structured
// Run record, even on partial failure: failed stages are captured as failed
// StageResults, and with stop-on-error set, stages after the failure are
// absent from the result list.
func (w *Workflow) Run(ctx context.Context, input string, opts ...RunOption) *Run {
	runOpts := runOptions{stopOnError: true}
	for _, opt := range opts {
		opt(&runOpts)
	}

	runID := core.NewID()
	started := time.Now()

	runCtx := map[string]any{
		"input":   input,
		"_run_id": runID,
	}
	ctxKeys := []string{"input"}
	initKeys := make([]string, 0, len(runOpts.initialContext))
	for k := range runOpts.initialContext {
		initKeys = append(initKeys, k)
	}
	sort.Strings(initKeys)
	for _, k := range initKeys {
		runCtx[k] = runOpts.initialContext[k]
		ctxKeys = appendKey(ctxKeys, k)
	}

	w.mu.Lock()
	stages := append([]Stage(nil), w.stages...)
	w.mu.Unlock()

	w.logger.Info("workflow.run.start", "workflow", w.name, "run_id", runID, "stages", len(stages))

	results := make([]StageResult, 0, len(stages))
	for _, stage := range stages {
		result := w.executeStage(ctx, stage, runCtx, ctxKeys)
		results = append(results, result)

		switch result.Status {
		case StatusCompleted:
			runCtx[stage.Name] = result.Output
			runCtx["_last_output"] = result.Output
			ctxKeys = appendKey(ctxKeys, stage.Name)
		case StatusFailed:
			if runOpts.stopOnError {
				w.logger.Warn("workflow.run.halted", "workflow", w.name, "run_id", runID, "stage", stage.Name)
			}
		}
		if result.Status == StatusFailed && runOpts.stopOnError {
			break
		}
	}

	status := StatusCompleted
	for _, r := range results {
		if r.Status == StatusFailed {
			status = StatusFailed
			break
		}
	}

	run := &Run{
		ID:        runID,
		Status:    status,
		Input:     input,
		Output:    runCtx["_last_output"],
		Stages:    results,
		Duration:  time.Since(started),
		StartedAt: started,
	}

	w.mu.Lock()
	w.history = append(w.history, run)
	w.mu.Unlock()

	w.logger.Info("workflow.run.complete", "workflow", w.name, "run_id", runID,
		"status", string(status), "duration_ms", run.Duration.Milliseconds())

	return run
}

// executeStage runs one stage against the accumulated context and captures
// its outcome. Errors never escape; they become failed StageResults.
func (w *Workflow) executeStage(ctx context.Context, stage Stage, runCtx map[string]any, ctxKeys []string) StageResult {
	if stage.Condition != nil && !stage.Condition(runCtx) {
		w.logger.Debug("workflow.stage.skipped", "workflow", w.name, "stage", stage.Name)
		return StageResult{Name: stage.Name, Status: StatusSkipped}
	}

	prompt := buildPrompt(stage, runCtx, ctxKeys)
	w.logger.Debug("workflow.stage.start", "workflow", w.name, "stage", stage.Name, "agent", stage.Agent.Name())

	start := time.Now()
	output, err := w.invokeWithRetry(ctx, stage, prompt)
	elapsed := time.Since(start)

	if err != nil {
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = fmt.Sprintf("stage %q timed out after %s", stage.Name, stage.Timeout)
		}
		w.logger.Error("workflow.stage.failed", "workflow", w.name, "stage", stage.Name, "error", message)
		return StageResult{
			Name:     stage.Name,
			Status:   StatusFailed,
			Error:    message,
			Duration: elapsed,
		}
	}

	var result any = output
	if stage.Transform != nil {
		result = stage.Transform(result)
	}

	w.logger.Debug("workflow.stage.completed", "workflow", w.name, "stage", stage.Name,
		"duration_ms", elapsed.Milliseconds())
	return StageResult{
		Name:     stage.Name,
		Status:   StatusCompleted,
		Output:   result,
		Duration: elapsed,
	}
}

// invokeWithRetry drives the stage's agent, honoring the stage timeout per
// attempt and retrying failed attempts with linear backoff.
func (w *Workflow) invokeWithRetry(ctx context.Context, stage Stage, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= stage.Retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			w.logger.Debug("workflow.stage.retry", "workflow", w.name, "stage", stage.Name,
				"attempt", attempt, "backoff_ms", backoff.Milliseconds())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		output, err := w.invoke(ctx, stage, prompt)
		if err == nil {
			return output, nil
		}
		lastErr = err

		// The whole run is done; further attempts cannot succeed.
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

// invoke drives one agent call, racing it against the stage timeout. An
// agent that ignores cancellation is abandoned at expiry: the attempt fails
// with the deadline error and a late result is discarded.
func (w *Workflow) invoke(ctx context.Context, stage Stage, prompt string) (string, error) {
	if stage.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stage.Timeout)
		defer cancel()
	}

	type thinkResult struct {
		output string
		err    error
	}
	done := make(chan thinkResult, 1)
	go func() {
		output, err := stage.Agent.Think(ctx, prompt)
		done <- thinkResult{output: output, err: err}
	}()

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// buildPrompt renders the stage template against the run context. Every
// {key} placeholder with a matching non-bookkeeping context entry is
// substituted with the entry's string form; placeholders without a match
// are left verbatim. Substitution walks ctxKeys in context insertion order
// (input first, then stage outputs as they complete), so a value that
// itself contains a later entry's placeholder expands the same way on
// every run. Without a template the prompt is the most recent stage
// output, or the original input when no stage has completed yet.
func buildPrompt(stage Stage, runCtx map[string]any, ctxKeys []string) string {
	if stage.Template == "" {
		if last, ok := runCtx["_last_output"]; ok && last != nil {
			return stringify(last)
		}
		input, _ := runCtx["input"].(string)
		return input
	}

	prompt := stage.Template
	for _, key := range ctxKeys {
		if strings.HasPrefix(key, "_") {
			continue
		}
		value, ok := runCtx[key]
		if !ok {
			continue
		}
		prompt = strings.ReplaceAll(prompt, "{"+key+"}", stringify(value))
	}
	return prompt
}

// appendKey records a context key once, preserving first-insertion order.
func appendKey(keys []string, key string) []string {
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// History returns a copy of the run records, oldest first.
func (w *Workflow) History() []*Run {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*Run(nil), w.history...)
}

// ClearHistory discards all run records.
func (w *Workflow) ClearHistory() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = nil
}

// Visualize renders a linear view of the pipeline for humans: stage names
// with their bound agent names in execution order.
func (w *Workflow) Visualize() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	lines := []string{fmt.Sprintf("Workflow: %s", w.name)}
	if w.description != "" {
		lines = append(lines, fmt.Sprintf("  %s", w.description))
	}
	lines = append(lines, "")

	for i, stage := range w.stages {
		connector := "──▶"
		if i == len(w.stages)-1 {
			connector = "──○"
		}
		lines = append(lines, fmt.Sprintf("  [%s] (%s) %s", stage.Name, stage.Agent.Name(), connector))
	}
	return strings.Join(lines, "\n")
}

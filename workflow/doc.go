// Package workflow implements declarative multi-agent pipelines: an ordered
// sequence of stages, each binding an agent to a prompt template and an
// execution policy (gating condition, output transform, timeout, retries).
//
// Stages execute strictly in insertion order against an accumulating per-run
// context. Each completed stage's output is merged into the context under
// the stage's name, where later stage templates can reference it with {name}
// placeholders. Every run produces an immutable Run record appended to the
// workflow's history; a failed stage never aborts the run with a panic or a
// bare error, it is captured as a failed StageResult instead.
//
// Workflows do not own their agents. Binding one agent instance to several
// stages is fine because stages run sequentially; the agent's own per-think
// lock covers usage across concurrently running workflows.
package workflow

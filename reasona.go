// Package reasona is an agent-orchestration toolkit. It wraps language-model
// provider APIs behind a uniform agent abstraction (Conductor), supports tool
// invocation, multi-agent message passing (Synapse) and declarative
// multi-stage pipelines (Workflow). Most applications interact with the
// toolkit through its subpackages:
//
//   - agent:    the Conductor — a model, instructions and tools bound to an
//     owned conversation, with a blocking Think cycle and a streaming variant
//   - workflow: ordered agent-backed stages with templated prompts,
//     conditional gating, timeouts, bounded retry and per-run history
//   - synapse:  an agent connection registry with delegate, broadcast and
//     lead-coordinated orchestration primitives
//   - tool:     the function/tool calling subsystem plus built-in tools
//   - model:    the provider-agnostic model capability (OpenAI, Anthropic,
//     and a deterministic mock for tests)
//   - server:   a REST surface exposing a single Conductor over HTTP
//
// All defaults are safe for local development; production deployments
// typically supply an explicit config.Config and a structured logger.
package reasona

// Version is the toolkit release version.
const Version = "0.1.0"

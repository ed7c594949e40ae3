// Package core provides the foundational domain types used across Reasona.
// It defines the conversational data model:
//
//   - Message / Role / ToolCall (immutable conversation turns)
//   - Conversation (an agent-owned, append-only message log)
//   - Context (user, session and runtime data threaded into an execution)
//
// The package intentionally keeps implementation concerns (providers, tool
// execution, orchestration) out of scope so higher layers can depend on a
// small, stable vocabulary.
package core

// Package agent contains the Conductor, Reasona's model-centric
// conversational agent, and supporting utilities. The package focuses on
// three concerns:
//
//  1. The think cycle: prompt assembly, model completion and the bounded
//     tool-invocation loop (Conductor.Think / Conductor.Stream)
//  2. Capability publication for discovery and coordination (AgentCard)
//  3. Declarative agent definitions loaded from markdown files with YAML
//     frontmatter (FromMarkdown)
//
// Design principles:
//   - Minimal hidden global state; explicit wiring via options and config
//   - One conversation per Conductor, serialized by a per-agent mutex
//   - Observability through structured logging hooks around each think cycle
//
// The package intentionally keeps model specifics and tool implementations
// in their respective packages to avoid cyclic deps.
package agent

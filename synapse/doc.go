// Package synapse implements the Synaptic protocol for agent-to-agent
// communication: a registry of named agent connections plus three
// coordination patterns built on the agent think primitive.
//
//   - Delegate sends one task to one named agent and returns its answer.
//   - Broadcast notifies every connected agent (minus exclusions) of a
//     payload, delivering directly to each agent in connect order.
//   - Orchestrate runs a collaborative protocol: the lead agent plans,
//     participants contribute round by round, the lead synthesizes. Each
//     step is recorded as an ordered artifact on an in-memory Task.
//
// Synapse adds no execution engine of its own; every pattern is sequential
// calls against connected agents, which serialize their own think cycles.
package synapse

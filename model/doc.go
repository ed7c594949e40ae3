// Package model defines the provider-agnostic abstractions for interacting
// with language models inside Reasona.
//
// Core goals:
//   - Normalize completion and tool/function call representations
//     (Request, Response, ToolDefinition) across vendors
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate deterministic mocking for tests (MockModel)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so higher layers (agents, workflows) remain decoupled from vendor
// SDKs.
package model

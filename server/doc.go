// Package server exposes a Conductor agent over HTTP: a small JSON API for
// synchronous thinking, an SSE stream for incremental output, plus health,
// discovery and tool-listing endpoints.
package server

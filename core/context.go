package core

import "time"

// UserContext carries information about the caller on whose behalf an agent
// executes.
type UserContext struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name,omitempty"`
	Email       string         `json:"email,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
	Permissions []string       `json:"permissions,omitempty"`
}

// SessionContext identifies a logical session spanning one or more agent
// exchanges.
type SessionContext struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// RuntimeContext carries per-execution flags and limits, consumed by
// Conductor.ThinkWithRuntime. Zero values mean "use the agent's configured
// default": Timeout bounds the cycle, MaxIterations overrides the tool-round
// cap and DisableTools withholds tool definitions for the call.
type RuntimeContext struct {
	Debug         bool          `json:"debug,omitempty"`
	Timeout       time.Duration `json:"timeout,omitempty"`
	MaxIterations int           `json:"max_iterations,omitempty"`
	DisableTools  bool          `json:"disable_tools,omitempty"`
}

// Context bundles user, session and runtime data plus free-form variables
// threaded into an agent execution. It is per-call state, never shared
// between concurrent executions.
type Context struct {
	User      *UserContext   `json:"user,omitempty"`
	Session   SessionContext `json:"session"`
	Runtime   RuntimeContext `json:"runtime"`
	Variables map[string]any `json:"variables,omitempty"`
}

// NewContext creates a Context with a fresh session and the given variables.
func NewContext(vars map[string]any) *Context {
	if vars == nil {
		vars = map[string]any{}
	}
	return &Context{
		Session:   SessionContext{ID: NewID(), StartedAt: time.Now().UTC()},
		Variables: vars,
	}
}

// Get returns a variable and whether it is present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.Variables[key]
	return v, ok
}

// Set stores a variable, returning the context for chaining.
func (c *Context) Set(key string, value any) *Context {
	if c.Variables == nil {
		c.Variables = map[string]any{}
	}
	c.Variables[key] = value
	return c
}

// WithRuntime replaces the runtime section, returning the context for
// chaining.
func (c *Context) WithRuntime(rt RuntimeContext) *Context {
	c.Runtime = rt
	return c
}

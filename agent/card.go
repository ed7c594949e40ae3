package agent

// AgentCard is the discovery document an agent publishes for coordination:
// who it is, what it can do and which protocols it speaks. Servers expose it
// at /.well-known/agent-card.json.
type AgentCard struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
	Skills       []string `json:"skills"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Protocols    []string `json:"protocols"`
}

// Card generates the agent's discovery card. The description is derived
// from the first 200 characters of the instructions; skills list the tool
// names the agent carries.
func (c *Conductor) Card() AgentCard {
	description := c.instructions
	if len(description) > 200 {
		description = description[:200]
	}

	capabilities := []string{"reasoning"}
	tools := c.Tools()
	if len(tools) > 0 {
		capabilities = append(capabilities, "tool_use")
	}
	capabilities = append(capabilities, "streaming")

	skills := make([]string, 0, len(tools))
	for _, t := range tools {
		skills = append(skills, t.Name())
	}

	return AgentCard{
		Name:         c.name,
		Description:  description,
		Version:      "1.0.0",
		Capabilities: capabilities,
		Skills:       skills,
		Protocols:    []string{"synaptic/1.0", "jsonrpc/2.0"},
	}
}

package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontmatter is the YAML header of a markdown agent definition.
type frontmatter struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// FromMarkdown creates a Conductor from a markdown file with YAML
// frontmatter. The body becomes the instructions; frontmatter keys override
// the defaults. A file without frontmatter is treated as pure instructions
// and the agent is named after the file.
//
// Example file:
//
//	---
//	name: assistant
//	model: openai/gpt-4o
//	temperature: 0.7
//	---
//
//	You are a helpful assistant.
//
// Additional options are applied after the file, so callers can still
// inject a Model, Tools or a Logger.
func FromMarkdown(path string, optFns ...func(o *Options)) (*Conductor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent definition: %w", err)
	}
	content := string(data)

	var fm frontmatter
	instructions := content
	if strings.HasPrefix(content, "---") {
		parts := strings.SplitN(content, "---", 3)
		if len(parts) >= 3 {
			if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
				return nil, fmt.Errorf("parse frontmatter in %s: %w", path, err)
			}
			instructions = strings.TrimSpace(parts[2])
		}
	}

	name := fm.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return New(name, func(o *Options) {
		if fm.Model != "" {
			o.ModelID = fm.Model
		}
		if instructions != "" {
			o.Instructions = instructions
		}
		if fm.Temperature > 0 {
			o.Temperature = fm.Temperature
		}
		if fm.MaxTokens > 0 {
			o.MaxTokens = fm.MaxTokens
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
}

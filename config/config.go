// Package config provides explicit configuration for Reasona components.
// Configuration is a plain value passed to constructors; the only
// process-wide state is a single default instance with an explicit
// Default/SetDefault lifecycle that is never mutated implicitly mid-run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the settings for one language-model provider.
type ProviderConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Organization string        `yaml:"organization"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
}

// Configured reports whether the provider has a usable credential or
// endpoint.
func (p ProviderConfig) Configured() bool { return p.APIKey != "" || p.BaseURL != "" }

// Config is the root configuration for Reasona.
type Config struct {
	OpenAI    ProviderConfig `yaml:"openai"`
	Anthropic ProviderConfig `yaml:"anthropic"`

	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	ServerHost string `yaml:"server_host"`
	ServerPort int    `yaml:"server_port"`
}

// New returns a Config with library defaults and no credentials.
func New() *Config {
	return &Config{
		OpenAI:     ProviderConfig{Timeout: 60 * time.Second, MaxRetries: 3},
		Anthropic:  ProviderConfig{Timeout: 60 * time.Second, MaxRetries: 3},
		LogLevel:   "INFO",
		ServerHost: "0.0.0.0",
		ServerPort: 8000,
	}
}

// FromEnv builds a Config from environment variables, loading a .env file
// from the working directory first when one exists.
//
// Recognized variables: OPENAI_API_KEY, OPENAI_ORG_ID, OPENAI_BASE_URL,
// ANTHROPIC_API_KEY, REASONA_DEBUG, REASONA_LOG_LEVEL, REASONA_HOST,
// REASONA_PORT.
func FromEnv() *Config {
	_ = godotenv.Load()

	cfg := New()
	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.Organization = os.Getenv("OPENAI_ORG_ID")
	cfg.OpenAI.BaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")

	cfg.Debug = os.Getenv("REASONA_DEBUG") == "true"
	if v := os.Getenv("REASONA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REASONA_HOST"); v != "" {
		cfg.ServerHost = v
	}
	if v := os.Getenv("REASONA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = port
		}
	}
	return cfg
}

// FromFile loads a Config from a YAML file, layered over library defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Provider returns the configuration for the named provider, or an error for
// providers Reasona does not know about.
func (c *Config) Provider(name string) (ProviderConfig, error) {
	switch name {
	case "openai":
		return c.OpenAI, nil
	case "anthropic":
		return c.Anthropic, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unknown provider %q", name)
	}
}

var (
	defaultMu  sync.RWMutex
	defaultCfg *Config
)

// Default returns the process-wide default configuration, initializing it
// from the environment on first use.
func Default() *Config {
	defaultMu.RLock()
	cfg := defaultCfg
	defaultMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCfg == nil {
		defaultCfg = FromEnv()
	}
	return defaultCfg
}

// SetDefault replaces the process-wide default configuration. Intended for
// program startup, before any component has captured the previous default.
func SetDefault(cfg *Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCfg = cfg
}

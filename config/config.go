// Package config loads the host's two ambient configuration concerns: the
// tool-server roster (the mcpServers map) and LM provider selection.
// Secrets are never stored here — only which SecretManager backends to
// compose is decided by this package.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"mcphost/secretmanager"
)

// ServerConfig is one entry of the mcpServers map (spec.md §6).
type ServerConfig struct {
	Command string            `koanf:"command"`
	Args    []string          `koanf:"args"`
	Env     map[string]string `koanf:"env"`
}

// HostConfig is the top-level configuration document.
type HostConfig struct {
	MCPServers map[string]ServerConfig `koanf:"mcpServers"`
}

// LoadHostConfig reads and parses the JSON configuration file at path using
// a single koanf instance, following the teacher's local-config loading
// convention.
func LoadHostConfig(path string) (*HostConfig, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	var cfg HostConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// ProviderConfig selects which LM provider backs the iteration engine and
// its default model. Selection is entirely data-driven: the engine itself
// never branches on provider name (spec.md §9's polymorphic-clients note).
type ProviderConfig struct {
	Provider    string
	Model       string
	Temperature *float64
}

const (
	ProviderAnthropic       = "anthropic"
	ProviderOpenAI          = "openai"
	ProviderOpenAIResponses = "openai-responses"
)

var defaultModels = map[string]string{
	ProviderAnthropic:       "claude-sonnet-4-5",
	ProviderOpenAI:          "gpt-4o",
	ProviderOpenAIResponses: "gpt-4o",
}

// ResolveProviderConfig reads MCP_AI_PROVIDER (defaulting to Anthropic) and
// an optional MCP_MODEL override from the environment.
func ResolveProviderConfig() ProviderConfig {
	provider := os.Getenv("MCP_AI_PROVIDER")
	if provider == "" {
		provider = ProviderAnthropic
	}

	cfg := ProviderConfig{Provider: provider, Model: defaultModels[provider]}
	if model := os.Getenv("MCP_MODEL"); model != "" {
		cfg.Model = model
	}
	return cfg
}

// BuildSecretManager composes the backends consulted for API keys: the
// environment first, then the OS keychain, following
// secretmanager.CompositeSecretManager's fallthrough order.
func BuildSecretManager() secretmanager.SecretManager {
	return secretmanager.NewCompositeSecretManager([]secretmanager.SecretManager{
		secretmanager.EnvSecretManager{},
		secretmanager.KeyringSecretManager{},
	})
}

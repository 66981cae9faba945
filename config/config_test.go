package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mcphost.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadHostConfig(t *testing.T) {
	doc, err := json.Marshal(map[string]any{
		"mcpServers": map[string]any{
			"echo": map[string]any{
				"command": "echo-server",
				"args":    []string{"--stdio"},
				"env":     map[string]string{"FOO": "bar"},
			},
		},
	})
	require.NoError(t, err)
	path := writeConfigFile(t, string(doc))

	cfg, err := LoadHostConfig(path)
	require.NoError(t, err)
	require.Contains(t, cfg.MCPServers, "echo")
	assert.Equal(t, "echo-server", cfg.MCPServers["echo"].Command)
	assert.Equal(t, []string{"--stdio"}, cfg.MCPServers["echo"].Args)
	assert.Equal(t, "bar", cfg.MCPServers["echo"].Env["FOO"])
}

func TestLoadHostConfig_MissingFile(t *testing.T) {
	_, err := LoadHostConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestResolveProviderConfig_DefaultsToAnthropic(t *testing.T) {
	t.Setenv("MCP_AI_PROVIDER", "")
	t.Setenv("MCP_MODEL", "")
	cfg := ResolveProviderConfig()
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.NotEmpty(t, cfg.Model)
}

func TestResolveProviderConfig_ModelOverride(t *testing.T) {
	t.Setenv("MCP_AI_PROVIDER", "openai")
	t.Setenv("MCP_MODEL", "gpt-5")
	cfg := ResolveProviderConfig()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-5", cfg.Model)
}

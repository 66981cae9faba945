package secretmanager

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecretManagerContainer_MarshalUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		manager SecretManager
	}{
		{
			name:    "EnvSecretManager",
			manager: EnvSecretManager{},
		},
		{
			name:    "KeyringSecretManager",
			manager: KeyringSecretManager{},
		},
		{
			name:    "MockSecretManager",
			manager: MockSecretManager{},
		},
		{
			name: "CompositeSecretManager",
			manager: NewCompositeSecretManager([]SecretManager{
				EnvSecretManager{},
				KeyringSecretManager{},
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalContainer := SecretManagerContainer{SecretManager: tt.manager}

			jsonBytes, err := json.Marshal(originalContainer)
			assert.NoError(t, err)

			var unmarshaledContainer SecretManagerContainer
			err = json.Unmarshal(jsonBytes, &unmarshaledContainer)
			assert.NoError(t, err)

			assert.Equal(t, originalContainer.SecretManager.GetType(), unmarshaledContainer.SecretManager.GetType())
		})
	}
}

func TestEnvSecretManager_GetSecret(t *testing.T) {
	t.Setenv("MCPHOST_ANTHROPIC_API_KEY", "sk-test-123")

	m := EnvSecretManager{}
	secret, err := m.GetSecret("ANTHROPIC_API_KEY")
	assert.NoError(t, err)
	assert.Equal(t, "sk-test-123", secret)

	_, err = m.GetSecret("MISSING_API_KEY")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestCompositeSecretManager_FallsThrough(t *testing.T) {
	t.Setenv("MCPHOST_OPENAI_API_KEY", "sk-env")

	c := NewCompositeSecretManager([]SecretManager{
		KeyringSecretManager{}, // will fail to find in this environment
		EnvSecretManager{},
	})

	secret, err := c.GetSecret("OPENAI_API_KEY")
	assert.NoError(t, err)
	assert.Equal(t, "sk-env", secret)
}

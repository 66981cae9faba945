// Package secretmanager resolves LM provider API keys from one or more
// backing stores without the LM clients needing to know which store is in
// play.
package secretmanager

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrSecretNotFound is returned when a secret is not found in any secret manager.
var ErrSecretNotFound = errors.New("secret not found")

type SecretManager interface {
	GetSecret(secretName string) (string, error)
	GetType() SecretManagerType
}

type SecretManagerType string

const (
	EnvSecretManagerType       SecretManagerType = "env"
	MockSecretManagerType      SecretManagerType = "mock"
	KeyringSecretManagerType   SecretManagerType = "keyring"
	CompositeSecretManagerType SecretManagerType = "composite"
)

// EnvSecretManager reads MCPHOST_<NAME> environment variables.
type EnvSecretManager struct{}

func (e EnvSecretManager) GetSecret(secretName string) (string, error) {
	envName := fmt.Sprintf("MCPHOST_%s", secretName)
	secret := os.Getenv(envName)
	if secret == "" {
		return "", fmt.Errorf("%w: %s not found in environment", ErrSecretNotFound, envName)
	}
	return secret, nil
}

func (e EnvSecretManager) GetType() SecretManagerType {
	return EnvSecretManagerType
}

// KeyringSecretManager reads secrets from the OS keychain under the "mcphost" service.
type KeyringSecretManager struct{}

func (k KeyringSecretManager) GetSecret(secretName string) (string, error) {
	secret, err := keyring.Get("mcphost", secretName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found in keyring", ErrSecretNotFound, secretName)
		}
		return "", fmt.Errorf("error retrieving %s from keyring: %w", secretName, err)
	}
	return secret, nil
}

func (k KeyringSecretManager) GetType() SecretManagerType {
	return KeyringSecretManagerType
}

// CompositeSecretManager tries each underlying manager in order, returning the first hit.
type CompositeSecretManager struct {
	managers []SecretManager
}

func NewCompositeSecretManager(managers []SecretManager) *CompositeSecretManager {
	return &CompositeSecretManager{managers: managers}
}

func (c CompositeSecretManager) GetSecret(secretName string) (string, error) {
	var lastErr error
	for _, manager := range c.managers {
		secret, err := manager.GetSecret(secretName)
		if err == nil {
			return secret, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return "", fmt.Errorf("secret %s not found in any secret manager: %w", secretName, lastErr)
	}
	return "", fmt.Errorf("no secret managers configured")
}

func (c CompositeSecretManager) GetType() SecretManagerType {
	return CompositeSecretManagerType
}

func (c CompositeSecretManager) MarshalJSON() ([]byte, error) {
	managers := make([]SecretManagerContainer, len(c.managers))
	for i, manager := range c.managers {
		managers[i] = SecretManagerContainer{SecretManager: manager}
	}
	return json.Marshal(struct {
		Managers []SecretManagerContainer `json:"managers"`
	}{Managers: managers})
}

func (c *CompositeSecretManager) UnmarshalJSON(data []byte) error {
	var v struct {
		Managers []SecretManagerContainer `json:"managers"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	c.managers = make([]SecretManager, len(v.Managers))
	for i, container := range v.Managers {
		c.managers[i] = container.SecretManager
	}
	return nil
}

// MockSecretManager returns a fixed fake secret for any *_API_KEY lookup; used in tests.
type MockSecretManager struct{}

func (m MockSecretManager) GetSecret(secretName string) (string, error) {
	if strings.HasSuffix(secretName, "_API_KEY") {
		return "fake secret", nil
	}
	return "", fmt.Errorf("%w: %s not found in mock", ErrSecretNotFound, secretName)
}

func (m MockSecretManager) GetType() SecretManagerType {
	return MockSecretManagerType
}

// SecretManagerContainer wraps a SecretManager for polymorphic JSON
// (de)serialization, tagging the concrete type so config can name which
// backend to use.
type SecretManagerContainer struct {
	SecretManager
}

func (sc SecretManagerContainer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string
		Manager SecretManager
	}{
		Type:    string(sc.SecretManager.GetType()),
		Manager: sc.SecretManager,
	})
}

func (sc *SecretManagerContainer) UnmarshalJSON(data []byte) error {
	var v struct {
		Type    string
		Manager json.RawMessage
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v.Type {
	case string(EnvSecretManagerType):
		sc.SecretManager = EnvSecretManager{}
	case string(MockSecretManagerType):
		sc.SecretManager = MockSecretManager{}
	case string(KeyringSecretManagerType):
		sc.SecretManager = KeyringSecretManager{}
	case string(CompositeSecretManagerType):
		var csm CompositeSecretManager
		if err := json.Unmarshal(v.Manager, &csm); err != nil {
			return err
		}
		sc.SecretManager = &csm
	default:
		return fmt.Errorf("unknown SecretManager type: %s", v.Type)
	}

	return nil
}

// Package secrets resolves sensitive configuration values such as database
// credentials from the process environment or AWS Secrets Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrSecretNotFound is returned when the provider has no value for a key.
var ErrSecretNotFound = errors.New("secret not found")

// Manager looks up secrets by key.
type Manager interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// EnvManager reads secrets from environment variables named prefix+key.
type EnvManager struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvManager returns a Manager backed by os.LookupEnv.
func NewEnvManager(prefix string) *EnvManager {
	return &EnvManager{prefix: prefix, lookup: os.LookupEnv}
}

// GetSecret returns the value of the prefixed variable. Empty values count as missing.
func (m *EnvManager) GetSecret(_ context.Context, key string) (string, error) {
	name := strings.ToUpper(m.prefix + key)
	value, ok := m.lookup(name)
	if !ok || value == "" {
		return "", fmt.Errorf("%s: %w", name, ErrSecretNotFound)
	}
	return value, nil
}

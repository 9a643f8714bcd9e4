//go:build !delegated

package credstore

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

func init() { Default = keyringStore(Service) }

// keyringStore reaches the platform store in-process: Keychain on macOS,
// Secret Service on Linux, Credential Manager on Windows.
type keyringStore string

func (k keyringStore) Get(name string) (string, error) {
	secret, err := keyring.Get(string(k), name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("credential store get: %w", err)
	}
	return secret, nil
}

func (k keyringStore) Set(name, secret string) error {
	if err := keyring.Set(string(k), name, secret); err != nil {
		return fmt.Errorf("credential store set: %w", err)
	}
	return nil
}

func (k keyringStore) Delete(name string) error {
	if err := keyring.Delete(string(k), name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("credential store delete: %w", err)
	}
	return nil
}

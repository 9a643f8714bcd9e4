// Package sshkey inspects private key files referenced by askpass prompts.
package sshkey

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// IsEncrypted reports whether path holds a private key that needs a
// passphrase. Unreadable or non-key files report false.
func IsEncrypted(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	_, err = ssh.ParseRawPrivateKey(data)
	var missing *ssh.PassphraseMissingError
	return errors.As(err, &missing)
}

// Verify checks that the passphrase opens the private key at path.
func Verify(path, passphrase string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	if _, err := ssh.ParseRawPrivateKeyWithPassphrase(data, []byte(passphrase)); err != nil {
		return fmt.Errorf("unlock key %s: %w", path, err)
	}
	return nil
}

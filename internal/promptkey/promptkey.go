// Package promptkey turns the free-form prompt text that ssh passes to an
// askpass helper into a stable lookup key for the credential store.
package promptkey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix namespaces askpass entries inside the credential store so they
// cannot collide with secrets written by other tools.
const Prefix = "ssh:"

// IsHostVerification reports whether the prompt is a host-authenticity
// confirmation rather than a request for a secret. SSH sends prompts like:
//
//	"The authenticity of host 'foo (1.2.3.4)' can't be established..."
//	"Are you sure you want to continue connecting (yes/no/[fingerprint])?"
func IsHostVerification(prompt string) bool {
	return strings.Contains(prompt, "authenticity of host") ||
		strings.Contains(prompt, "continue connecting (yes/no")
}

// Extract pulls the credential identifier out of a prompt. ssh and ssh-add
// phrase their prompts like:
//
//	"Enter passphrase for /home/user/.ssh/id_rsa: "
//	"Enter passphrase for key '/home/user/.ssh/id_rsa': "
//	"Enter PIN for 'My Smart Card': "
//
// The single-quoted span wins when present; otherwise the text after "for "
// is used, with trailing colons and whitespace trimmed. Returns "" when the
// prompt carries no identifier (e.g. "Password: ").
func Extract(prompt string) string {
	prompt = strings.TrimSpace(prompt)

	if start := strings.Index(prompt, "'"); start >= 0 {
		if end := strings.LastIndex(prompt, "'"); end > start {
			return prompt[start+1 : end]
		}
	}

	if idx := strings.Index(prompt, "for "); idx >= 0 {
		rest := prompt[idx+4:]
		path := strings.TrimSpace(strings.TrimRight(rest, ":"))
		if path != "" {
			return path
		}
	}

	return ""
}

// Derive maps a prompt to its lookup key. Prompts with an extractable
// identifier key on that identifier, so rephrased prompts for the same key
// file ("Enter passphrase for X", "Bad passphrase, try again for X") share
// one entry. Anything else falls back to a hash of the trimmed prompt text,
// so every prompt still maps to a stable, bounded store name.
func Derive(prompt string) string {
	if id := Extract(prompt); id != "" {
		return id
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(sum[:])
}

// AccountName formats the store account name for a lookup key.
func AccountName(key string) string {
	return Prefix + key
}

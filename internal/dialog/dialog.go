// Package dialog collects secrets and confirmations from the user. The
// default build prompts on the controlling terminal; the "delegated" build
// raises the Windows CredUI dialog through powershell.exe so a prompt
// appears even when the helper runs from WSL without a usable tty.
package dialog

import "errors"

// ErrCancelled is returned when the user declined to answer.
var ErrCancelled = errors.New("prompt cancelled by user")

// Result is a collected secret plus whether the user asked to persist it.
type Result struct {
	Secret string
	Save   bool
}

// Prompter is the prompt facility contract. Secret collects a passphrase,
// offering to save it when offerSave is set. Confirm answers a yes/no
// question (host authenticity) and returns "yes" or "no".
type Prompter interface {
	Secret(prompt string, offerSave bool) (Result, error)
	Confirm(prompt string) (string, error)
}

var Default Prompter // set in init of the variant selected at build time

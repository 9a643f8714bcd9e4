// Package askpass implements the single-shot flow ssh drives through
// SSH_ASKPASS: derive a lookup key from the prompt, return a stored secret
// when one exists, otherwise collect it from the user, optionally persist
// it, and write it to stdout for ssh to consume.
package askpass

import (
	"errors"
	"fmt"
	"io"

	"github.com/hushkey/hushkey/internal/credstore"
	"github.com/hushkey/hushkey/internal/dialog"
	"github.com/hushkey/hushkey/internal/log"
	"github.com/hushkey/hushkey/internal/promptkey"
)

// Recorder tracks which lookup keys currently have a stored secret.
type Recorder interface {
	Add(key string) error
}

// Checker validates a collected secret against the key file it belongs to
// before it is persisted. Returning an error skips the save, so a mistyped
// passphrase is never cached.
type Checker func(path, secret string) error

// Pipeline wires the credential store, the prompt facility and the key
// index together. Index and Check are optional.
type Pipeline struct {
	Store  credstore.Store
	Prompt dialog.Prompter
	Index  Recorder
	Check  Checker
	Out    io.Writer
}

// Run handles one askpass invocation. Exactly the answer is written to
// Out; diagnostics go to the logger. Store failures other than a missing
// entry abort before any prompt is shown.
func (p *Pipeline) Run(prompt string) error {
	// Host authenticity prompts want a yes/no answer, not a secret, and
	// are never cached.
	if promptkey.IsHostVerification(prompt) {
		answer, err := p.Prompt.Confirm(prompt)
		if err != nil {
			return err
		}
		return p.emit(answer)
	}

	key := promptkey.Derive(prompt)
	account := promptkey.AccountName(key)

	secret, err := p.Store.Get(account)
	switch {
	case err == nil:
		log.Debug().Str("key", key).Msg("secret found in credential store")
		return p.emit(secret)
	case errors.Is(err, credstore.ErrNotFound):
		log.Debug().Str("key", key).Msg("no stored secret, prompting")
	default:
		return err
	}

	// Saving is only offered when the prompt names an identifier worth
	// keying on; a hash-derived key would be unrecognizable in `list`.
	offerSave := promptkey.Extract(prompt) != ""

	res, err := p.Prompt.Secret(prompt, offerSave)
	if err != nil {
		return err
	}

	if offerSave && res.Save {
		p.save(key, account, res.Secret)
	}
	return p.emit(res.Secret)
}

// save persists the secret and records the key in the index. Failures here
// are warnings: the secret was obtained and will still be printed, the
// next invocation simply prompts again.
func (p *Pipeline) save(key, account, secret string) {
	if p.Check != nil {
		if err := p.Check(key, secret); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Not saving: secret does not open the key")
			return
		}
	}
	if err := p.Store.Set(account, secret); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to save secret")
		return
	}
	log.Info().Str("key", key).Msg("Saved secret to credential store")
	if p.Index != nil {
		if err := p.Index.Add(key); err != nil {
			log.Debug().Err(err).Str("key", key).Msg("Failed to record key in index")
		}
	}
}

func (p *Pipeline) emit(answer string) error {
	if _, err := io.WriteString(p.Out, answer); err != nil {
		return fmt.Errorf("write answer to stdout: %w", err)
	}
	return nil
}

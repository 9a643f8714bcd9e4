//go:build delegated

package dialog

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func init() { Default = powershellPrompter{} }

// powershellPrompter raises native Windows dialogs from WSL through
// powershell.exe. No -NonInteractive here: the whole point is UI.
type powershellPrompter struct{}

func runDialog(script string) (string, error) {
	out, err := exec.Command("powershell.exe", "-NoProfile", "-Command", script).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			// ERROR_CANCELLED surfaces as a thrown exception mentioning 1223.
			if strings.Contains(stderr, "1223") {
				return "", ErrCancelled
			}
			return "", fmt.Errorf("powershell dialog: %s", stderr)
		}
		return "", fmt.Errorf("run powershell dialog: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (powershellPrompter) Secret(prompt string, offerSave bool) (Result, error) {
	out, err := runDialog(buildSecretScript(prompt, offerSave))
	if err != nil {
		return Result{}, err
	}
	return parseSecretReply(out)
}

func (powershellPrompter) Confirm(prompt string) (string, error) {
	out, err := runDialog(buildConfirmScript(prompt))
	if err != nil {
		return "", err
	}
	switch out {
	case "yes", "no":
		return out, nil
	case "":
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("powershell dialog: unexpected reply %q", out)
	}
}

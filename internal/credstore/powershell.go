//go:build delegated

package credstore

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

func init() { Default = powershellStore{} }

// powershellStore reaches the Windows Credential Manager through
// powershell.exe. WSL exposes Windows executables on PATH, so each call is
// one helper process: serialize the request into a script, read the reply
// from its stdout.
type powershellStore struct{}

func runPowerShell(script string) (string, error) {
	out, err := exec.Command(
		"powershell.exe", "-NoProfile", "-NonInteractive", "-Command", script,
	).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("powershell helper: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("run powershell helper: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (powershellStore) Get(name string) (string, error) {
	// The script throws on any CredReadW failure other than
	// ERROR_NOT_FOUND, so a broken store surfaces as a helper error here
	// instead of masquerading as a missing entry.
	out, err := runPowerShell(buildGetScript(targetName(name)))
	if err != nil {
		return "", err
	}
	return parseGetReply(out)
}

func (powershellStore) Set(name, secret string) error {
	// CredWriteW either replaces the entry or throws; the script exits
	// non-zero on throw, so a failed Set never leaves a partial entry.
	_, err := runPowerShell(buildSetScript(targetName(name), secret))
	return err
}

func (powershellStore) Delete(name string) error {
	out, err := runPowerShell(buildDeleteScript(targetName(name)))
	if err != nil {
		return err
	}
	switch out {
	case "OK":
		return nil
	case "MISSING":
		return ErrNotFound
	default:
		return fmt.Errorf("powershell helper: unexpected reply %q", out)
	}
}

//go:build !delegated

package dialog

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

func init() { Default = ttyPrompter{} }

// ttyPrompter talks to the controlling terminal directly. Stdin and stdout
// belong to ssh in askpass mode, so both reads and echoes go through
// /dev/tty.
type ttyPrompter struct{}

func openTTY() (*os.File, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open controlling terminal: %w", err)
	}
	return tty, nil
}

func (ttyPrompter) Secret(prompt string, offerSave bool) (Result, error) {
	tty, err := openTTY()
	if err != nil {
		return Result{}, err
	}
	defer tty.Close()

	fmt.Fprint(tty, strings.TrimSpace(prompt)+" ")
	raw, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(tty)
	if err != nil {
		return Result{}, fmt.Errorf("read passphrase: %w", err)
	}
	// Empty input means the user backed out, matching the cancel button of
	// the graphical variant.
	if len(raw) == 0 {
		return Result{}, ErrCancelled
	}

	res := Result{Secret: string(raw)}
	if offerSave {
		fmt.Fprint(tty, "Save to the system keychain? [y/N] ")
		answer, err := bufio.NewReader(tty).ReadString('\n')
		if err != nil && answer == "" {
			return res, nil // EOF counts as "no"
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		res.Save = answer == "y" || answer == "yes"
	}
	return res, nil
}

func (ttyPrompter) Confirm(prompt string) (string, error) {
	tty, err := openTTY()
	if err != nil {
		return "", err
	}
	defer tty.Close()

	fmt.Fprint(tty, strings.TrimSpace(prompt)+" ")
	answer, err := bufio.NewReader(tty).ReadString('\n')
	if err != nil && answer == "" {
		return "", ErrCancelled
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return "yes", nil
	case "no", "n":
		return "no", nil
	default:
		return "", ErrCancelled
	}
}

// Command hushkey is an SSH_ASKPASS helper backed by the OS credential
// store. ssh invokes it with the prompt text as the sole argument; the
// answer is written to stdout.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hushkey/hushkey/internal/askpass"
	"github.com/hushkey/hushkey/internal/credstore"
	"github.com/hushkey/hushkey/internal/dialog"
	"github.com/hushkey/hushkey/internal/index"
	"github.com/hushkey/hushkey/internal/log"
	"github.com/hushkey/hushkey/internal/promptkey"
	"github.com/hushkey/hushkey/internal/sshkey"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

func main() {
	var logLevel string

	app := &cli.App{
		Name:    "hushkey",
		Usage:   "SSH askpass helper backed by the OS credential store",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Logging level (debug, info, warn, error)",
				Value:       "warn",
				Destination: &logLevel,
			},
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			return nil
		},
		Commands: []*cli.Command{listCmd, deleteCmd, verifyCmd, setupCmd},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				_ = cli.ShowAppHelp(c)
				return cli.Exit("", 1)
			}
			return runAskpass(c.Args().First())
		},
	}

	if err := app.Run(os.Args); err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			log.Warn().Msg("Prompt cancelled")
		} else {
			log.Error().Err(err).Msg("hushkey failed")
		}
		os.Exit(1)
	}
}

func runAskpass(prompt string) error {
	p := &askpass.Pipeline{
		Store:  credstore.Default,
		Prompt: dialog.Default,
		Check:  verifyIfKeyFile,
		Out:    os.Stdout,
	}

	// Index failures degrade listing, never the askpass path.
	if idx, err := openIndex(); err == nil {
		defer idx.Close()
		p.Index = idx
	} else {
		log.Debug().Err(err).Msg("Key index unavailable")
	}

	return p.Run(prompt)
}

// verifyIfKeyFile rejects a passphrase that does not open the key file it
// was entered for. Identifiers that are not encrypted key files on disk
// (git URLs, smartcard labels) are accepted as-is.
func verifyIfKeyFile(path, secret string) error {
	if !sshkey.IsEncrypted(path) {
		return nil
	}
	return sshkey.Verify(path, secret)
}

func openIndex() (*index.Index, error) {
	path, err := index.DefaultPath()
	if err != nil {
		return nil, err
	}
	return index.Open(path)
}

var listCmd = &cli.Command{
	Name:  "list",
	Usage: "List lookup keys that have a stored secret",
	Action: func(c *cli.Context) error {
		idx, err := openIndex()
		if err != nil {
			return fmt.Errorf("open key index: %w", err)
		}
		defer idx.Close()

		keys, err := idx.Keys()
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("No SSH credentials stored.")
			return nil
		}

		fmt.Println("Stored SSH credentials:")
		for _, key := range keys {
			note := ""
			if strings.HasPrefix(key, "/") {
				if _, err := os.Stat(key); errors.Is(err, os.ErrNotExist) {
					note = " (key file missing)"
				}
			}
			fmt.Printf("  %s%s\n", key, note)
		}
		return nil
	},
}

var deleteCmd = &cli.Command{
	Name:      "delete",
	Usage:     "Remove a stored secret",
	ArgsUsage: "<key>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("Usage: hushkey delete <key>", 1)
		}
		key := c.Args().First()

		if err := credstore.Default.Delete(promptkey.AccountName(key)); err != nil {
			if errors.Is(err, credstore.ErrNotFound) {
				return cli.Exit(fmt.Sprintf("no stored secret for %q", key), 1)
			}
			return err
		}

		if idx, err := openIndex(); err == nil {
			defer idx.Close()
			if err := idx.Remove(key); err != nil && !errors.Is(err, index.ErrNotFound) {
				log.Warn().Err(err).Str("key", key).Msg("Failed to update key index")
			}
		}

		fmt.Printf("Removed secret for %s\n", key)
		return nil
	},
}

var verifyCmd = &cli.Command{
	Name:      "verify",
	Usage:     "Check that the stored passphrase opens a private key file",
	ArgsUsage: "<key-path>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return cli.Exit("Usage: hushkey verify <key-path>", 1)
		}
		path := c.Args().First()

		secret, err := credstore.Default.Get(promptkey.AccountName(path))
		if err != nil {
			if errors.Is(err, credstore.ErrNotFound) {
				return cli.Exit(fmt.Sprintf("no stored secret for %q", path), 1)
			}
			return err
		}

		if err := sshkey.Verify(path, secret); err != nil {
			return fmt.Errorf("stored passphrase does not open %s: %w", path, err)
		}
		fmt.Printf("OK: stored passphrase opens %s\n", path)
		return nil
	},
}

var setupCmd = &cli.Command{
	Name:  "setup",
	Usage: "Print the shell configuration for using hushkey with ssh-add",
	Action: func(c *cli.Context) error {
		exe, err := os.Executable()
		if err != nil {
			exe = "hushkey"
		}
		fmt.Printf(`# Add to your ~/.bashrc or ~/.zshrc:
export SSH_ASKPASS=%s
export SSH_ASKPASS_REQUIRE=prefer

# Then use ssh-add normally:
#   ssh-add </dev/null
`, exe)
		return nil
	},
}

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/fahmaliyi/pwdeck/logging"
	"github.com/fahmaliyi/pwdeck/vault"
	"golang.org/x/term"
)

const (
	passphraseEnv    = "PWDECK_PASSPHRASE"
	newPassphraseEnv = "PWDECK_NEW_PASSPHRASE"
)

// Clipboard is the subset of the system clipboard pwdeck needs.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// terminal reports the file descriptor of a.In when it is a terminal.
func (a *App) terminal() (int, bool) {
	f, ok := a.In.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readPassphrase returns the value of env when set, otherwise prompts
// without echo. The caller zeroes the result.
func (a *App) readPassphrase(env, prompt string) ([]byte, error) {
	if v, ok := os.LookupEnv(env); ok {
		return []byte(v), nil
	}
	fd, ok := a.terminal()
	if !ok {
		return nil, errNoTerminal
	}
	fmt.Fprint(a.Err, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(a.Err)
	if err != nil {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	return pw, nil
}

// newPassphrase reads a passphrase that is about to protect a vault. Prompted
// passphrases must be typed twice.
func (a *App) newPassphrase(env string) ([]byte, error) {
	if v, ok := os.LookupEnv(env); ok {
		return []byte(v), nil
	}
	first, err := a.readPassphrase(env, "New master passphrase: ")
	if err != nil {
		return nil, err
	}
	second, err := a.readPassphrase(env, "Repeat master passphrase: ")
	if err != nil {
		vault.Zero(first)
		return nil, err
	}
	defer vault.Zero(second)
	if !bytes.Equal(first, second) {
		vault.Zero(first)
		return nil, errPassphraseMismatch
	}
	return first, nil
}

// readSecret prompts for a secret on a terminal, or takes the first line of
// piped input.
func (a *App) readSecret() ([]byte, error) {
	if fd, ok := a.terminal(); ok {
		fmt.Fprint(a.Err, "Secret: ")
		s, err := term.ReadPassword(fd)
		fmt.Fprintln(a.Err)
		if err != nil {
			return nil, fmt.Errorf("read secret: %w", err)
		}
		return s, nil
	}
	line, err := bufio.NewReader(a.In).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read secret: %w", err)
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// copySecret puts secret on the clipboard and clears it again after the
// configured timeout, or earlier when ctx is cancelled. A zero timeout
// leaves the clipboard alone.
func (a *App) copySecret(ctx context.Context, secret string) error {
	if err := a.Clipboard.WriteAll(secret); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	timeout := a.cfg.ClipboardTimeout
	if timeout <= 0 {
		fmt.Fprintln(a.Err, "Copied to clipboard.")
		return nil
	}
	fmt.Fprintf(a.Err, "Copied to clipboard, clearing in %s.\n", timeout)

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	return clearClipboard(a.Clipboard, secret)
}

// clearClipboard empties the clipboard if it still holds secret.
func clearClipboard(c Clipboard, secret string) error {
	current, err := c.ReadAll()
	if err == nil && current != secret {
		logging.L.Debug("clipboard changed since copy, leaving it")
		return nil
	}
	if err := c.WriteAll(""); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

// Package cli implements the pwdeck command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fahmaliyi/pwdeck/config"
	"github.com/fahmaliyi/pwdeck/entropy"
	"github.com/fahmaliyi/pwdeck/generator"
	"github.com/fahmaliyi/pwdeck/logging"
	"github.com/fahmaliyi/pwdeck/vault"
	"github.com/spf13/cobra"
)

// App carries the I/O and collaborators shared by every command.
type App struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	Entropy      *entropy.Source
	Clipboard    Clipboard
	StoreOptions []vault.Option

	cfg        config.Config
	configFile string
}

func NewApp() *App {
	return &App{
		In:        os.Stdin,
		Out:       os.Stdout,
		Err:       os.Stderr,
		Entropy:   entropy.Default(),
		Clipboard: systemClipboard{},
	}
}

// Execute runs pwdeck with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	return NewApp().Run(ctx, os.Args[1:])
}

func (a *App) Run(ctx context.Context, args []string) int {
	root := a.Command()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.Err, "Error: %s\n", describeError(err))
		logging.L.Debug("command failed", "err", err)
		return 1
	}
	return 0
}

// Command builds the root command with all subcommands attached.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "pwdeck",
		Short:         "Generate passwords and keep them in an encrypted local vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.SetDebug(logging.L, cfg.Debug)
			logging.L.Debug("config loaded", "vault", cfg.Vault, "wordlist", cfg.Wordlist)
			return nil
		},
	}
	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	root.PersistentFlags().String("vault", "", "vault file (default ~/.local/share/pwdeck/vault.pwd)")
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default <user config dir>/pwdeck/pwdeck.yaml)")
	root.PersistentFlags().Bool("debug", false, "print diagnostic logs to stderr")

	root.AddCommand(
		a.generateCmd(),
		a.newCmd(),
		a.getCmd(),
		a.rmCmd(),
		a.passwdCmd(),
		a.browseCmd(),
		a.configCmd(),
	)
	return root
}

// store returns a Store for the configured vault path.
func (a *App) store() *vault.Store {
	opts := []vault.Option{vault.WithLogger(logging.L), vault.WithEntropy(a.Entropy)}
	return vault.NewStore(a.cfg.Vault, append(opts, a.StoreOptions...)...)
}

// openVault opens the configured vault. With create set, a missing vault is
// created under a freshly confirmed passphrase.
func (a *App) openVault(create bool) (*vault.Vault, error) {
	s := a.store()
	if !s.Exists() {
		if !create {
			return nil, fmt.Errorf("%w at %s", errNoVault, s.Path())
		}
		fmt.Fprintf(a.Err, "No vault at %s, creating one.\n", s.Path())
		pass, err := a.newPassphrase(passphraseEnv)
		if err != nil {
			return nil, err
		}
		defer vault.Zero(pass)
		return s.Create(pass)
	}

	pass, err := a.readPassphrase(passphraseEnv, "Master passphrase: ")
	if err != nil {
		return nil, err
	}
	defer vault.Zero(pass)
	return s.Open(pass)
}

var (
	errNoVault            = errors.New("cli: no vault")
	errPassphraseMismatch = errors.New("cli: passphrases do not match")
	errNoTerminal         = errors.New("cli: no terminal to prompt on")
	errAmbiguous          = errors.New("cli: more than one entry matches")
)

// describeError turns an error into the message shown to the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, errNoVault):
		return "no vault found; add an entry with 'pwdeck new' to create one"
	case errors.Is(err, errPassphraseMismatch):
		return "passphrases do not match"
	case errors.Is(err, errNoTerminal):
		return "cannot prompt for a passphrase without a terminal; set " + passphraseEnv
	case errors.Is(err, errAmbiguous):
		return "more than one entry matches; narrow it down with --username or pass an id"
	case errors.Is(err, vault.ErrEmptyPassphrase):
		return "the passphrase must not be empty"
	case errors.Is(err, vault.ErrWrongPassphrase):
		return "wrong passphrase, or the vault file has been tampered with"
	case errors.Is(err, vault.ErrCorruptVault):
		return "the vault file is damaged or is not a pwdeck vault"
	case errors.Is(err, vault.ErrVaultLocked):
		return "the vault is in use by another pwdeck process"
	case errors.Is(err, vault.ErrVaultExists):
		return "a vault already exists at this path"
	case errors.Is(err, vault.ErrDuplicateEntry):
		return "an entry for this service and username already exists"
	case errors.Is(err, vault.ErrNotFound):
		return "no matching entry"
	case errors.Is(err, vault.ErrInvalidEntry):
		return "service and username are required"
	case errors.Is(err, vault.ErrEmptySecret):
		return "the secret must not be empty"
	case errors.Is(err, entropy.ErrUnavailable):
		return "the system random source is unavailable"
	case errors.Is(err, generator.ErrInvalidSize):
		return "size must be at least 1"
	case errors.Is(err, generator.ErrEmptyWordlist):
		return "diceware needs a wordlist; pass --wordlist or set 'wordlist' in the config"
	case errors.Is(err, generator.ErrDuplicateWord):
		return "the wordlist contains duplicate words"
	case errors.Is(err, generator.ErrUnknownMode):
		return "unknown generation mode; use 'random' or 'diceware'"
	default:
		return err.Error()
	}
}

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/fahmaliyi/pwdeck/generator"
	"github.com/fahmaliyi/pwdeck/logging"
	"github.com/fahmaliyi/pwdeck/vault"
	"github.com/spf13/cobra"
)

var (
	serviceStyle = lipgloss.NewStyle().Bold(true)
	idStyle      = lipgloss.NewStyle().Faint(true)
)

func closeVault(v *vault.Vault) {
	if err := v.Close(); err != nil {
		logging.L.Warn("closing vault", "err", err)
	}
}

func (a *App) newCmd() *cobra.Command {
	var (
		service, username, mode string
		size                    int
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Store a secret for a service and username",
		Long: `Store a secret for a service and username.

The secret is read from a hidden prompt, or from the first line of standard
input when it is not a terminal. With --generate the secret is generated
instead. The vault is created on first use.`,
		Example: `  pwdeck new --service github.com --username alice
  echo 'hunter2' | pwdeck new --service example.org --username bob
  pwdeck new --service mail --username carol --generate=diceware`,
		Args: newArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Everything the caller can get wrong is checked before the
			// vault is opened, so a failed first run creates no file.
			if service == "" || username == "" {
				return vault.ErrInvalidEntry
			}
			var secret []byte
			if cmd.Flags().Changed("generate") {
				s, err := a.generate(mode, size, cmd.Flags().Changed("size"))
				if err != nil {
					return err
				}
				secret = []byte(s)
			} else {
				s, err := a.readSecret()
				if err != nil {
					return err
				}
				secret = s
			}
			defer vault.Zero(secret)
			if len(secret) == 0 {
				return vault.ErrEmptySecret
			}

			v, err := a.openVault(true)
			if err != nil {
				return err
			}
			defer closeVault(v)

			e, err := v.Add(vault.Entry{Service: service, Username: username, Secret: secret})
			if err != nil {
				return err
			}
			vault.Zero(e.Secret)
			if err := v.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Stored %s / %s (%s)\n", e.Service, e.Username, e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service the secret belongs to")
	cmd.Flags().StringVar(&username, "username", "", "account name on the service")
	cmd.Flags().StringVarP(&mode, "generate", "g", "", "generate the secret instead of reading it; --generate=diceware picks the mode (default random)")
	cmd.Flags().Lookup("generate").NoOptDefVal = "random"
	cmd.Flags().IntVarP(&size, "size", "s", 0, "size of the generated secret")
	cmd.Flags().String("wordlist", "", "diceware word list file")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

// newArgs rejects positional arguments, pointing at the --generate=MODE form
// when the stray argument is a mode name.
func newArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if _, err := generator.ParseMode(args[0]); err == nil && cmd.Flags().Changed("generate") {
		return fmt.Errorf("unexpected argument %q; write the mode as --generate=%s", args[0], args[0])
	}
	return cobra.NoArgs(cmd, args)
}

func (a *App) getCmd() *cobra.Command {
	var (
		service, username string
		copyOut           bool
	)
	cmd := &cobra.Command{
		Use:   "get [ID]",
		Short: "Show a secret by id, or list entries",
		Long: `Show a secret by id, or list entries.

With an id the secret is printed (or copied with --copy). Without one the
matching entries are listed grouped by service; with --copy exactly one entry
must match.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openVault(false)
			if err != nil {
				return err
			}
			defer closeVault(v)

			var entries []vault.Entry
			switch {
			case len(args) == 1:
				e, err := v.Get(args[0])
				if err != nil {
					return err
				}
				entries = []vault.Entry{e}
			case service != "":
				entries = v.Find(service, username)
			default:
				for _, e := range v.List() {
					if username == "" || e.Username == username {
						entries = append(entries, e)
					} else {
						vault.Zero(e.Secret)
					}
				}
			}
			defer func() {
				for _, e := range entries {
					vault.Zero(e.Secret)
				}
			}()

			if len(entries) == 0 && (len(args) == 1 || service != "" || username != "") {
				return vault.ErrNotFound
			}
			if copyOut {
				if len(entries) != 1 {
					return errAmbiguous
				}
				return a.copySecret(cmd.Context(), string(entries[0].Secret))
			}
			if len(args) == 1 {
				fmt.Fprintln(a.Out, string(entries[0].Secret))
				return nil
			}
			fmt.Fprintln(a.Out, entryTree(filepath.Base(v.Path()), entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "only entries for this service")
	cmd.Flags().StringVar(&username, "username", "", "only entries for this username")
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "copy the secret to the clipboard")
	return cmd
}

// entryTree renders entries grouped by service, in first-seen order.
func entryTree(root string, entries []vault.Entry) string {
	t := tree.Root(root)
	groups := make(map[string]*tree.Tree)
	for _, e := range entries {
		g, ok := groups[e.Service]
		if !ok {
			g = tree.Root(serviceStyle.Render(e.Service))
			groups[e.Service] = g
			t.Child(g)
		}
		g.Child(e.Username + "  " + idStyle.Render(e.ID))
	}
	return t.String()
}

func (a *App) rmCmd() *cobra.Command {
	var service, username string
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove the entry for a service and username",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openVault(false)
			if err != nil {
				return err
			}
			defer closeVault(v)

			if err := v.Remove(service, username); err != nil {
				return err
			}
			if err := v.Commit(); err != nil {
				return err
			}
			fmt.Fprintf(a.Out, "Removed %s / %s\n", service, username)
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service of the entry")
	cmd.Flags().StringVar(&username, "username", "", "username of the entry")
	_ = cmd.MarkFlagRequired("service")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *App) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master passphrase",
		Long: `Change the master passphrase.

The vault is re-encrypted under a new salt. In scripts the current passphrase
is taken from ` + passphraseEnv + ` and the new one from ` + newPassphraseEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openVault(false)
			if err != nil {
				return err
			}
			defer closeVault(v)

			pass, err := a.newPassphrase(newPassphraseEnv)
			if err != nil {
				return err
			}
			defer vault.Zero(pass)

			if err := v.ChangePassphrase(pass); err != nil {
				return err
			}
			if err := v.Commit(); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Master passphrase changed.")
			return nil
		},
	}
}

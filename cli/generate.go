package cli

import (
	"fmt"

	"github.com/fahmaliyi/pwdeck/generator"
	"github.com/spf13/cobra"
)

func (a *App) generateCmd() *cobra.Command {
	var (
		size    int
		copyOut bool
	)
	cmd := &cobra.Command{
		Use:   "generate [random|diceware]",
		Short: "Print a new random password or diceware passphrase",
		Example: `  pwdeck generate
  pwdeck generate --size 40
  pwdeck generate diceware --wordlist eff_large_wordlist.txt --size 6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode string
			if len(args) == 1 {
				mode = args[0]
			}
			secret, err := a.generate(mode, size, cmd.Flags().Changed("size"))
			if err != nil {
				return err
			}
			if copyOut {
				return a.copySecret(cmd.Context(), secret)
			}
			fmt.Fprintln(a.Out, secret)
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "size", "s", 0, "characters for random, words for diceware (default 25 / 5)")
	cmd.Flags().String("wordlist", "", "diceware word list file")
	cmd.Flags().BoolVarP(&copyOut, "copy", "c", false, "copy to the clipboard instead of printing")
	return cmd
}

// generate runs the generator for a mode name. The per-mode default size
// applies only when sizeSet is false.
func (a *App) generate(modeName string, size int, sizeSet bool) (string, error) {
	mode, err := generator.ParseMode(modeName)
	if err != nil {
		return "", err
	}
	if !sizeSet {
		size = generator.DefaultSize(mode)
	}
	spec := generator.Spec{Mode: mode, Size: size}
	if mode == generator.Diceware && a.cfg.Wordlist != "" {
		if spec.Wordlist, err = LoadWordlist(a.cfg.Wordlist); err != nil {
			return "", err
		}
	}
	return generator.Generate(a.Entropy, spec)
}

package cli

import (
	"github.com/fahmaliyi/pwdeck/config"
	"github.com/spf13/cobra"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Render(a.cfg)
			if err != nil {
				return err
			}
			_, err = a.Out.Write(out)
			return err
		},
	}
}

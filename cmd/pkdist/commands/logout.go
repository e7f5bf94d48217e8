package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/internal/secure"
)

func NewLogoutCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove your cached passphrase from the OS keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}

			if err := secure.ForgetPassphrase(cfg.Settings.Identity); err != nil {
				return err
			}
			cfg.Logger.Info("Removed cached passphrase for '%s'", cfg.Settings.Identity)
			return nil
		},
	}
	return cmd
}

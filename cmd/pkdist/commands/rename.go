package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/pkg/passstore"
)

func NewRenameCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <name> <new-name>",
		Short: "Rename a password record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store := passstore.NewStore(cfg.Settings.PwStore)
			if rec, err := store.Read(args[0]); err == nil && rec.Metadata.Creator != cfg.Settings.Identity {
				cfg.Logger.Warn("Password '%s' was created by '%s'", args[0], rec.Metadata.Creator)
			}

			if err := store.Rename(args[0], args[1]); err != nil {
				return err
			}
			cfg.Logger.Info("Renamed '%s' to '%s'", args[0], args[1])
			return nil
		},
	}
	return cmd
}

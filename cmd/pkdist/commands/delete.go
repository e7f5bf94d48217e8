package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/pkg/passstore"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a password record",
		Args:  cobra.ExactArgs(1),
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

			if err := store.Delete(args[0]); err != nil {
				return err
			}
			cfg.Logger.Info("Deleted '%s'", args[0])
			return nil
		},
	}
	return cmd
}

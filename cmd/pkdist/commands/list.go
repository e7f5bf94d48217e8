package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/pkg/passstore"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List password records in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store := passstore.NewStore(cfg.Settings.PwStore)
			names, err := store.List()
			if err != nil {
				return err
			}

			for _, name := range names {
				if mine {
					rec, err := store.Read(name)
					if err != nil {
						cfg.Logger.Warn("Skipping unreadable record '%s': %v", name, err)
						continue
					}
					if _, ok := rec.Recipients[cfg.Settings.Identity]; !ok {
						continue
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "Only records shared with your identity")
	return cmd
}

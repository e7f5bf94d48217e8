package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
)

func NewDistributeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribute <name>",
		Short: "Re-encrypt a password to the resolved recipient list",
		Long: `Distribute decrypts your copy of a password record and encrypts it to
every resolved recipient (--users, --groups, --escrow-users). Existing
recipient entries are replaced; recipients not in the resolved list keep
their copies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}

			rec, err := sess.passwords.Read(args[0])
			if err != nil {
				return err
			}

			secret, err := sess.unseal(rec)
			if err != nil {
				return err
			}

			sealed, err := sess.seal(sess.recipients, secret)
			if err != nil {
				return err
			}

			if rec.Recipients == nil {
				rec.Recipients = sealed
			} else {
				for name, entry := range sealed {
					rec.Recipients[name] = entry
				}
			}

			if err := sess.passwords.Write(rec, true); err != nil {
				return err
			}

			cfg.Logger.Info("Distributed '%s' to %d recipient(s)", rec.Metadata.Name, len(sealed))
			return nil
		},
	}
	return cmd
}

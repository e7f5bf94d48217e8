package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
)

func NewShowCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Decrypt and print a password",
		Long: `Show decrypts your copy of a password record with your private key and
prints the secret to stdout, making it suitable for scripting:

  export DB_PASSWORD=$(pkdist show db-password)`,
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

			fmt.Fprintln(cmd.OutOrStdout(), string(secret))
			return nil
		},
	}
	return cmd
}

package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/pkg/passstore"
)

func NewCreateCommand(cfg *config.Config) *cobra.Command {
	var (
		description string
		authorizer  string
		overwrite   bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a password record encrypted to yourself and any escrow users",
		Long: `Create prompts for a secret and stores it encrypted to your own
certificate. Escrow users, if configured, each receive their own encrypted
copy. Use 'distribute' afterwards to share the record with other users or
groups.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			// create acts on the operator and escrow users only; users and
			// groups come into play at distribute time.
			cfg.Settings.Users = ""
			cfg.Settings.Groups = ""

			sess, err := newSession(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}

			if existing, err := sess.passwords.Read(name); err == nil {
				if existing.Metadata.Creator != cfg.Settings.Identity {
					cfg.Logger.Warn("Password '%s' was created by '%s'", name, existing.Metadata.Creator)
				}
				if !overwrite {
					return existingRecordError(name)
				}
			}

			secret, err := promptSecret()
			if err != nil {
				return err
			}

			targets := append([]string{cfg.Settings.Identity}, sess.recipients...)
			sealed, err := sess.seal(dedupe(targets), secret)
			if err != nil {
				return err
			}

			rec := &passstore.Record{
				Metadata: passstore.Metadata{
					Name:        name,
					Creator:     cfg.Settings.Identity,
					Description: description,
					Authorizer:  authorizer,
					CreatedAt:   time.Now(),
				},
				Recipients: sealed,
			}
			if err := sess.passwords.Write(rec, overwrite); err != nil {
				return err
			}

			cfg.Logger.Info("Created password '%s' for %d recipient(s)", name, len(sealed))
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Record description")
	cmd.Flags().StringVar(&authorizer, "authorizer", "", "Who authorized this secret")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing record")

	return cmd
}

package commands

import (
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	pkerrors "github.com/systmms/pkdist/internal/errors"
	"github.com/systmms/pkdist/internal/secure"
)

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Cache your key passphrase in the OS keyring",
		Long: `Login prompts for your private key passphrase, checks it by decrypting
a throwaway value with your own certificate, and caches it in the OS
keyring so later commands skip the prompt. Use logout to drop the cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}

			if cfg.Settings.NoCache {
				return pkerrors.UserError{
					Message:    "login is pointless with --nocache",
					Suggestion: "Drop --nocache, or skip login and enter the passphrase per command",
				}
			}

			// Session setup does not verify the operator, only their presence.
			// Derive the certificate records before inspecting them.
			operator := cfg.Settings.Identity
			if err := sess.store.VerifyIdentity(operator); err != nil {
				return err
			}
			id, ok := sess.store.Identity(operator)
			if !ok || len(id.Certificates) == 0 || id.KeyPath == "" {
				return pkerrors.UnknownIdentityError{UID: operator}
			}

			raw, err := promptHidden("Enter PIN/Passphrase: ")
			if err != nil {
				return err
			}

			// Round-trip a check value through the operator's own keypair so a
			// wrong passphrase never lands in the keyring.
			check := []byte("pkdist login check")
			ciphertext, err := sess.provider.Encrypt(id.Certificates[0].Raw, check)
			if err != nil {
				return err
			}
			if _, err := sess.provider.Decrypt(id.KeyPath, ciphertext, raw); err != nil {
				return pkerrors.UserError{
					Message:    "Passphrase check failed",
					Suggestion: "Verify the passphrase for your private key and try again",
					Err:        err,
				}
			}

			if err := secure.CachePassphrase(operator, string(raw)); err != nil {
				return err
			}
			cfg.Logger.Info("Cached passphrase for '%s'", operator)
			return nil
		},
	}
	return cmd
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
)

func NewListRecipientsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listrecipients",
		Short: "List identities in the trust store with their verification state",
		Long: `Listrecipients loads every identity from the configured certificate
sources, verifies all of them against the CA bundle, and prints one line
per identity. Unverified certificates are loud on purpose: they will fail
any create or distribute that targets them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The only command that verifies the whole store up front.
			sess, err := newSession(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "UID\tSUBJECT\tVERIFIED\tEXPIRES")
			for _, uid := range sess.store.UIDs() {
				id, _ := sess.store.Identity(uid)
				if len(id.Certificates) == 0 {
					fmt.Fprintf(w, "%s\t-\tno certificate\t-\n", uid)
					continue
				}
				cert := id.Certificates[0]
				expires := "-"
				if !cert.NotAfter.IsZero() {
					expires = cert.NotAfter.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", uid, cert.Subject, cert.Verified, expires)
			}
			return w.Flush()
		},
	}
	return cmd
}

package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/internal/connectors"
	"github.com/systmms/pkdist/internal/identity"
	"github.com/systmms/pkdist/pkg/crypto"
)

type checkResult struct {
	Name    string
	Status  string
	Message string
}

func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, trust paths, and certificate sources",
		Long: `Verify that pkdist is ready to encrypt and decrypt.

This command checks:
- Configuration file validity
- CA bundle, certificate, key, and password store paths
- Configured certificate connectors
- Your own identity's certificate and key`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]checkResult, 0, 8)
			check := func(name string, err error, okMsg string) bool {
				if err != nil {
					results = append(results, checkResult{name, "error", err.Error()})
					return false
				}
				results = append(results, checkResult{name, "ok", okMsg})
				return true
			}

			configOK := check("config", cfg.Load(), fmt.Sprintf("loaded %s", cfg.Path))
			if configOK {
				check("settings", cfg.Validate(), "paths resolve")
			}

			check("ca-bundle", statPath(cfg.Settings.CABundle), cfg.Settings.CABundle)
			check("pwstore", statPath(cfg.Settings.PwStore), cfg.Settings.PwStore)
			if cfg.Settings.KeyPath != "" {
				check("keypath", statPath(cfg.Settings.KeyPath), cfg.Settings.KeyPath)
			}

			registry := connectors.NewRegistry()
			if cfg.Settings.Connect != "" {
				cacheRoot, connect, err := cfg.ConnectMap()
				if check("connect-map", err, fmt.Sprintf("%d connector(s)", len(connect))) {
					names := make([]string, 0, len(connect))
					for name := range connect {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						_, err := registry.Create(name, connect[name])
						check("connector:"+name, err, "configured")
					}
					if cacheRoot != "" {
						results = append(results, checkResult{"cache-root", "ok", cacheRoot})
					}
				}
			}

			if configOK && cfg.Settings.CertPath != "" {
				store := identity.New(cfg.Settings.CABundle, crypto.NewX509Provider(), cfg.Logger, registry)
				if check("certificates", store.LoadCertificates(cmd.Context(), cfg.Settings.CertPath, nil, true),
					fmt.Sprintf("%d identit(ies)", len(store.UIDs()))) {
					if err := store.LoadKeys(cfg.Settings.KeyPath); err == nil {
						check("identity:"+cfg.Settings.Identity, store.VerifyIdentity(cfg.Settings.Identity), "certificate verifies")
					}
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
			failed := 0
			for _, r := range results {
				if r.Status != "ok" {
					failed++
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Status, r.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			cfg.Logger.Info("All checks passed")
			return nil
		},
	}
	return cmd
}

func statPath(path string) error {
	_, err := os.Stat(path)
	return err
}

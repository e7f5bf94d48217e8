package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"github.com/systmms/pkdist/cmd/pkdist/commands"
	"github.com/systmms/pkdist/internal/config"
	"github.com/systmms/pkdist/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Wipe any leftover enclave plaintext before exiting.
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	cfg := &config.Config{Settings: config.DefaultSettings()}
	if u, err := user.Current(); err == nil {
		cfg.Settings.Identity = u.Username
	}

	rootCmd := &cobra.Command{
		Use:   "pkdist",
		Short: "Distribute secrets encrypted to recipients' public-key certificates",
		Long: `pkdist encrypts a secret once per recipient using each recipient's X.509
certificate and stores the result as a password record. Recipients are
resolved from users, groups, and escrow users; certificates come from local
directories or from configured connectors (Vault, cloud secret managers,
SQL inventories).`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
			cfg.FlagChanged = cmd.Flags().Changed
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", ".pkdistrc", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.Settings.Identity, "identity", cfg.Settings.Identity, "Acting identity name")
	flags.StringVar(&cfg.Settings.CertPath, "certpath", "", "Certificate directory")
	flags.StringVar(&cfg.Settings.KeyPath, "keypath", cfg.Settings.KeyPath, "Private key directory")
	flags.StringVar(&cfg.Settings.CABundle, "cabundle", cfg.Settings.CABundle, "CA bundle file")
	flags.StringVar(&cfg.Settings.PwStore, "pwstore", cfg.Settings.PwStore, "Password store directory")
	flags.StringVar(&cfg.Settings.Connect, "connect", "", "Connect map (JSON: connector name → params)")
	flags.BoolVar(&cfg.Settings.NoCache, "nocache", false, "Bypass connector caches")
	flags.BoolVar(&cfg.Settings.NoVerify, "noverify", false, "Skip bulk verification on load")
	flags.BoolVar(&cfg.Settings.NoPassphrase, "nopassphrase", false, "Never prompt for a passphrase")
	flags.StringVar(&cfg.Settings.Users, "users", "", "Comma-separated recipient names")
	flags.StringVar(&cfg.Settings.Groups, "groups", "", "Comma-separated group names")
	flags.StringVar(&cfg.Settings.EscrowUsers, "escrow-users", "", "Comma-separated escrow recipient names")

	rootCmd.AddCommand(
		commands.NewCreateCommand(cfg),
		commands.NewShowCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewListRecipientsCommand(cfg),
		commands.NewDistributeCommand(cfg),
		commands.NewRenameCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewLogoutCommand(cfg),
		commands.NewDoctorCommand(cfg),
	)

	return rootCmd.Execute()
}

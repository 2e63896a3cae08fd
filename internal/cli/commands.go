package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/app"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
)

// Build information, set at link time
var (
	Version = "dev"
	Commit  = "unknown"
)

func createServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook listener and sync worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(resolveConfigPath())
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
}

func createSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Synchronize all configured containers once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(resolveConfigPath())
			if err != nil {
				return err
			}
			if !a.Runtime.IsAvailable(cmd.Context()) {
				return errors.RuntimeUnavailable(nil)
			}

			outcome := a.SyncOnce(cmd.Context())
			if !outcome.Success {
				return fmt.Errorf("sync failed for container %q: %s", outcome.Container, outcome.Message)
			}

			fmt.Fprintln(cmd.OutOrStdout(), outcome.Message)
			return nil
		},
	}
}

func createValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %d container(s), %d workflow(s)\n",
				len(cfg.Containers), len(cfg.Workflows))
			return nil
		},
	}
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pterodactyl-git-webhook %s (%s)\n", Version, Commit)
		},
	}
}

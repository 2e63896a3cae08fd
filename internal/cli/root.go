// Package cli defines the command-line interface of the webhook service
package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/xdg"
)

// defaultConfigFile is the config file name looked up when --config is unset
const defaultConfigFile = "config.toml"

// configPath is the global --config flag value
var configPath string

// resolveConfigPath returns the configuration file to load: the --config
// value when given, otherwise config.toml in the working directory, falling
// back to the XDG config directory
func resolveConfigPath() string {
	if configPath != defaultConfigFile {
		return configPath
	}
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}
	if dir, err := xdg.ConfigDir(); err == nil {
		candidate := filepath.Join(dir, defaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return configPath
}

// createRootCommand creates the root command with global flags
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pterodactyl-git-webhook",
		Short: "Git synchronization webhook for Pterodactyl containers",
		Long: `pterodactyl-git-webhook keeps the Git working trees inside Pterodactyl
game server containers in sync with their remote repositories. It listens
for GitHub push webhooks and applies a per-container workflow policy that
decides whether local changes are reset, committed, pulled and pushed, and
how nested submodules are handled.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigFile, "path to the configuration file")

	rootCmd.AddCommand(
		createServeCommand(),
		createSyncCommand(),
		createValidateCommand(),
		createVersionCommand(),
	)

	return rootCmd
}

// Execute runs the CLI with the given context and arguments
func Execute(ctx context.Context, args []string) error {
	rootCmd := createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

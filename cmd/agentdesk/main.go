// Command agentdesk runs the bakery help desk: an HTTP webhook for chat
// platforms, an interactive terminal chat and inspection helpers.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdesk/config"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
)

const defaultConfigPath = "agentdesk.json"

// configLoader loads the effective configuration for a command.
type configLoader func() (*config.Config, error)

func newRootCommand() *cobra.Command {
	var (
		configPath string
		envFiles   []string
	)

	cmd := &cobra.Command{
		Use:           "agentdesk",
		Short:         "Multi-agent customer service desk",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFiles(envFiles...)
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to the JSON config file")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading the environment")

	load := func() (*config.Config, error) { return config.Load(configPath) }

	cmd.AddCommand(
		newServeCommand(load),
		newChatCommand(load),
		newAgentsCommand(load),
		newVersionCommand(),
	)

	return cmd
}

// loadEnvFiles loads dotenv files without overriding variables that are
// already set. Missing files are ignored.
func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

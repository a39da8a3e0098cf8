// Package cmd assembles the matcher's cobra CLI.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuben-developer/fpmatch/cmd/match"
	"github.com/kuben-developer/fpmatch/internal/conf"
)

// RootCommand builds the top-level "fpmatch" command with its subcommands.
func RootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "fpmatch",
		Short: "Audio fingerprint matcher for campaign soundtrack backlogs",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings, err := conf.Load(configPath)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cmd.SetContext(conf.WithSettings(cmd.Context(), settings))
		return nil
	}

	rootCmd.AddCommand(match.Command())

	return rootCmd
}

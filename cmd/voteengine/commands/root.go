package commands

import (
	"github.com/apache/trusted-releases/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voteengine",
	Short: "Administer release votes",
	Long:  `voteengine drives the release-vote state machine: listing releases, tabulating votes, and resolving candidates outside the normal HTTP command surface.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "debug logging flag; no command reads it, logging stays at info level")
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Create the hoverpad directory and write the configuration file if it does
not exist yet. Environment variables and the file's current values are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfg.ConfigPath); err == nil {
			hint("Configuration already exists at %s", cfg.ConfigPath)
			return nil
		}

		if err := localStore.EnsureDir(); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		if err := cfg.SaveConfig(); err != nil {
			return err
		}

		success("Configuration written to %s", cfg.ConfigPath)
		hint("Run hoverpad unlock to choose a passphrase")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lockAll bool

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the pad and forget the passphrase",
	Long: `Lock the pad by clearing the passphrase from the session file. You will need to unlock again to read or write the pad.
With --all the session file is removed, including the idle timeout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessionMgr.Lock(cmd.Context()); err != nil {
			return fmt.Errorf("failed to lock pad: %w", err)
		}

		if lockAll {
			if err := sessionStore.Clear(); err != nil {
				return fmt.Errorf("failed to remove session file: %w", err)
			}
			hint("Removed %s", sessionStore.Path())
		}

		success("Pad locked")
		return nil
	},
}

func init() {
	lockCmd.Flags().BoolVar(&lockAll, "all", false, "also remove the session file and its idle timeout")
	rootCmd.AddCommand(lockCmd)
}

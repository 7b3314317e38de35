package cmd

import (
	"fmt"

	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/spf13/cobra"
)

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the pad",
	Long: `Unlock the pad with its passphrase. The passphrase is kept in the sealed
session file until the pad has been idle for the configured timeout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, err := sessionMgr.Status(ctx)
		if err != nil {
			return err
		}
		if status.State == session.Unlocked {
			fmt.Println("Pad is already unlocked")
			return nil
		}

		if !localStore.Exists() {
			hint("No pad yet, the passphrase you choose now will encrypt it")
		}

		passphrase, err := readPassphrase("Enter passphrase: ")
		if err != nil {
			return err
		}

		if err := padService.Unlock(ctx, passphrase); err != nil {
			return err
		}

		success("Pad unlocked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)
}

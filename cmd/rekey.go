package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Change the pad passphrase",
	Long: `Re-encrypt the pad under a new passphrase. The pad must be unlocked with the
current passphrase first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		newPassphrase, err := readPassphrase("Enter new passphrase: ")
		if err != nil {
			return err
		}

		confirm, err := readPassphrase("Confirm new passphrase: ")
		if err != nil {
			return err
		}

		if newPassphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := padService.Rekey(cmd.Context(), newPassphrase); err != nil {
			return explain(err)
		}

		success("Passphrase changed")
		syncIfEnabled(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rekeyCmd)
}

package cmd

import (
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the pad content",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := padService.Clear(cmd.Context()); err != nil {
			return err
		}

		success("Pad cleared")
		syncIfEnabled(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

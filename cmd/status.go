package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the pad is unlocked",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, err := sessionMgr.Status(ctx)
		if err != nil {
			return err
		}

		rec, err := padService.Record(ctx)
		if err != nil {
			return err
		}

		state := color.RedString(status.State.String())
		if status.State == session.Unlocked {
			state = color.GreenString(status.State.String())
		}
		fmt.Printf("State:      %s\n", state)

		if status.LockAfter > 0 {
			fmt.Printf("Lock after: %s\n", status.LockAfter)
		} else {
			fmt.Printf("Lock after: not set\n")
		}
		if status.State == session.Unlocked && status.Remaining > 0 {
			fmt.Printf("Locks in:   %s\n", formatRemaining(status.Remaining))
		}

		fmt.Printf("Version:    %d\n", rec.Version)
		if modified, err := rec.GetModifiedAtTime(); err == nil {
			fmt.Printf("Modified:   %s\n", modified.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Sync:       %t\n", dynamoStore != nil)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"fmt"

	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay in the foreground and lock the pad when it goes idle",
	Long: `Run the expiry timer in the foreground. The command returns once the pad
locks, or on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		locked := make(chan struct{}, 1)

		mgr := session.NewManager(sessionStore,
			session.WithLogger(log.GetChildLogger()),
			session.WithOnLock(func() {
				select {
				case locked <- struct{}{}:
				default:
				}
			}),
		)
		defer mgr.Close()

		check, err := mgr.CheckExpiry(ctx)
		if err != nil {
			return err
		}
		if check.State == session.Locked {
			fmt.Println("Pad is locked")
			return nil
		}
		if check.Next == 0 {
			warn("No lock timeout is set, the pad stays unlocked")
			return nil
		}

		hint("Pad locks in %s unless used", formatRemaining(check.Next))

		select {
		case <-locked:
			success("Pad locked")
		case <-ctx.Done():
			fmt.Println()
			hint("Stopped watching, the pad is still unlocked")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

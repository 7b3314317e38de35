package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hoverpad/hoverpad/internal/session"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Auth.ClientSecret != "" {
			shown.Auth.ClientSecret = "********"
		}

		data, err := json.MarshalIndent(shown, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

var configSetLockCmd = &cobra.Command{
	Use:   "set-lock <seconds>",
	Short: "Set the idle timeout after which the pad locks",
	Long: `Set the idle timeout in seconds. Zero removes the timeout, which locks the
pad on the next check.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || seconds < 0 {
			return fmt.Errorf("invalid number of seconds: %s", args[0])
		}
		if seconds > session.MaxLockAfterSeconds {
			return fmt.Errorf("invalid number of seconds: %s: %w", args[0], session.ErrLockAfterTooLarge)
		}

		if err := sessionMgr.SetLockAfter(cmd.Context(), seconds); err != nil {
			return err
		}

		cfg.SetLockAfter(seconds)
		if err := cfg.SaveConfig(); err != nil {
			return err
		}

		if seconds == 0 {
			success("Lock timeout removed")
		} else {
			success("Pad locks after %d seconds of inactivity", seconds)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetLockCmd)
	rootCmd.AddCommand(configCmd)
}

package cmd

import (
	"errors"

	"github.com/hoverpad/hoverpad/internal/logger"
	"github.com/hoverpad/hoverpad/internal/pad"
	"github.com/hoverpad/hoverpad/internal/storage"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the pad with DynamoDB",
	Long:  `Sync the local pad with the remote pad in DynamoDB. The higher version wins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := padService.Sync(cmd.Context())
		if err != nil {
			switch {
			case errors.Is(err, pad.ErrSyncDisabled):
				hint("Set sync_enabled in %s or HOVERPAD_SYNC_ENABLED=true", cfg.ConfigPath)
			case errors.Is(err, storage.ErrVersionConflict):
				hint("The remote pad changed during sync, run sync again")
			}
			return err
		}

		if res.Pulled {
			success("Pulled remote pad (version %d)", res.Version)
		} else {
			success("Pad synced (version %d)", res.Version)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

// syncIfEnabled pushes after a local change when sync is configured. Failures
// only warn since the local write already succeeded.
func syncIfEnabled(cmd *cobra.Command) {
	if dynamoStore == nil {
		return
	}
	if _, err := padService.Sync(cmd.Context()); err != nil {
		warn("Sync failed: %v", err)
		logger.FromContext(cmd.Context()).Warn().Err(err).Msg("sync after write failed")
	}
}

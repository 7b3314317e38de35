package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [output_path]",
	Short: "Create a backup of the pad",
	Long:  `Write the encrypted pad to a backup file. The backup can only be read with the pad passphrase.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := padService.Record(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load pad: %w", err)
		}
		if rec.Envelope == "" {
			return fmt.Errorf("pad is empty, nothing to back up")
		}

		// Determine output path
		var outputPath string
		if len(args) > 0 {
			outputPath = args[0]
		} else {
			dir := backupDir()
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("failed to create backup directory: %w", err)
			}
			timestamp := time.Now().UTC().Format("2006-01-02T15-04-05Z")
			outputPath = filepath.Join(dir, fmt.Sprintf("pad-%s.enc", timestamp))
		}

		data, err := rec.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize pad: %w", err)
		}

		if err := os.WriteFile(outputPath, data, 0600); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}

		success("Backup created at: %s", outputPath)
		return nil
	},
}

func backupDir() string {
	return filepath.Join(filepath.Dir(cfg.PadPath), "backups")
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

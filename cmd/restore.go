package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hoverpad/hoverpad/internal/storage"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [backup_path]",
	Short: "Restore the pad from a backup",
	Long: `Restore the pad from an encrypted backup file.
If no backup path is provided, lists available backups for selection.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var backupPath string

		if len(args) > 0 {
			backupPath = args[0]
		} else {
			backups, err := findBackups(backupDir())
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}
			if len(backups) == 0 {
				hint("Create a backup first with hoverpad backup")
				return fmt.Errorf("no backup files found in %s", backupDir())
			}

			fmt.Println("Available backups:")
			fmt.Println()
			for i, backup := range backups {
				fmt.Printf("  %d. %s\n", i+1, filepath.Base(backup.Path))
				fmt.Printf("     Created: %s\n", backup.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Println()
			}

			fmt.Print("Select backup to restore (enter number): ")
			input, err := stdin.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			input = strings.TrimSpace(input)
			selection, err := strconv.Atoi(input)
			if err != nil || selection < 1 || selection > len(backups) {
				return fmt.Errorf("invalid selection: %s", input)
			}
			backupPath = backups[selection-1].Path
		}

		data, err := os.ReadFile(backupPath)
		if err != nil {
			return fmt.Errorf("failed to read backup file: %w", err)
		}

		rec, err := storage.PadRecordFromJSON(data)
		if err != nil {
			return fmt.Errorf("backup file appears to be invalid or corrupted: %w", err)
		}

		if err := padService.Restore(cmd.Context(), rec); err != nil {
			return fmt.Errorf("failed to restore pad: %w", err)
		}

		success("Pad restored from: %s", filepath.Base(backupPath))
		hint("The pad opens with the passphrase it was backed up under")
		syncIfEnabled(cmd)
		return nil
	},
}

// BackupInfo holds information about a backup file
type BackupInfo struct {
	Path      string
	CreatedAt time.Time
}

// findBackups lists backup files in dir, newest first.
func findBackups(dir string) ([]BackupInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".enc") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      filepath.Join(dir, entry.Name()),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write [text]",
	Short: "Replace the pad",
	Long: `Replace the pad with the given text, or with standard input when no text is
given. Writing empty text clears the pad.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var content string
		if len(args) > 0 {
			content = strings.Join(args, " ")
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read standard input: %w", err)
			}
			content = string(data)
		}

		if err := padService.Save(cmd.Context(), content); err != nil {
			return explain(err)
		}

		success("Pad saved")
		syncIfEnabled(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
}

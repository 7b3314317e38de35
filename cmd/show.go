package cmd

import (
	"fmt"

	"github.com/hoverpad/hoverpad/internal/pad"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the pad",
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := padService.Open(cmd.Context())
		if err != nil {
			return explain(err)
		}

		if content == pad.ResetNotice {
			warn("%s", content)
			return nil
		}

		fmt.Print(content)
		if content != "" && content[len(content)-1] != '\n' {
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

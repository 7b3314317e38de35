package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hoverpad/hoverpad/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗")+" "+err.Error())
		os.Exit(1)
	}
}

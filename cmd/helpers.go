package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hoverpad/hoverpad/internal/crypto"
	"github.com/hoverpad/hoverpad/internal/session"
	"golang.org/x/term"
)

var stdin = bufio.NewReader(os.Stdin)

func success(format string, a ...any) {
	fmt.Println(color.GreenString("✓") + " " + fmt.Sprintf(format, a...))
}

func warn(format string, a ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString("!")+" "+fmt.Sprintf(format, a...))
}

func hint(format string, a ...any) {
	fmt.Println(color.CyanString("→") + " " + fmt.Sprintf(format, a...))
}

// readPassphrase prompts on the terminal, or reads one line when stdin is
// not a terminal.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print(prompt)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	defer crypto.Zeroize(b)
	return string(b), nil
}

// explain turns well-known errors into an actionable message.
func explain(err error) error {
	switch {
	case errors.Is(err, session.ErrLocked):
		hint("Run %s to unlock the pad", color.YellowString("hoverpad unlock"))
		return err
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return fmt.Errorf("cannot decrypt the pad, the passphrase is probably wrong: %w", err)
	default:
		return err
	}
}

func formatRemaining(d time.Duration) string {
	return d.Round(time.Second).String()
}

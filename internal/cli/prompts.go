package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrz1836/lantern/internal/vaultcrypto"
	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// promptMnemonic reads a recovery phrase. On a terminal the input is hidden;
// piped input is read as a plain line so scripting works.
func promptMnemonic(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter recovery phrase: ")

	var raw string
	if term.IsTerminal(int(syscall.Stdin)) {
		data, err := term.ReadPassword(int(syscall.Stdin))
		cmd.Println()
		if err != nil {
			return "", lanterr.Wrap(lanterr.ErrInvalidInput, "reading recovery phrase: %v", err)
		}
		raw = string(data)
	} else {
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", lanterr.Wrap(lanterr.ErrInvalidInput, "reading recovery phrase: %v", err)
		}
		raw = line
	}

	mnemonic := vaultcrypto.NormalizeMnemonic(raw)
	if mnemonic == "" {
		return "", lanterr.Wrap(lanterr.ErrInvalidInput, "recovery phrase is empty")
	}
	return mnemonic, nil
}

// promptConfirm asks a yes/no question and defaults to no.
func promptConfirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", question)

	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

// NewRootCmd builds the command tree. The App is constructed lazily in
// PersistentPreRunE so flag parsing and help never pay for wiring.
func NewRootCmd() *cobra.Command {
	opts := appOptions{}
	var app *App

	root := &cobra.Command{
		Use:   "lantern",
		Short: "A client-side orchestrator for an external wallet engine",
		Long: `Lantern manages the lifecycle of an external wallet engine process:
starting it, loading wallet credentials into it, switching between stored
wallets, and caching the addresses and balances it reports.

Example:
  lantern wallet create main
  lantern status
  lantern balances --refresh`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			app, err = newApp(opts)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if app != nil {
				app.Close(cmd.Context())
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to the config file (defaults apply when unset)")
	root.PersistentFlags().BoolVar(&opts.useKeyring, "keyring", false,
		"store credentials in the OS keychain instead of vault files")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"enable debug logging")

	appRef := func() *App { return app }
	root.AddCommand(
		newWalletCmd(appRef),
		newStatusCmd(appRef),
		newBalancesCmd(appRef),
		newRetryCmd(appRef),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		printError(err)
		return lanterr.ExitCode(err)
	}
	return 0
}

// printError renders an error for the terminal, including code and
// suggestion when the error carries them.
func printError(err error) {
	var le *lanterr.LanternError
	if lanterr.As(err, &le) {
		fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", le.Code, le.Message)
		if le.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", le.Suggestion)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", lanterr.ErrGeneral.Code, err)
}

package cli

import (
	"github.com/spf13/cobra"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

func newStatusCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show engine and wallet status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()

			if err := a.orch.StartEngine(ctx); err != nil {
				return err
			}
			if active := a.cache.ActiveWallet(); active != "" {
				// Best-effort: a failing stored wallet still yields a
				// status line, with the failure reflected in it.
				if err := a.orch.LoadExisting(ctx, active); err != nil {
					a.log.Debug().Err(err).Str("wallet", active).
						Msg("stored active wallet did not load")
				}
			}

			snap := a.orch.Status()
			cmd.Printf("Status:  %s\n", snap.Status)
			cmd.Printf("Engine:  started=%t initialized=%t\n",
				snap.Engine.Started, snap.Engine.Initialized)
			if snap.ActiveWalletID != "" {
				cmd.Printf("Wallet:  %s (%s)\n", snap.ActiveWalletID, snap.Lifecycle.Phase)
			} else {
				cmd.Printf("Wallet:  none loaded\n")
			}
			if snap.Lifecycle.Cause != nil {
				cmd.Printf("Cause:   %s\n",
					lanterr.Sanitize(snap.Lifecycle.Cause.Error(), a.cfg.Logging.SanitizeMode()))
			}
			if last, ok := a.cache.LastBalanceUpdate(snap.ActiveWalletID); ok {
				cmd.Printf("Balances last updated: %s\n", last.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}

func newRetryCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Clear the auth cooldown and error state so the next load can proceed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app().orch.Retry()
			cmd.Println("Cleared cooldown and error state.")
			return nil
		},
	}
}

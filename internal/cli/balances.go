package cli

import (
	"github.com/spf13/cobra"

	lanterr "github.com/mrz1836/lantern/pkg/errors"
)

func newBalancesCmd(app func() *App) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show cached balances for the active wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ctx := cmd.Context()

			active := a.cache.ActiveWallet()
			if active == "" {
				return lanterr.WithSuggestion(lanterr.ErrWalletNotInitialized,
					"load a wallet first with 'lantern wallet load'")
			}

			stale := a.cache.IsStale(active)
			if refresh || stale {
				if err := a.orch.StartEngine(ctx); err != nil {
					return err
				}
				if err := a.orch.LoadExisting(ctx, active); err != nil {
					return err
				}
				if err := a.orch.RefreshBalances(ctx); err != nil {
					return err
				}
			}

			entries := a.cache.WalletBalances(active)
			if len(entries) == 0 {
				cmd.Println("No balances cached. Run with --refresh.")
				return nil
			}
			cmd.Printf("Balances for %s:\n", active)
			for _, e := range entries {
				asset := e.Symbol
				if e.Asset != "" {
					asset = e.Asset
				}
				freshness := ""
				if stale && !refresh {
					freshness = " (stale)"
				}
				cmd.Printf("  %-10s %-8s %s (decimals %d)%s\n",
					e.Network, asset, e.Balance, e.Decimals, freshness)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false,
		"fetch fresh balances from the engine before printing")
	return cmd
}

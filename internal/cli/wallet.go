package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWalletCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create, load, switch, list, restore, and delete wallets",
	}
	cmd.AddCommand(
		newWalletCreateCmd(app),
		newWalletLoadCmd(app),
		newWalletSwitchCmd(app),
		newWalletListCmd(app),
		newWalletRestoreCmd(app),
		newWalletDeleteCmd(app),
	)
	return cmd
}

func newWalletCreateCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "create <wallet-id>",
		Short: "Create a new wallet and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			if err := a.orch.StartEngine(ctx); err != nil {
				return err
			}
			mnemonic, err := a.orch.CreateNew(ctx, args[0], nil)
			if err != nil {
				return err
			}

			cmd.Printf("Wallet %q created and loaded.\n\n", args[0])
			cmd.Println("Recovery phrase (write it down, it is shown exactly once):")
			cmd.Printf("\n  %s\n\n", mnemonic)
			return nil
		},
	}
}

func newWalletLoadCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "load <wallet-id>",
		Short: "Load a stored wallet and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			if err := a.orch.StartEngine(ctx); err != nil {
				return err
			}
			if err := a.orch.LoadExisting(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Wallet %q loaded.\n", args[0])
			return nil
		},
	}
}

func newWalletSwitchCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch <wallet-id>",
		Short: "Switch the active wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			if err := a.orch.StartEngine(ctx); err != nil {
				return err
			}
			// The CLI is one-shot, so establish a session first: switch
			// semantics only differ from load once a wallet is active.
			if active := a.cache.ActiveWallet(); active != "" && active != args[0] {
				if err := a.orch.LoadExisting(ctx, active); err != nil {
					return err
				}
			}
			if err := a.orch.SwitchTo(ctx, args[0]); err != nil {
				return err
			}
			cmd.Printf("Active wallet: %s\n", a.orch.ActiveWallet())
			return nil
		},
	}
}

func newWalletListCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored wallets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()

			ids, err := a.orch.ListWallets(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				cmd.Println("No wallets stored.")
				return nil
			}
			active := a.cache.ActiveWallet()
			for _, id := range ids {
				marker := " "
				if id == active {
					marker = "*"
				}
				cmd.Printf("%s %s\n", marker, id)
			}
			return nil
		},
	}
}

func newWalletRestoreCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <wallet-id>",
		Short: "Restore a wallet from its recovery phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()

			mnemonic, err := promptMnemonic(cmd)
			if err != nil {
				return err
			}
			if err := a.orch.StartEngine(ctx); err != nil {
				return err
			}
			if err := a.orch.RestoreExisting(ctx, args[0], mnemonic); err != nil {
				return err
			}
			cmd.Printf("Wallet %q restored and loaded.\n", args[0])
			return nil
		},
	}
}

func newWalletDeleteCmd(app func() *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <wallet-id>",
		Short: "Delete a wallet's stored credentials and cached data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()

			if !force && !promptConfirm(cmd,
				fmt.Sprintf("Delete wallet %q and all its data? This cannot be undone.", args[0])) {
				cmd.Println("Aborted.")
				return nil
			}
			if err := a.orch.DeleteWallet(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("Wallet %q deleted.\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

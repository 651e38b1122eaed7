package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newLedgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Issue assets and inspect balances",
	}
	cmd.AddCommand(newLedgerMintCmd(opts), newLedgerBalanceCmd(opts), newLedgerSupplyCmd(opts))
	return cmd
}

func newLedgerMintCmd(opts *options) *cobra.Command {
	var (
		to, assetID string
		amount      uint64
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Credit an account with a newly issued amount",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if err := a.engine.Issue(ctx, asset(assetID), account(to), amount); err != nil {
				return err
			}
			bal, err := a.engine.Balance(account(to), asset(assetID))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s=%d\n", to, assetID, bal)
			return nil
		}),
	}
	cmd.Flags().StringVar(&to, "to", "", "credited account")
	cmd.Flags().StringVar(&assetID, "asset", "", "asset")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "amount")
	requireFlags(cmd, "to", "asset", "amount")
	return cmd
}

func newLedgerBalanceCmd(opts *options) *cobra.Command {
	var acct, assetID string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an account balance",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			bal, err := a.engine.Balance(account(acct), asset(assetID))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s=%d\n", acct, assetID, bal)
			return nil
		}),
	}
	cmd.Flags().StringVar(&acct, "account", "", "account")
	cmd.Flags().StringVar(&assetID, "asset", "", "asset")
	requireFlags(cmd, "account", "asset")
	return cmd
}

func newLedgerSupplyCmd(opts *options) *cobra.Command {
	var assetID string
	cmd := &cobra.Command{
		Use:   "supply",
		Short: "Show the outstanding supply of an asset",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			s, err := a.backend.Ledger().Supply(asset(assetID))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s supply=%d\n", assetID, s)
			return nil
		}),
	}
	cmd.Flags().StringVar(&assetID, "asset", "", "asset (an LP mint is the hex mint_lp of a pool)")
	requireFlags(cmd, "asset")
	return cmd
}

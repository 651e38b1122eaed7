package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/core/escrow"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/spf13/cobra"
)

func newEscrowCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Single-shot escrow swaps",
	}
	cmd.AddCommand(
		newEscrowMakeCmd(opts),
		newEscrowTakeCmd(opts),
		newEscrowRefundCmd(opts),
		newEscrowShowCmd(opts),
	)
	return cmd
}

func escrowKey(s string) (keylet.Keylet, error) {
	return keylet.FromHex(keylet.TypeEscrow, s)
}

func newEscrowMakeCmd(opts *options) *cobra.Command {
	var (
		maker string
		mintA string
		mintB string
		p     escrow.MakeParams
	)
	cmd := &cobra.Command{
		Use:   "make",
		Short: "Lock an asset until someone pays the asked amount",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			p.Maker = account(maker)
			p.MintA = asset(mintA)
			p.MintB = asset(mintB)
			k, err := a.escrow.Make(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "escrow %s\n", k.ID())
			return nil
		}),
	}
	cmd.Flags().StringVar(&maker, "maker", "", "maker account")
	cmd.Flags().Uint64Var(&p.Seed, "seed", 0, "maker-chosen escrow seed")
	cmd.Flags().StringVar(&mintA, "give", "", "asset the maker deposits")
	cmd.Flags().StringVar(&mintB, "want", "", "asset the maker receives")
	cmd.Flags().Uint64Var(&p.DepositAmount, "deposit", 0, "amount deposited")
	cmd.Flags().Uint64Var(&p.ReceiveAmount, "receive", 0, "amount asked in return")
	requireFlags(cmd, "maker", "give", "want", "deposit", "receive")
	return cmd
}

func newEscrowTakeCmd(opts *options) *cobra.Command {
	var taker, key string
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Pay an escrow's asked amount and receive its deposit",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := escrowKey(key)
			if err != nil {
				return err
			}
			if err := a.escrow.Take(ctx, account(taker), k); err != nil {
				return err
			}
			fmt.Fprintf(out, "escrow %s filled by %s\n", k.ID(), taker)
			return nil
		}),
	}
	cmd.Flags().StringVar(&taker, "taker", "", "taker account")
	cmd.Flags().StringVar(&key, "escrow", "", "escrow key (hex)")
	requireFlags(cmd, "taker", "escrow")
	return cmd
}

func newEscrowRefundCmd(opts *options) *cobra.Command {
	var maker, key string
	cmd := &cobra.Command{
		Use:   "refund",
		Short: "Return an open escrow's deposit to its maker",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := escrowKey(key)
			if err != nil {
				return err
			}
			if err := a.escrow.Refund(ctx, account(maker), k); err != nil {
				return err
			}
			fmt.Fprintf(out, "escrow %s refunded\n", k.ID())
			return nil
		}),
	}
	cmd.Flags().StringVar(&maker, "maker", "", "maker account")
	cmd.Flags().StringVar(&key, "escrow", "", "escrow key (hex)")
	requireFlags(cmd, "maker", "escrow")
	return cmd
}

func newEscrowShowCmd(opts *options) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an escrow",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := escrowKey(key)
			if err != nil {
				return err
			}
			esc, err := a.escrow.Get(ctx, k)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]any{
				"key":            k.ID(),
				"maker":          esc.Maker,
				"seed":           esc.Seed,
				"give":           esc.MintA,
				"want":           esc.MintB,
				"deposit_amount": esc.DepositAmount,
				"receive_amount": esc.ReceiveAmount,
				"status":         esc.Status.String(),
				"taker":          esc.Taker,
			})
		}),
	}
	cmd.Flags().StringVar(&key, "escrow", "", "escrow key (hex)")
	requireFlags(cmd, "escrow")
	return cmd
}

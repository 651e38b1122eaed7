package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/spf13/cobra"
)

func newSwapCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Trade against a pool",
	}
	cmd.AddCommand(
		newSwapInCmd(opts),
		newSwapOutCmd(opts),
		newSwapQuoteCmd(opts),
	)
	return cmd
}

type poolDirection struct {
	pool      keylet.Keylet
	direction amm.Direction
}

// swapFlags are shared by every swap command.
type swapFlags struct {
	ref       poolRef
	trader    string
	direction string
	referrer  string
}

func (f *swapFlags) register(cmd *cobra.Command, trader bool) {
	f.ref.register(cmd)
	cmd.Flags().StringVar(&f.direction, "direction", "x_to_y", "x_to_y or y_to_x")
	if trader {
		cmd.Flags().StringVar(&f.trader, "trader", "", "trading account")
		cmd.Flags().StringVar(&f.referrer, "referrer", "", "referrer credited with the referral fee share")
		requireFlags(cmd, "trader")
	}
}

func (f *swapFlags) resolve() (poolDirection, error) {
	k, err := f.ref.keylet()
	if err != nil {
		return poolDirection{}, err
	}
	d, err := amm.ParseDirection(f.direction)
	if err != nil {
		return poolDirection{}, err
	}
	return poolDirection{pool: k, direction: d}, nil
}

func (f *swapFlags) referral() amm.Referral {
	if f.referrer == "" {
		return amm.Referral{}
	}
	return amm.ReferredBy(account(f.referrer))
}

func printSwap(out io.Writer, r amm.SwapResult) {
	fmt.Fprintf(out, "in=%d out=%d fee=%d protocol_fee=%d referral_fee=%d\n",
		r.AmountIn, r.AmountOut, r.Fee, r.ProtocolFee, r.ReferralFee)
}

func newSwapInCmd(opts *options) *cobra.Command {
	var (
		f      swapFlags
		amount uint64
		minOut uint64
	)
	cmd := &cobra.Command{
		Use:   "in",
		Short: "Sell an exact input amount",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			pd, err := f.resolve()
			if err != nil {
				return err
			}
			res, err := a.engine.SwapExactIn(ctx, amm.SwapExactInParams{
				Pool:         pd.pool,
				Trader:       account(f.trader),
				Direction:    pd.direction,
				AmountIn:     amount,
				MinAmountOut: minOut,
				Referral:     f.referral(),
			})
			if err != nil {
				return err
			}
			printSwap(out, res)
			return nil
		}),
	}
	f.register(cmd, true)
	cmd.Flags().Uint64Var(&amount, "amount", 0, "input amount")
	cmd.Flags().Uint64Var(&minOut, "min-out", 0, "least output to accept")
	requireFlags(cmd, "amount")
	return cmd
}

func newSwapOutCmd(opts *options) *cobra.Command {
	var (
		f      swapFlags
		amount uint64
		maxIn  uint64
	)
	cmd := &cobra.Command{
		Use:   "out",
		Short: "Buy an exact output amount",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			pd, err := f.resolve()
			if err != nil {
				return err
			}
			res, err := a.engine.SwapExactOut(ctx, amm.SwapExactOutParams{
				Pool:        pd.pool,
				Trader:      account(f.trader),
				Direction:   pd.direction,
				AmountOut:   amount,
				MaxAmountIn: maxIn,
				Referral:    f.referral(),
			})
			if err != nil {
				return err
			}
			printSwap(out, res)
			return nil
		}),
	}
	f.register(cmd, true)
	cmd.Flags().Uint64Var(&amount, "amount", 0, "output amount")
	cmd.Flags().Uint64Var(&maxIn, "max-in", 0, "most input to pay")
	requireFlags(cmd, "amount", "max-in")
	return cmd
}

func newSwapQuoteCmd(opts *options) *cobra.Command {
	var (
		f         swapFlags
		amountIn  uint64
		amountOut uint64
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap without executing it",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			pd, err := f.resolve()
			if err != nil {
				return err
			}
			var res amm.SwapResult
			switch {
			case amountIn > 0 && amountOut > 0:
				return errors.New("--in and --out are mutually exclusive")
			case amountIn > 0:
				res, err = a.engine.QuoteExactIn(ctx, pd.pool, pd.direction, amountIn)
			case amountOut > 0:
				res, err = a.engine.QuoteExactOut(ctx, pd.pool, pd.direction, amountOut)
			default:
				return errors.New("one of --in or --out is required")
			}
			if err != nil {
				return err
			}
			printSwap(out, res)
			return nil
		}),
	}
	f.register(cmd, false)
	cmd.Flags().Uint64Var(&amountIn, "in", 0, "input amount to price")
	cmd.Flags().Uint64Var(&amountOut, "out", 0, "output amount to price")
	return cmd
}

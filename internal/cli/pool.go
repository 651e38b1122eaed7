package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/spf13/cobra"
)

func newPoolCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Create pools and move liquidity",
	}
	cmd.AddCommand(
		newPoolInitCmd(opts),
		newPoolDepositCmd(opts),
		newPoolWithdrawCmd(opts),
		newPoolShowCmd(opts),
		newPoolListCmd(opts),
		newPoolLockCmd(opts),
	)
	return cmd
}

func newPoolInitCmd(opts *options) *cobra.Command {
	var (
		creator string
		p       amm.InitializeParams
		mintX   string
		mintY   string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pool with its seed deposit",
		Long: `Initialize a pool for an asset pair. Without --lp the creator receives
floor(sqrt(x*y)) LP tokens for --deposit-x and --max-y. With --lp the Y
deposit is derived as ceil(lp^2/x) and must not exceed --max-y.`,
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			p.Creator = account(creator)
			p.MintX = asset(mintX)
			p.MintY = asset(mintY)
			if p.MaxX == 0 {
				p.MaxX = p.DepositX
			}
			res, err := a.engine.InitializePool(ctx, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "pool %s\n", res.Pool.ID())
			fmt.Fprintf(out, "deposited x=%d y=%d lp=%d\n", res.DepositX, res.DepositY, res.LPMinted)
			return nil
		}),
	}
	cmd.Flags().StringVar(&creator, "creator", "", "creator account")
	cmd.Flags().StringVar(&mintX, "x", "", "X asset")
	cmd.Flags().StringVar(&mintY, "y", "", "Y asset")
	cmd.Flags().Uint64Var(&p.PoolID, "pool-id", 0, "pool id within the asset pair")
	cmd.Flags().Uint16Var(&p.FeeBps, "fee-bps", 30, "swap fee in basis points")
	cmd.Flags().Uint64Var(&p.RequestedLP, "lp", 0, "LP tokens to mint (0 derives them from the deposit)")
	cmd.Flags().Uint64Var(&p.DepositX, "deposit-x", 0, "X seed deposit")
	cmd.Flags().Uint64Var(&p.MaxX, "max-x", 0, "most X to deposit (defaults to --deposit-x)")
	cmd.Flags().Uint64Var(&p.MaxY, "max-y", 0, "Y seed deposit, or the most Y to deposit with --lp")
	requireFlags(cmd, "creator", "x", "y", "deposit-x", "max-y")
	return cmd
}

func newPoolDepositCmd(opts *options) *cobra.Command {
	var (
		ref       poolRef
		depositor string
		p         amm.DepositParams
	)
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit both assets for an exact amount of LP tokens",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := ref.keylet()
			if err != nil {
				return err
			}
			p.Pool = k
			p.Depositor = account(depositor)
			res, err := a.engine.Deposit(ctx, p)
			if err != nil {
				return err
			}
			printLiquidity(out, "deposited", res)
			return nil
		}),
	}
	ref.register(cmd)
	cmd.Flags().StringVar(&depositor, "depositor", "", "depositing account")
	cmd.Flags().Uint64Var(&p.LPAmount, "lp", 0, "LP tokens to mint")
	cmd.Flags().Uint64Var(&p.MaxX, "max-x", 0, "most X to pay")
	cmd.Flags().Uint64Var(&p.MaxY, "max-y", 0, "most Y to pay")
	requireFlags(cmd, "depositor", "lp", "max-x", "max-y")
	return cmd
}

func newPoolWithdrawCmd(opts *options) *cobra.Command {
	var (
		ref        poolRef
		withdrawer string
		p          amm.WithdrawParams
	)
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Redeem LP tokens for both assets",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := ref.keylet()
			if err != nil {
				return err
			}
			p.Pool = k
			p.Withdrawer = account(withdrawer)
			res, err := a.engine.Withdraw(ctx, p)
			if err != nil {
				return err
			}
			printLiquidity(out, "withdrew", res)
			return nil
		}),
	}
	ref.register(cmd)
	cmd.Flags().StringVar(&withdrawer, "withdrawer", "", "withdrawing account")
	cmd.Flags().Uint64Var(&p.LPAmount, "lp", 0, "LP tokens to burn")
	cmd.Flags().Uint64Var(&p.MinAmountX, "min-x", 0, "least X to receive")
	cmd.Flags().Uint64Var(&p.MinAmountY, "min-y", 0, "least Y to receive")
	requireFlags(cmd, "withdrawer", "lp")
	return cmd
}

func newPoolShowCmd(opts *options) *cobra.Command {
	var ref poolRef
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a pool and its reserves",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := ref.keylet()
			if err != nil {
				return err
			}
			info, err := a.engine.PoolInfo(ctx, k)
			if err != nil {
				return err
			}
			return printJSON(out, newPoolView(info))
		}),
	}
	ref.register(cmd)
	return cmd
}

func newPoolListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every pool",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			pools, err := a.engine.Pools(ctx)
			if err != nil {
				return err
			}
			views := make([]poolView, 0, len(pools))
			for _, p := range pools {
				views = append(views, newPoolView(p))
			}
			return printJSON(out, views)
		}),
	}
}

func newPoolLockCmd(opts *options) *cobra.Command {
	var (
		ref    poolRef
		admin  string
		locked bool
	)
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Lock or unlock a pool (protocol admin only)",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			k, err := ref.keylet()
			if err != nil {
				return err
			}
			if err := a.engine.SetPoolLock(ctx, account(admin), k, locked); err != nil {
				return err
			}
			fmt.Fprintf(out, "pool %s locked=%t\n", k.ID(), locked)
			return nil
		}),
	}
	ref.register(cmd)
	cmd.Flags().StringVar(&admin, "admin", "", "protocol admin account")
	cmd.Flags().BoolVar(&locked, "locked", true, "lock state to set")
	requireFlags(cmd, "admin")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/spf13/cobra"
)

func newProtocolCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "Manage the protocol fee configuration",
	}
	cmd.AddCommand(
		newProtocolInitCmd(opts),
		newProtocolSetCmd(opts),
		newProtocolReferralFeeCmd(opts),
		newProtocolShowCmd(opts),
	)
	return cmd
}

func newProtocolInitCmd(opts *options) *cobra.Command {
	var (
		admin      string
		feeAccount string
		p          amm.ProtocolParams
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the protocol config",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			p.Admin = account(admin)
			p.FeeAccount = account(feeAccount)
			if err := a.engine.InitializeProtocol(ctx, p); err != nil {
				return err
			}
			fmt.Fprintf(out, "protocol initialized admin=%s protocol_fee_bps=%d referral_fee_bps=%d\n",
				p.Admin, p.ProtocolFeeBps, p.ReferralFeeBps)
			return nil
		}),
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin account")
	cmd.Flags().StringVar(&feeAccount, "fee-account", "", "account receiving the protocol fee share")
	cmd.Flags().Uint16Var(&p.ProtocolFeeBps, "protocol-fee-bps", 0, "protocol share of each swap fee")
	cmd.Flags().Uint16Var(&p.ReferralFeeBps, "referral-fee-bps", amm.DefaultReferralFeeBps, "referral share of each swap fee")
	requireFlags(cmd, "admin", "fee-account")
	return cmd
}

func newProtocolSetCmd(opts *options) *cobra.Command {
	var (
		admin      string
		feeAccount string
		bps        uint16
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the protocol fee share and fee account",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if err := a.engine.SetProtocolConfig(ctx, account(admin), bps, account(feeAccount)); err != nil {
				return err
			}
			fmt.Fprintf(out, "protocol_fee_bps=%d fee_account=%s\n", bps, feeAccount)
			return nil
		}),
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin account")
	cmd.Flags().StringVar(&feeAccount, "fee-account", "", "account receiving the protocol fee share")
	cmd.Flags().Uint16Var(&bps, "protocol-fee-bps", 0, "protocol share of each swap fee")
	requireFlags(cmd, "admin", "fee-account", "protocol-fee-bps")
	return cmd
}

func newProtocolReferralFeeCmd(opts *options) *cobra.Command {
	var (
		admin string
		bps   uint16
	)
	cmd := &cobra.Command{
		Use:   "referral-fee",
		Short: "Update the referral fee share",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if err := a.engine.SetReferralFee(ctx, account(admin), bps); err != nil {
				return err
			}
			fmt.Fprintf(out, "referral_fee_bps=%d\n", bps)
			return nil
		}),
	}
	cmd.Flags().StringVar(&admin, "admin", "", "admin account")
	cmd.Flags().Uint16Var(&bps, "bps", 0, "referral share of each swap fee")
	requireFlags(cmd, "admin", "bps")
	return cmd
}

func newProtocolShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the protocol config",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			cfg, err := a.engine.ProtocolConfig(ctx)
			if err != nil {
				return err
			}
			return printJSON(out, map[string]any{
				"admin":            cfg.Admin,
				"protocol_fee_bps": cfg.ProtocolFeeBps,
				"referral_fee_bps": cfg.ReferralFeeBps,
				"fee_account":      cfg.FeeAccount,
			})
		}),
	}
}

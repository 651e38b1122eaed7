package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/state"
	"github.com/spf13/cobra"
)

func newProfileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage referral profiles",
	}
	cmd.AddCommand(
		newProfileCreateCmd(opts),
		newProfileShowCmd(opts),
		newProfileLockCmd(opts),
	)
	return cmd
}

func printProfile(out io.Writer, p *state.ReferralProfile) error {
	return printJSON(out, map[string]any{
		"referrer":       p.Referrer,
		"profile_id":     p.ProfileID,
		"payout_account": p.PayoutAccount,
		"created_at":     time.Unix(p.CreatedAt, 0).UTC(),
		"expires_at":     time.Unix(p.ExpiresAt, 0).UTC(),
		"locked":         p.Locked,
		"resolvable":     p.Resolvable(time.Now()),
	})
}

func newProfileCreateCmd(opts *options) *cobra.Command {
	var (
		referrer string
		payout   string
		id       string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a referral profile",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			p, err := a.engine.CreateReferralProfile(ctx, amm.ProfileParams{
				Referrer:      account(referrer),
				ProfileID:     id,
				PayoutAccount: account(payout),
			})
			if err != nil {
				return err
			}
			return printProfile(out, p)
		}),
	}
	cmd.Flags().StringVar(&referrer, "referrer", "", "referrer account")
	cmd.Flags().StringVar(&payout, "payout", "", "payout account (defaults to the referrer)")
	cmd.Flags().StringVar(&id, "id", "", "free-form profile id")
	requireFlags(cmd, "referrer")
	return cmd
}

func newProfileShowCmd(opts *options) *cobra.Command {
	var referrer string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a referral profile",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			p, err := a.engine.Profile(ctx, account(referrer))
			if err != nil {
				return err
			}
			return printProfile(out, p)
		}),
	}
	cmd.Flags().StringVar(&referrer, "referrer", "", "referrer account")
	requireFlags(cmd, "referrer")
	return cmd
}

func newProfileLockCmd(opts *options) *cobra.Command {
	var (
		admin    string
		referrer string
		locked   bool
	)
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Block or restore referral payouts (protocol admin only)",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if err := a.engine.SetProfileLock(ctx, account(admin), account(referrer), locked); err != nil {
				return err
			}
			fmt.Fprintf(out, "profile %s locked=%t\n", referrer, locked)
			return nil
		}),
	}
	cmd.Flags().StringVar(&admin, "admin", "", "protocol admin account")
	cmd.Flags().StringVar(&referrer, "referrer", "", "referrer account")
	cmd.Flags().BoolVar(&locked, "locked", true, "lock state to set")
	requireFlags(cmd, "admin", "referrer")
	return cmd
}

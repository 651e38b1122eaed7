package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/LeJamon/cpamm/internal/storage/journal"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var f journal.Filter
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled settlements, newest first",
		RunE: opts.withApp(func(ctx context.Context, a *app, out io.Writer) error {
			if a.journal == nil {
				return errors.New("no journal configured (set journal.driver)")
			}
			entries, err := a.journal.List(ctx, f)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%d %s %s actor=%s key=%s in=%d %s out=%d %s lp=%d fee=%d protocol_fee=%d referral_fee=%d\n",
					e.Seq, e.Time.Format(time.RFC3339), e.Op, e.Actor, e.Key,
					e.AmountIn, e.AssetIn, e.AmountOut, e.AssetOut,
					e.LPAmount, e.Fee, e.ProtocolFee, e.ReferralFee)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&f.Op, "op", "", "only this operation (e.g. swap_exact_in)")
	cmd.Flags().StringVar(&f.Key, "key", "", "only this record key (hex)")
	cmd.Flags().StringVar(&f.Actor, "actor", "", "only this actor")
	cmd.Flags().IntVar(&f.Limit, "limit", journal.DefaultListLimit, "most entries to list")
	return cmd
}

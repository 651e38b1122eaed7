// Package cli implements the cpammd command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is the cpammd release, overridden at link time.
var Version = "0.1.0-dev"

// options holds the persistent flags shared by every command.
type options struct {
	configFile string
	debug      bool
}

// newRootCmd builds the command tree. A fresh tree per execution keeps flag
// values from leaking between runs.
func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "cpammd",
		Short: "cpammd - constant-product AMM settlement engine",
		Long: `cpammd runs a constant-product automated market maker over a local
asset ledger: pools of two assets priced by x*y=k, LP token accounting,
exact-in and exact-out swaps with protocol and referral fee shares, and
single-shot escrow swaps.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.configFile, "conf", "", "configuration file path")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable normally suppressed debug logging")

	cmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newPoolCmd(opts),
		newSwapCmd(opts),
		newProtocolCmd(opts),
		newProfileCmd(opts),
		newEscrowCmd(opts),
		newLedgerCmd(opts),
		newHistoryCmd(opts),
		newSimulateCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// Execute runs the command tree. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/LeJamon/cpamm/internal/config"
	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// simulation drives concurrent random swaps against a set of pools.
type simulation struct {
	pools     int
	traders   int
	swaps     int
	seed      uint64
	liquidity uint64
	feeBps    uint16
}

// simulationReport summarizes a run.
type simulationReport struct {
	Codes map[string]int
	Pools []amm.PoolInfo
	// Start holds each pool's invariant before trading, by key.
	Start map[string]*uint256.Int
}

const simQuote ledger.AssetID = "SIM-QUOTE"

func (s simulation) run(ctx context.Context, a *app) (*simulationReport, error) {
	const provider ledger.AccountID = "sim-provider"

	report := &simulationReport{Codes: make(map[string]int), Start: make(map[string]*uint256.Int)}
	keys := make([]keylet.Keylet, s.pools)
	for i := range keys {
		base := ledger.AssetID(fmt.Sprintf("SIM-%d", i))
		if err := a.engine.Issue(ctx, base, provider, s.liquidity); err != nil {
			return nil, err
		}
		if err := a.engine.Issue(ctx, simQuote, provider, s.liquidity); err != nil {
			return nil, err
		}
		res, err := a.engine.InitializePool(ctx, amm.InitializeParams{
			Creator:  provider,
			MintX:    base,
			MintY:    simQuote,
			PoolID:   s.seed,
			FeeBps:   s.feeBps,
			DepositX: s.liquidity,
			MaxX:     s.liquidity,
			MaxY:     s.liquidity,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize pool %d: %w", i, err)
		}
		keys[i] = res.Pool
		report.Start[res.Pool.ID()] = new(uint256.Int).Mul(uint256.NewInt(s.liquidity), uint256.NewInt(s.liquidity))
	}

	// Each trader holds a tenth of a pool's depth in every asset.
	stake := max(s.liquidity/10, 1)
	for t := 0; t < s.traders; t++ {
		trader := ledger.AccountID(fmt.Sprintf("sim-trader-%d", t))
		if err := a.engine.Issue(ctx, simQuote, trader, stake); err != nil {
			return nil, err
		}
		for i := range keys {
			if err := a.engine.Issue(ctx, ledger.AssetID(fmt.Sprintf("SIM-%d", i)), trader, stake); err != nil {
				return nil, err
			}
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < s.traders; t++ {
		trader := ledger.AccountID(fmt.Sprintf("sim-trader-%d", t))
		rng := rand.New(rand.NewPCG(s.seed, uint64(t)))
		g.Go(func() error {
			for n := 0; n < s.swaps; n++ {
				p := amm.SwapExactInParams{
					Pool:      keys[rng.IntN(len(keys))],
					Trader:    trader,
					Direction: amm.Direction(rng.IntN(2)),
					AmountIn:  rng.Uint64N(max(stake/20, 1)) + 1,
				}
				_, err := a.engine.SwapExactIn(gctx, p)
				code := amm.Code(err)
				mu.Lock()
				report.Codes[code]++
				mu.Unlock()
				if code == "Internal" {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, k := range keys {
		info, err := a.engine.PoolInfo(ctx, k)
		if err != nil {
			return nil, err
		}
		report.Pools = append(report.Pools, info)
	}
	return report, nil
}

// Check reports the first pool whose invariant fell below its start.
func (r *simulationReport) Check() error {
	for _, p := range r.Pools {
		if p.K().Lt(r.Start[p.Key.ID()]) {
			return fmt.Errorf("pool %s: k %s fell below %s", p.Key.ID(), p.K().Dec(), r.Start[p.Key.ID()].Dec())
		}
	}
	return nil
}

func (r *simulationReport) print(out io.Writer) {
	codes := make([]string, 0, len(r.Codes))
	for c := range r.Codes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	for _, c := range codes {
		fmt.Fprintf(out, "%-22s %d\n", c, r.Codes[c])
	}
	for _, p := range r.Pools {
		fmt.Fprintf(out, "%s/%s x=%d y=%d k=%s (start %s)\n",
			p.Pool.MintX, p.Pool.MintY, p.ReserveX, p.ReserveY, p.K().Dec(), r.Start[p.Key.ID()].Dec())
	}
}

func newSimulateCmd(opts *options) *cobra.Command {
	var (
		sim     simulation
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run concurrent random swaps and check the pool invariant",
		Long: `Create a set of pools, fund a set of traders and let every trader swap
concurrently against random pools. The run fails if any pool's x*y ends
below its initial value. State is kept in memory unless --persist is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			if !persist {
				cfg.Storage.Backend = config.BackendMemory
			}
			return opts.runWith(cmd, cfg, func(ctx context.Context, a *app, out io.Writer) error {
				a.log.Info("simulation starting",
					zap.Int("pools", sim.pools),
					zap.Int("traders", sim.traders),
					zap.Int("swaps", sim.swaps))
				report, err := sim.run(ctx, a)
				if err != nil {
					return err
				}
				report.print(out)
				return report.Check()
			})
		},
	}
	cmd.Flags().IntVar(&sim.pools, "pools", 4, "number of pools")
	cmd.Flags().IntVar(&sim.traders, "traders", 8, "number of concurrent traders")
	cmd.Flags().IntVar(&sim.swaps, "swaps", 200, "swaps per trader")
	cmd.Flags().Uint64Var(&sim.seed, "seed", 1, "random seed, also used as the pool id")
	cmd.Flags().Uint64Var(&sim.liquidity, "liquidity", 1_000_000, "initial reserve of each pool asset")
	cmd.Flags().Uint16Var(&sim.feeBps, "fee-bps", 30, "pool swap fee")
	cmd.Flags().BoolVar(&persist, "persist", false, "run against the configured storage instead of memory")
	return cmd
}

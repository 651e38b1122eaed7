package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/spf13/cobra"
)

// poolRef selects a pool either by its hex key or by mint pair and pool id.
type poolRef struct {
	key    string
	mintX  string
	mintY  string
	poolID uint64
}

func (r *poolRef) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.key, "pool", "", "pool key (hex)")
	cmd.Flags().StringVar(&r.mintX, "x", "", "X asset of the pool")
	cmd.Flags().StringVar(&r.mintY, "y", "", "Y asset of the pool")
	cmd.Flags().Uint64Var(&r.poolID, "pool-id", 0, "pool id within the asset pair")
}

func (r *poolRef) keylet() (keylet.Keylet, error) {
	if r.key != "" {
		return keylet.FromHex(keylet.TypePool, r.key)
	}
	if r.mintX == "" || r.mintY == "" {
		return keylet.Keylet{}, errors.New("either --pool or both --x and --y are required")
	}
	return keylet.Pool(r.mintX, r.mintY, r.poolID), nil
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, n := range names {
		_ = cmd.MarkFlagRequired(n)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// poolView is the printable form of a pool.
type poolView struct {
	Key      string `json:"key"`
	MintX    string `json:"mint_x"`
	MintY    string `json:"mint_y"`
	PoolID   uint64 `json:"pool_id"`
	MintLP   string `json:"mint_lp"`
	FeeBps   uint16 `json:"fee_bps"`
	Creator  string `json:"creator"`
	Locked   bool   `json:"locked"`
	Dormant  bool   `json:"dormant"`
	ReserveX uint64 `json:"reserve_x"`
	ReserveY uint64 `json:"reserve_y"`
	LPSupply uint64 `json:"lp_supply"`
	K        string `json:"k"`
}

func newPoolView(i amm.PoolInfo) poolView {
	return poolView{
		Key:      i.Key.ID(),
		MintX:    string(i.Pool.MintX),
		MintY:    string(i.Pool.MintY),
		PoolID:   i.Pool.PoolID,
		MintLP:   string(i.Pool.MintLP),
		FeeBps:   i.Pool.FeeBps,
		Creator:  string(i.Pool.Creator),
		Locked:   i.Pool.Locked,
		Dormant:  i.Dormant(),
		ReserveX: i.ReserveX,
		ReserveY: i.ReserveY,
		LPSupply: i.LPSupply,
		K:        i.K().Dec(),
	}
}

func account(s string) ledger.AccountID { return ledger.AccountID(s) }

func asset(s string) ledger.AssetID { return ledger.AssetID(s) }

func printLiquidity(out io.Writer, verb string, r amm.LiquidityResult) {
	fmt.Fprintf(out, "%s x=%d y=%d lp=%d\n", verb, r.AmountX, r.AmountY, r.LPAmount)
}

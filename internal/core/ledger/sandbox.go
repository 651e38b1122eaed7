package ledger

import "fmt"

// Sandbox stages ledger movements on top of a base reader. Nothing reaches
// the base; callers commit Ops() through their backend or discard the
// sandbox.
type Sandbox struct {
	base     Reader
	balances map[Holding]uint64
	supplies map[AssetID]uint64
	ops      []Op
}

// NewSandbox creates a sandbox reading through to base.
func NewSandbox(base Reader) *Sandbox {
	return &Sandbox{
		base:     base,
		balances: make(map[Holding]uint64),
		supplies: make(map[AssetID]uint64),
	}
}

func (s *Sandbox) Balance(account AccountID, asset AssetID) (uint64, error) {
	if v, ok := s.balances[Holding{Account: account, Asset: asset}]; ok {
		return v, nil
	}
	return s.base.Balance(account, asset)
}

func (s *Sandbox) Supply(asset AssetID) (uint64, error) {
	if v, ok := s.supplies[asset]; ok {
		return v, nil
	}
	return s.base.Supply(asset)
}

func (s *Sandbox) Transfer(asset AssetID, from, to AccountID, amount uint64) error {
	return s.Apply(Op{Type: OpTransfer, Asset: asset, From: from, To: to, Amount: amount})
}

func (s *Sandbox) Mint(asset AssetID, to AccountID, amount uint64) error {
	return s.Apply(Op{Type: OpMint, Asset: asset, To: to, Amount: amount})
}

func (s *Sandbox) Burn(asset AssetID, from AccountID, amount uint64) error {
	return s.Apply(Op{Type: OpBurn, Asset: asset, From: from, Amount: amount})
}

// Apply stages one movement. A failed movement leaves the sandbox unchanged.
func (s *Sandbox) Apply(op Op) error {
	if op.Amount == 0 {
		return nil
	}

	switch op.Type {
	case OpTransfer:
		if op.From == op.To {
			bal, err := s.Balance(op.From, op.Asset)
			if err != nil {
				return err
			}
			if bal < op.Amount {
				return fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientBalance, op.From, bal, op.Asset, op.Amount)
			}
			break
		}
		from, err := s.debit(op.From, op.Asset, op.Amount)
		if err != nil {
			return err
		}
		to, err := s.credit(op.To, op.Asset, op.Amount)
		if err != nil {
			return err
		}
		s.balances[Holding{Account: op.From, Asset: op.Asset}] = from
		s.balances[Holding{Account: op.To, Asset: op.Asset}] = to

	case OpMint:
		supply, err := s.Supply(op.Asset)
		if err != nil {
			return err
		}
		if supply > ^uint64(0)-op.Amount {
			return fmt.Errorf("%w: supply of %s", ErrBalanceOverflow, op.Asset)
		}
		to, err := s.credit(op.To, op.Asset, op.Amount)
		if err != nil {
			return err
		}
		s.balances[Holding{Account: op.To, Asset: op.Asset}] = to
		s.supplies[op.Asset] = supply + op.Amount

	case OpBurn:
		supply, err := s.Supply(op.Asset)
		if err != nil {
			return err
		}
		from, err := s.debit(op.From, op.Asset, op.Amount)
		if err != nil {
			return err
		}
		if supply < op.Amount {
			return fmt.Errorf("%w: supply of %s is %d, burning %d", ErrInsufficientBalance, op.Asset, supply, op.Amount)
		}
		s.balances[Holding{Account: op.From, Asset: op.Asset}] = from
		s.supplies[op.Asset] = supply - op.Amount

	default:
		return fmt.Errorf("unknown ledger op: %s", op.Type)
	}

	s.ops = append(s.ops, op)
	return nil
}

func (s *Sandbox) debit(account AccountID, asset AssetID, amount uint64) (uint64, error) {
	bal, err := s.Balance(account, asset)
	if err != nil {
		return 0, err
	}
	if bal < amount {
		return 0, fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientBalance, account, bal, asset, amount)
	}
	return bal - amount, nil
}

func (s *Sandbox) credit(account AccountID, asset AssetID, amount uint64) (uint64, error) {
	bal, err := s.Balance(account, asset)
	if err != nil {
		return 0, err
	}
	if bal > ^uint64(0)-amount {
		return 0, fmt.Errorf("%w: %s balance of %s", ErrBalanceOverflow, account, asset)
	}
	return bal + amount, nil
}

// Ops returns the staged movements in the order they were applied.
func (s *Sandbox) Ops() []Op {
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Changes returns the resulting value of every balance and supply the
// staged movements touched.
func (s *Sandbox) Changes() (map[Holding]uint64, map[AssetID]uint64) {
	balances := make(map[Holding]uint64, len(s.balances))
	for k, v := range s.balances {
		balances[k] = v
	}
	supplies := make(map[AssetID]uint64, len(s.supplies))
	for k, v := range s.supplies {
		supplies[k] = v
	}
	return balances, supplies
}

// Replay applies ops on top of base and returns the resulting sandbox. It
// fails on the first op the current balances can no longer cover.
func Replay(base Reader, ops []Op) (*Sandbox, error) {
	sb := NewSandbox(base)
	for _, op := range ops {
		if err := sb.Apply(op); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

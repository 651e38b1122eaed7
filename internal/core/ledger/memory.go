package ledger

import "sync"

// Memory is an in-process Ledger. Multi-op changes go through Apply, which
// is all-or-nothing.
type Memory struct {
	mu       sync.RWMutex
	balances map[Holding]uint64
	supplies map[AssetID]uint64
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[Holding]uint64),
		supplies: make(map[AssetID]uint64),
	}
}

func (m *Memory) Balance(account AccountID, asset AssetID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[Holding{Account: account, Asset: asset}], nil
}

func (m *Memory) Supply(asset AssetID) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.supplies[asset], nil
}

func (m *Memory) Transfer(asset AssetID, from, to AccountID, amount uint64) error {
	return m.Apply([]Op{{Type: OpTransfer, Asset: asset, From: from, To: to, Amount: amount}})
}

func (m *Memory) Mint(asset AssetID, to AccountID, amount uint64) error {
	return m.Apply([]Op{{Type: OpMint, Asset: asset, To: to, Amount: amount}})
}

func (m *Memory) Burn(asset AssetID, from AccountID, amount uint64) error {
	return m.Apply([]Op{{Type: OpBurn, Asset: asset, From: from, Amount: amount}})
}

// Apply replays ops against the current balances and writes the result only
// if every op succeeds.
func (m *Memory) Apply(ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(ops)
}

// ApplyFunc runs fn while holding the write lock and applies ops only if fn
// succeeds. Backends use it to commit state and balances together.
func (m *Memory) ApplyFunc(ops []Op, fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sb, err := Replay(lockedMemory{m}, ops)
	if err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	m.write(sb)
	return nil
}

func (m *Memory) applyLocked(ops []Op) error {
	sb, err := Replay(lockedMemory{m}, ops)
	if err != nil {
		return err
	}
	m.write(sb)
	return nil
}

func (m *Memory) write(sb *Sandbox) {
	balances, supplies := sb.Changes()
	for k, v := range balances {
		if v == 0 {
			delete(m.balances, k)
			continue
		}
		m.balances[k] = v
	}
	for k, v := range supplies {
		if v == 0 {
			delete(m.supplies, k)
			continue
		}
		m.supplies[k] = v
	}
}

// Holdings returns a copy of every non-zero balance.
func (m *Memory) Holdings() map[Holding]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[Holding]uint64, len(m.balances))
	for k, v := range m.balances {
		out[k] = v
	}
	return out
}

// lockedMemory reads m without locking; the caller holds m.mu.
type lockedMemory struct{ m *Memory }

func (l lockedMemory) Balance(account AccountID, asset AssetID) (uint64, error) {
	return l.m.balances[Holding{Account: account, Asset: asset}], nil
}

func (l lockedMemory) Supply(asset AssetID) (uint64, error) {
	return l.m.supplies[asset], nil
}

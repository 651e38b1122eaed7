package state

import (
	"time"

	"github.com/LeJamon/cpamm/internal/core/ledger"
)

// EntryType tags an encoded record.
type EntryType uint8

const (
	EntryPool EntryType = iota + 1
	EntryProtocolConfig
	EntryReferralProfile
	EntryEscrow
)

func (t EntryType) String() string {
	switch t {
	case EntryPool:
		return "Pool"
	case EntryProtocolConfig:
		return "ProtocolConfig"
	case EntryReferralProfile:
		return "ReferralProfile"
	case EntryEscrow:
		return "Escrow"
	default:
		return "Unknown"
	}
}

// Entry is implemented by every persisted record.
type Entry interface {
	EntryType() EntryType
}

// Pool is the persisted pool record. Reserves and LP supply are not stored:
// they are the ledger balances of the pool vaults and the supply of MintLP.
type Pool struct {
	MintX     ledger.AssetID   `codec:"mint_x"`
	MintY     ledger.AssetID   `codec:"mint_y"`
	PoolID    uint64           `codec:"pool_id"`
	MintLP    ledger.AssetID   `codec:"mint_lp"`
	VaultX    ledger.AccountID `codec:"vault_x"`
	VaultY    ledger.AccountID `codec:"vault_y"`
	FeeBps    uint16           `codec:"fee_bps"`
	Creator   ledger.AccountID `codec:"creator"`
	Locked    bool             `codec:"locked"`
	CreatedAt int64            `codec:"created_at"`
}

func (*Pool) EntryType() EntryType { return EntryPool }

// ProtocolConfig is the singleton protocol fee configuration. Both bps
// values are shares of the collected swap fee.
type ProtocolConfig struct {
	Admin          ledger.AccountID `codec:"admin"`
	ProtocolFeeBps uint16           `codec:"protocol_fee_bps"`
	ReferralFeeBps uint16           `codec:"referral_fee_bps"`
	FeeAccount     ledger.AccountID `codec:"fee_account"`
}

func (*ProtocolConfig) EntryType() EntryType { return EntryProtocolConfig }

// ReferralProfile registers a referrer and where its fee share is paid.
type ReferralProfile struct {
	Referrer      ledger.AccountID `codec:"referrer"`
	ProfileID     string           `codec:"profile_id"`
	PayoutAccount ledger.AccountID `codec:"payout_account"`
	CreatedAt     int64            `codec:"created_at"`
	ExpiresAt     int64            `codec:"expires_at"`
	Locked        bool             `codec:"locked"`
}

func (*ReferralProfile) EntryType() EntryType { return EntryReferralProfile }

// Resolvable reports whether the profile may receive referral fees at now.
func (p *ReferralProfile) Resolvable(now time.Time) bool {
	return p != nil && !p.Locked && now.Unix() < p.ExpiresAt
}

// EscrowStatus is the lifecycle state of an escrow.
type EscrowStatus uint8

const (
	EscrowOpen EscrowStatus = iota
	EscrowFilled
	EscrowRefunded
)

func (s EscrowStatus) String() string {
	switch s {
	case EscrowOpen:
		return "open"
	case EscrowFilled:
		return "filled"
	case EscrowRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}

// Escrow is a single-shot swap offer: the maker locks DepositAmount of MintA
// and releases it to whoever pays ReceiveAmount of MintB.
type Escrow struct {
	Maker         ledger.AccountID `codec:"maker"`
	Seed          uint64           `codec:"seed"`
	MintA         ledger.AssetID   `codec:"mint_a"`
	MintB         ledger.AssetID   `codec:"mint_b"`
	DepositAmount uint64           `codec:"deposit_amount"`
	ReceiveAmount uint64           `codec:"receive_amount"`
	Vault         ledger.AccountID `codec:"vault"`
	Status        EscrowStatus     `codec:"status"`
	Taker         ledger.AccountID `codec:"taker"`
}

func (*Escrow) EntryType() EntryType { return EntryEscrow }

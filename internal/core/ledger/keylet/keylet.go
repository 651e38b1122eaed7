package keylet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	crypto "github.com/LeJamon/cpamm/internal/crypto/common"
)

// Type identifies the kind of record a keylet addresses.
type Type uint16

const (
	TypePool Type = iota + 1
	TypeLPMint
	TypeVault
	TypeConfig
	TypeProfile
	TypeEscrow
	TypeEscrowVault
)

func (t Type) String() string {
	switch t {
	case TypePool:
		return "pool"
	case TypeLPMint:
		return "lp_mint"
	case TypeVault:
		return "vault"
	case TypeConfig:
		return "config"
	case TypeProfile:
		return "profile"
	case TypeEscrow:
		return "escrow"
	case TypeEscrowVault:
		return "escrow_vault"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// Space identifiers for keylet generation
const (
	spacePool        uint16 = 'A' // Pool record
	spaceLPMint      uint16 = 'L' // LP token mint of a pool
	spaceVault       uint16 = 'V' // Reserve vault of a pool
	spaceConfig      uint16 = 'c' // Protocol config (singleton)
	spaceProfile     uint16 = 'R' // Referral profile
	spaceEscrow      uint16 = 'u' // Escrow
	spaceEscrowVault uint16 = 'U' // Escrow deposit vault
)

// Keylet represents an addressable location in the engine state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type Type
	Key  [32]byte
}

// ID returns the hex encoding of the key. Vault and mint keylets are used
// as ledger account and asset identifiers through this form.
func (k Keylet) ID() string {
	return hex.EncodeToString(k.Key[:])
}

func (k Keylet) String() string {
	return k.Type.String() + ":" + k.ID()
}

// FromHex rebuilds a keylet of the given type from its hex key.
func FromHex(t Type, s string) (Keylet, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Keylet{}, fmt.Errorf("invalid %s key: %w", t, err)
	}
	if len(raw) != 32 {
		return Keylet{}, fmt.Errorf("invalid %s key: want 32 bytes, got %d", t, len(raw))
	}
	k := Keylet{Type: t}
	copy(k.Key[:], raw)
	return k, nil
}

// IsDerived reports whether s has the form of a keylet ID. Engine-owned
// accounts and mints (vaults, LP mints) use this form.
func IsDerived(s string) bool {
	if len(s) != 2*len(Keylet{}.Key) {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return crypto.Sha512Half(inputs...)
}

// field length-prefixes a variable sized seed so that adjacent seeds
// cannot run into each other.
func field(s string) []byte {
	b := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(b, uint32(len(s)))
	copy(b[4:], s)
	return b
}

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Pool returns the keylet for a pool. The mint pair is ordered canonically
// so (a, b, id) and (b, a, id) address the same pool.
func Pool(mintA, mintB string, poolID uint64) Keylet {
	if mintA > mintB {
		mintA, mintB = mintB, mintA
	}
	return Keylet{
		Type: TypePool,
		Key:  indexHash(spacePool, field(mintA), field(mintB), uint64Bytes(poolID)),
	}
}

// LPMint returns the keylet of the LP token mint owned by a pool.
func LPMint(pool Keylet) Keylet {
	return Keylet{
		Type: TypeLPMint,
		Key:  indexHash(spaceLPMint, pool.Key[:]),
	}
}

// Vault returns the keylet of the account holding a pool's reserve of mint.
func Vault(pool Keylet, mint string) Keylet {
	return Keylet{
		Type: TypeVault,
		Key:  indexHash(spaceVault, pool.Key[:], field(mint)),
	}
}

// Config returns the keylet for the singleton protocol config.
func Config() Keylet {
	return Keylet{
		Type: TypeConfig,
		Key:  indexHash(spaceConfig),
	}
}

// Profile returns the keylet for a referrer's profile.
func Profile(referrer string) Keylet {
	return Keylet{
		Type: TypeProfile,
		Key:  indexHash(spaceProfile, field(referrer)),
	}
}

// Escrow returns the keylet for an escrow created by maker with seed.
func Escrow(maker string, seed uint64) Keylet {
	return Keylet{
		Type: TypeEscrow,
		Key:  indexHash(spaceEscrow, field(maker), uint64Bytes(seed)),
	}
}

// EscrowVault returns the keylet of the account holding an escrow deposit.
func EscrowVault(escrow Keylet) Keylet {
	return Keylet{
		Type: TypeEscrowVault,
		Key:  indexHash(spaceEscrowVault, escrow.Key[:]),
	}
}

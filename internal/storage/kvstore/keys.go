package kvstore

import (
	"encoding/binary"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// Key prefixes. Records sort by type then key so ForEach is one range scan.
const (
	prefixRecord  byte = 'r'
	prefixBalance byte = 'b'
	prefixSupply  byte = 's'
)

func recordKey(k keylet.Keylet) []byte {
	key := make([]byte, 2+len(k.Key))
	key[0] = prefixRecord
	key[1] = byte(k.Type)
	copy(key[2:], k.Key[:])
	return key
}

func recordPrefix(t keylet.Type) []byte {
	return []byte{prefixRecord, byte(t)}
}

func parseRecordKey(key []byte) (keylet.Keylet, error) {
	var k keylet.Keylet
	if len(key) != 2+len(k.Key) || key[0] != prefixRecord {
		return k, fmt.Errorf("malformed record key %x", key)
	}
	k.Type = keylet.Type(key[1])
	copy(k.Key[:], key[2:])
	return k, nil
}

// balanceKey is prefix, uvarint asset length, asset, account.
func balanceKey(account ledger.AccountID, asset ledger.AssetID) []byte {
	key := make([]byte, 1, 1+binary.MaxVarintLen64+len(asset)+len(account))
	key[0] = prefixBalance
	key = binary.AppendUvarint(key, uint64(len(asset)))
	key = append(key, asset...)
	return append(key, account...)
}

func supplyKey(asset ledger.AssetID) []byte {
	return append([]byte{prefixSupply}, asset...)
}

func encodeAmount(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func decodeAmount(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("malformed amount of %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

package state

import (
	"errors"
	"fmt"

	"github.com/ugorji/go/codec"
)

// ErrUnexpectedEntry is returned when a record decodes to a different type
// than requested.
var ErrUnexpectedEntry = errors.New("unexpected entry type")

var msgpack = &codec.MsgpackHandle{}

func init() {
	msgpack.WriteExt = true
	msgpack.Canonical = true
}

// Encode serializes an entry as one type byte followed by its msgpack body.
func Encode(e Entry) ([]byte, error) {
	var body []byte
	if err := codec.NewEncoderBytes(&body, msgpack).Encode(e); err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.EntryType(), err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(e.EntryType()))
	return append(out, body...), nil
}

// Decode deserializes data into e, which must match the encoded type.
func Decode(data []byte, e Entry) error {
	if len(data) < 1 {
		return fmt.Errorf("decode %s: empty record", e.EntryType())
	}
	if got := EntryType(data[0]); got != e.EntryType() {
		return fmt.Errorf("%w: want %s, got %s", ErrUnexpectedEntry, e.EntryType(), got)
	}
	if err := codec.NewDecoderBytes(data[1:], msgpack).Decode(e); err != nil {
		return fmt.Errorf("decode %s: %w", e.EntryType(), err)
	}
	return nil
}

// TypeOf returns the entry type tag of an encoded record.
func TypeOf(data []byte) EntryType {
	if len(data) == 0 {
		return 0
	}
	return EntryType(data[0])
}

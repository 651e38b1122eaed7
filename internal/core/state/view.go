package state

import (
	"errors"
	"fmt"

	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

var (
	// ErrEntryExists is returned when inserting over an existing record
	ErrEntryExists = errors.New("entry already exists")

	// ErrEntryNotFound is returned when updating or erasing a missing record
	ErrEntryNotFound = errors.New("entry not found")
)

// Reader reads records by keylet. Read returns nil, nil for a missing key.
type Reader interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
}

// View is a Reader that can also be written.
type View interface {
	Reader
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}

// Iterable is implemented by stores that can enumerate records of one type.
type Iterable interface {
	ForEach(t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error
}

// Get reads and decodes the record at k into e. It reports false when the
// record does not exist.
func Get(r Reader, k keylet.Keylet, e Entry) (bool, error) {
	data, err := r.Read(k)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", k, err)
	}
	if data == nil {
		return false, nil
	}
	if err := Decode(data, e); err != nil {
		return false, err
	}
	return true, nil
}

// Put encodes e and inserts or updates it at k.
func Put(v View, k keylet.Keylet, e Entry) error {
	data, err := Encode(e)
	if err != nil {
		return err
	}
	exists, err := v.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return v.Update(k, data)
	}
	return v.Insert(k, data)
}

package state

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// Action represents the type of modification to a record
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// TrackedEntry represents a record being tracked for changes
type TrackedEntry struct {
	Keylet   keylet.Keylet
	Action   Action
	Original []byte
	Current  []byte
}

// Change is one staged write produced by a Table.
type Change struct {
	Keylet keylet.Keylet
	Action Action
	Data   []byte
}

// Table wraps a Reader and stages every modification. Nothing reaches the
// base until the caller commits Changes().
type Table struct {
	base  Reader
	items map[[32]byte]*TrackedEntry
}

// NewTable creates a Table over base.
func NewTable(base Reader) *Table {
	return &Table{
		base:  base,
		items: make(map[[32]byte]*TrackedEntry),
	}
}

// Read reads a record, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[k.Key] = &TrackedEntry{
			Keylet:   k,
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if a record exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[k.Key]; exists {
		return entry.Action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert adds a new record
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action != ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryExists, k)
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:  k,
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing record
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%w: %s (erased)", ErrEntryNotFound, k)
		}
		if entry.Action == ActionCache {
			entry.Action = ActionModify
		}
		// For insert, keep it as insert with new data
		entry.Current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionModify,
		Original: original,
		Current:  data,
	}
	return nil
}

// Erase removes a record
func (t *Table) Erase(k keylet.Keylet) error {
	if entry, exists := t.items[k.Key]; exists {
		if entry.Action == ActionErase {
			return fmt.Errorf("%w: %s (already erased)", ErrEntryNotFound, k)
		}
		if entry.Action == ActionInsert {
			// Inserting then deleting = no change
			delete(t.items, k.Key)
			return nil
		}
		entry.Action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}

	t.items[k.Key] = &TrackedEntry{
		Keylet:   k,
		Action:   ActionErase,
		Original: original,
		Current:  original,
	}
	return nil
}

// Changes returns the staged writes ordered by key. Cached reads are not
// included.
func (t *Table) Changes() []Change {
	changes := make([]Change, 0, len(t.items))
	for _, entry := range t.items {
		if entry.Action == ActionCache {
			continue
		}
		c := Change{Keylet: entry.Keylet, Action: entry.Action}
		if entry.Action != ActionErase {
			c.Data = entry.Current
		}
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool {
		return bytes.Compare(changes[i].Keylet.Key[:], changes[j].Keylet.Key[:]) < 0
	})
	return changes
}

// Apply writes changes into dst. Inserts are checked against dst so a
// racing insert of the same key is reported instead of overwritten.
func Apply(dst View, changes []Change) error {
	for _, c := range changes {
		var err error
		switch c.Action {
		case ActionInsert:
			err = dst.Insert(c.Keylet, c.Data)
		case ActionModify:
			err = dst.Update(c.Keylet, c.Data)
		case ActionErase:
			err = dst.Erase(c.Keylet)
		}
		if err != nil {
			return fmt.Errorf("apply %s %s: %w", c.Action, c.Keylet, err)
		}
	}
	return nil
}

// Check verifies that changes still fit r: inserted keys are absent and
// modified or erased keys are present.
func Check(r Reader, changes []Change) error {
	for _, c := range changes {
		exists, err := r.Exists(c.Keylet)
		if err != nil {
			return err
		}
		switch {
		case c.Action == ActionInsert && exists:
			return fmt.Errorf("%w: %s", ErrEntryExists, c.Keylet)
		case c.Action != ActionInsert && !exists:
			return fmt.Errorf("%w: %s", ErrEntryNotFound, c.Keylet)
		}
	}
	return nil
}

package state

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
)

// Memory is an in-process View.
type Memory struct {
	mu      sync.RWMutex
	entries map[[32]byte]memoryEntry
}

type memoryEntry struct {
	typ  keylet.Type
	data []byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[[32]byte]memoryEntry)}
}

func (m *Memory) Read(k keylet.Keylet) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[k.Key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (m *Memory) Exists(k keylet.Keylet) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[k.Key]
	return ok, nil
}

func (m *Memory) Insert(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; ok {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}
	m.entries[k.Key] = memoryEntry{typ: k.Type, data: data}
	return nil
}

func (m *Memory) Update(k keylet.Keylet, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	m.entries[k.Key] = memoryEntry{typ: k.Type, data: data}
	return nil
}

func (m *Memory) Erase(k keylet.Keylet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[k.Key]; !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
	}
	delete(m.entries, k.Key)
	return nil
}

// ForEach calls fn for every record of type t in key order until fn
// returns false.
func (m *Memory) ForEach(t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error {
	m.mu.RLock()
	keys := make([][32]byte, 0)
	for key, e := range m.entries {
		if e.typ == t {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	snapshot := make([][]byte, len(keys))
	for i, key := range keys {
		snapshot[i] = m.entries[key].data
	}
	m.mu.RUnlock()

	for i, key := range keys {
		if !fn(keylet.Keylet{Type: t, Key: key}, snapshot[i]) {
			return nil
		}
	}
	return nil
}

package pebble

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Options tunes the Pebble instances a Manager opens.
type Options struct {
	// CacheSize is the block cache size in bytes. Zero keeps Pebble's default.
	CacheSize int64
	// FS overrides the filesystem, vfs.NewMem() in tests.
	FS vfs.FS
}

type Manager struct {
	dbs  map[string]*DB
	path string
	opts Options
	mu   sync.Mutex
}

func NewManager(path string, opts Options) *Manager {
	return &Manager{
		dbs:  make(map[string]*DB),
		path: path,
		opts: opts,
	}
}

// OpenDB opens or returns the named database under the manager's path.
func (m *Manager) OpenDB(name string) (*DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return db, nil // Already opened
	}

	db, err := Open(filepath.Join(m.path, name+".db"), m.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	m.dbs[name] = db
	return db, nil
}

func (m *Manager) CloseDB(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	db, exists := m.dbs[name]
	if !exists {
		return fmt.Errorf("database %s not found", name)
	}

	delete(m.dbs, name)
	return db.Close()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close database %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return lastErr
}

// Open opens a single Pebble database at path.
func Open(path string, o Options) (*DB, error) {
	opts := &pebble.Options{FS: o.FS}
	if o.CacheSize > 0 {
		cache := pebble.NewCache(o.CacheSize)
		defer cache.Unref()
		opts.Cache = cache
	}

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return NewDB(db), nil
}

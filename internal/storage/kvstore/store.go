// Package kvstore is a persistent backend.Backend over any database.DB.
//
// Records are compressed and cached in an LRU keyed by their database key.
// A commit replays its ledger movements against current balances, checks
// record preconditions, and writes records, balances and supplies in one
// batch.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LeJamon/cpamm/internal/core/ledger"
	"github.com/LeJamon/cpamm/internal/core/ledger/keylet"
	"github.com/LeJamon/cpamm/internal/core/state"
	"github.com/LeJamon/cpamm/internal/storage/compression"
	"github.com/LeJamon/cpamm/internal/storage/database"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultCacheEntries bounds the record cache when Options leaves it unset.
const DefaultCacheEntries = 4096

// Options configures a Store.
type Options struct {
	Compressor   compression.Compressor
	CacheEntries int
	Logger       *zap.Logger
}

// Store persists engine records and balances in a key-value database.
type Store struct {
	// mu orders reads against commits so the cache never holds a value
	// older than the database.
	mu    sync.RWMutex
	db    database.DB
	codec compression.Compressor
	cache *lru.Cache[string, []byte]
	log   *zap.Logger
}

// New creates a Store over db. The Store owns db and closes it.
func New(db database.DB, opts Options) (*Store, error) {
	if opts.Compressor == nil {
		opts.Compressor = compression.NoCompressor{}
	}
	if opts.CacheEntries <= 0 {
		opts.CacheEntries = DefaultCacheEntries
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	cache, err := lru.New[string, []byte](opts.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("create record cache: %w", err)
	}
	return &Store{
		db:    db,
		codec: opts.Compressor,
		cache: cache,
		log:   opts.Logger,
	}, nil
}

func (s *Store) State() state.Reader { return stateReader{s} }

func (s *Store) Ledger() ledger.Reader { return ledgerReader{s} }

// readRecord returns the decompressed record at k, nil when absent.
// Callers hold mu.
func (s *Store) readRecord(k keylet.Keylet) ([]byte, error) {
	key := recordKey(k)
	if data, ok := s.cache.Get(string(key)); ok {
		return data, nil
	}
	raw, err := s.db.Read(context.Background(), key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := s.codec.Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", k, err)
	}
	s.cache.Add(string(key), data)
	return data, nil
}

// readAmount reads an 8-byte amount, zero when absent. Callers hold mu.
func (s *Store) readAmount(key []byte) (uint64, error) {
	raw, err := s.db.Read(context.Background(), key)
	if errors.Is(err, database.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeAmount(raw)
}

// ForEach visits records of type t in key order. fn runs outside the store
// lock and may call back into the store.
func (s *Store) ForEach(t keylet.Type, fn func(k keylet.Keylet, data []byte) bool) error {
	type record struct {
		k    keylet.Keylet
		data []byte
	}
	var records []record

	err := func() error {
		s.mu.RLock()
		defer s.mu.RUnlock()

		prefix := recordPrefix(t)
		it, err := s.db.Iterator(context.Background(), prefix, database.PrefixEnd(prefix))
		if err != nil {
			return err
		}
		defer it.Close()
		for it.Next() {
			k, err := parseRecordKey(it.Key())
			if err != nil {
				return err
			}
			data, err := s.codec.Decompress(it.Value())
			if err != nil {
				return fmt.Errorf("decompress %s: %w", k, err)
			}
			records = append(records, record{k, data})
		}
		return it.Error()
	}()
	if err != nil {
		return err
	}

	for _, r := range records {
		if !fn(r.k, r.data) {
			break
		}
	}
	return nil
}

// Commit applies changes and ops atomically.
func (s *Store) Commit(ctx context.Context, changes []state.Change, ops []ledger.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sb, err := ledger.Replay(lockedLedger{s}, ops)
	if err != nil {
		return err
	}
	if err := state.Check(lockedState{s}, changes); err != nil {
		return err
	}

	batch := make([]database.BatchOperation, 0, len(changes)+len(ops)*2)
	for _, c := range changes {
		key := recordKey(c.Keylet)
		switch c.Action {
		case state.ActionInsert, state.ActionModify:
			value, err := s.codec.Compress(c.Data)
			if err != nil {
				return fmt.Errorf("compress %s: %w", c.Keylet, err)
			}
			batch = append(batch, database.BatchOperation{Type: database.BatchPut, Key: key, Value: value})
		case state.ActionErase:
			batch = append(batch, database.BatchOperation{Type: database.BatchDelete, Key: key})
		}
	}

	balances, supplies := sb.Changes()
	for h, v := range balances {
		batch = append(batch, amountOp(balanceKey(h.Account, h.Asset), v))
	}
	for asset, v := range supplies {
		batch = append(batch, amountOp(supplyKey(asset), v))
	}

	if err := s.db.Batch(ctx, batch); err != nil {
		// The batch may or may not have landed; drop cached records so the
		// next read goes to the database.
		s.cache.Purge()
		return fmt.Errorf("write batch: %w", err)
	}

	for _, c := range changes {
		key := string(recordKey(c.Keylet))
		switch c.Action {
		case state.ActionInsert, state.ActionModify:
			s.cache.Add(key, c.Data)
		case state.ActionErase:
			s.cache.Remove(key)
		}
	}
	s.log.Debug("committed batch",
		zap.Int("records", len(changes)),
		zap.Int("ledger_ops", len(ops)),
		zap.Int("writes", len(batch)))
	return nil
}

func amountOp(key []byte, v uint64) database.BatchOperation {
	if v == 0 {
		return database.BatchOperation{Type: database.BatchDelete, Key: key}
	}
	return database.BatchOperation{Type: database.BatchPut, Key: key, Value: encodeAmount(v)}
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return s.db.Close()
}

type stateReader struct{ s *Store }

func (r stateReader) Read(k keylet.Keylet) ([]byte, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.readRecord(k)
}

func (r stateReader) Exists(k keylet.Keylet) (bool, error) {
	data, err := r.Read(k)
	return data != nil, err
}

type ledgerReader struct{ s *Store }

func (r ledgerReader) Balance(account ledger.AccountID, asset ledger.AssetID) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.readAmount(balanceKey(account, asset))
}

func (r ledgerReader) Supply(asset ledger.AssetID) (uint64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.readAmount(supplyKey(asset))
}

// lockedState and lockedLedger read while Commit holds mu.
type lockedState struct{ s *Store }

func (r lockedState) Read(k keylet.Keylet) ([]byte, error) { return r.s.readRecord(k) }

func (r lockedState) Exists(k keylet.Keylet) (bool, error) {
	data, err := r.s.readRecord(k)
	return data != nil, err
}

type lockedLedger struct{ s *Store }

func (r lockedLedger) Balance(account ledger.AccountID, asset ledger.AssetID) (uint64, error) {
	return r.s.readAmount(balanceKey(account, asset))
}

func (r lockedLedger) Supply(asset ledger.AssetID) (uint64, error) {
	return r.s.readAmount(supplyKey(asset))
}

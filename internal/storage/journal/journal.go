// Package journal keeps an append-only SQL record of committed engine
// operations. It implements events.Recorder.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/LeJamon/cpamm/internal/core/events"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 100

// Entry is a journaled event with its sequence number.
type Entry struct {
	Seq int64
	events.Event
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Op    string
	Key   string
	Actor string
	Limit int
}

// Journal records events in a SQL database.
type Journal struct {
	mu      sync.RWMutex
	db      *sql.DB
	dialect dialect
	timeout time.Duration
	log     *zap.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, cfg *Config, log *zap.Logger) (*Journal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newError(ErrorTypeConfiguration, "open", "invalid configuration", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := dialects[cfg.Driver]

	db, err := sql.Open(d.driver, cfg.DSN)
	if err != nil {
		return nil, newError(ErrorTypeConnection, "open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, newError(ErrorTypeConnection, "open", "failed to ping database", err)
	}

	for _, stmt := range d.createSQL {
		if _, err := db.ExecContext(pingCtx, stmt); err != nil {
			db.Close()
			return nil, newError(ErrorTypeSchema, "open", "failed to initialize schema", err)
		}
	}

	log.Info("journal opened", zap.String("driver", cfg.Driver))
	return &Journal{db: db, dialect: d, timeout: cfg.DefaultTimeout, log: log}, nil
}

// Record appends ev.
func (j *Journal) Record(ctx context.Context, ev events.Event) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return ErrJournalClosed
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx, j.dialect.rebind(`INSERT INTO settlements
		(op, record_key, actor, asset_in, amount_in, asset_out, amount_out, lp_amount, fee, protocol_fee, referral_fee, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		ev.Op, ev.Key, ev.Actor,
		ev.AssetIn, amount(ev.AmountIn),
		ev.AssetOut, amount(ev.AmountOut),
		amount(ev.LPAmount), amount(ev.Fee), amount(ev.ProtocolFee), amount(ev.ReferralFee),
		ev.Time.UnixNano())
	if err != nil {
		return newError(ErrorTypeQuery, "record", "failed to insert settlement", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (j *Journal) List(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit < 0 {
		return nil, ErrInvalidLimit
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrJournalClosed
	}

	var (
		where []string
		args  []any
	)
	for col, v := range map[string]string{"op": f.Op, "record_key": f.Key, "actor": f.Actor} {
		if v != "" {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}
	cols := []string{"seq", "op", "record_key", "actor", "asset_in"}
	cols = append(cols, j.dialect.amountColumn("amount_in"), "asset_out")
	for _, c := range []string{"amount_out", "lp_amount", "fee", "protocol_fee", "referral_fee"} {
		cols = append(cols, j.dialect.amountColumn(c))
	}
	cols = append(cols, "settled_at")

	query := "SELECT " + strings.Join(cols, ", ") + " FROM settlements"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC LIMIT ?"
	args = append(args, f.Limit)

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	rows, err := j.db.QueryContext(ctx, j.dialect.rebind(query), args...)
	if err != nil {
		return nil, newError(ErrorTypeQuery, "list", "failed to query settlements", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			amounts [6]string
			nanos   int64
		)
		if err := rows.Scan(&e.Seq, &e.Op, &e.Key, &e.Actor,
			&e.AssetIn, &amounts[0], &e.AssetOut, &amounts[1],
			&amounts[2], &amounts[3], &amounts[4], &amounts[5], &nanos); err != nil {
			return nil, newError(ErrorTypeQuery, "list", "failed to scan settlement", err)
		}
		dst := []*uint64{&e.AmountIn, &e.AmountOut, &e.LPAmount, &e.Fee, &e.ProtocolFee, &e.ReferralFee}
		for i, s := range amounts {
			if *dst[i], err = strconv.ParseUint(s, 10, 64); err != nil {
				return nil, newError(ErrorTypeQuery, "list", fmt.Sprintf("malformed amount %q", s), err)
			}
		}
		e.Time = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(ErrorTypeQuery, "list", "failed to read settlements", err)
	}
	return out, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return newError(ErrorTypeConnection, "close", "failed to close database connection", err)
	}
	return nil
}

func amount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

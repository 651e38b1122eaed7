package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LeJamon/cpamm/internal/config"
	"github.com/LeJamon/cpamm/internal/core/amm"
	"github.com/LeJamon/cpamm/internal/core/backend"
	"github.com/LeJamon/cpamm/internal/core/escrow"
	"github.com/LeJamon/cpamm/internal/core/lockmap"
	"github.com/LeJamon/cpamm/internal/log"
	"github.com/LeJamon/cpamm/internal/metrics"
	"github.com/LeJamon/cpamm/internal/storage/compression"
	"github.com/LeJamon/cpamm/internal/storage/database"
	"github.com/LeJamon/cpamm/internal/storage/database/leveldb"
	"github.com/LeJamon/cpamm/internal/storage/database/pebble"
	"github.com/LeJamon/cpamm/internal/storage/journal"
	"github.com/LeJamon/cpamm/internal/storage/kvstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the wired engine a command runs against.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	backend backend.Backend
	journal *journal.Journal
	metrics *metrics.Metrics
	engine  *amm.Engine
	escrow  *escrow.Service
}

// newApp opens storage and the optional journal and metrics, then builds
// the engine over them.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: logger}

	b, err := openBackend(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}
	a.backend = b

	engineCfg := amm.Config{
		Logger:     logger.Named("engine"),
		ProfileTTL: cfg.Engine.ProfileTTL,
		Locks:      lockmap.New(cfg.Engine.LockBuckets),
	}

	if cfg.Journal.Enabled() {
		j, err := journal.Open(ctx, journal.NewConfig(cfg.Journal.Driver, cfg.Journal.DSN), logger.Named("journal"))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.journal = j
		engineCfg.Recorder = j
	}

	if cfg.Metrics.Enabled {
		m, err := metrics.New(cfg.Metrics.Namespace)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create metrics: %w", err)
		}
		a.metrics = m
		engineCfg.Observer = m
	}

	a.engine = amm.NewEngine(b, engineCfg)
	a.escrow = escrow.NewService(a.engine)

	logger.Debug("engine ready",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("journal", cfg.Journal.Driver),
		zap.Bool("metrics", cfg.Metrics.Enabled))
	return a, nil
}

// openBackend selects the record and balance store.
func openBackend(cfg config.StorageConfig, logger *zap.Logger) (backend.Backend, error) {
	if cfg.Backend == config.BackendMemory {
		return backend.NewMemory(), nil
	}

	codec, err := compression.Get(cfg.Compression)
	if err != nil {
		return nil, err
	}

	var db database.DB
	switch cfg.Backend {
	case config.BackendPebble:
		db, err = pebble.Open(cfg.Path, pebble.Options{CacheSize: cfg.CacheSize})
	case config.BackendLevelDB:
		db, err = leveldb.Open(cfg.Path, int(cfg.CacheSize))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s at %s: %w", cfg.Backend, cfg.Path, err)
	}

	store, err := kvstore.New(db, kvstore.Options{
		Compressor:   codec,
		CacheEntries: cfg.CacheEntries,
		Logger:       logger.Named("kvstore"),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the journal and the backend.
func (a *app) Close() error {
	var errs []error
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	return errors.Join(errs...)
}

// runFunc is the body of a command that needs the engine.
type runFunc func(ctx context.Context, a *app, out io.Writer) error

// withApp loads configuration, builds the logger and the app, runs fn and
// tears everything down again.
func (o *options) withApp(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(o.configFile)
		if err != nil {
			return err
		}
		return o.runWith(cmd, cfg, fn)
	}
}

func (o *options) runWith(cmd *cobra.Command, cfg *config.Config, fn runFunc) error {
	logger, err := log.New(cfg.Log, o.debug)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close storage", zap.Error(err))
		}
	}()

	if err := fn(ctx, a, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("%s: %w", amm.Code(err), err)
	}
	return nil
}

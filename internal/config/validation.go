package config

import (
	"fmt"
	"strings"

	"github.com/LeJamon/cpamm/internal/storage/compression"
	"github.com/LeJamon/cpamm/internal/storage/journal"
	"go.uber.org/zap/zapcore"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := config.Journal.Validate(); err != nil {
		return fmt.Errorf("journal validation failed: %w", err)
	}
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("engine validation failed: %w", err)
	}
	if config.Metrics.Listen != "" && !config.Metrics.Enabled {
		return fmt.Errorf("metrics.listen is set but metrics are disabled")
	}
	return nil
}

// Validate checks the log configuration
func (c *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level %q", c.Level)
	}
	switch c.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid format %q (must be console or json)", c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must be >= 0")
	}
	return nil
}

// Validate checks the storage configuration
func (c *StorageConfig) Validate() error {
	c.Backend = strings.ToLower(c.Backend)
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendPebble, BackendLevelDB:
	default:
		return fmt.Errorf("invalid backend %q (must be memory, pebble or leveldb)", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required for the %s backend", c.Backend)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0")
	}
	if c.CacheEntries < 0 {
		return fmt.Errorf("cache_entries must be >= 0")
	}
	if !compression.IsAvailable(c.Compression) {
		return fmt.Errorf("unknown compression %q (available: %s)", c.Compression, strings.Join(compression.Available(), ", "))
	}
	return nil
}

// Validate checks the journal configuration
func (c *JournalConfig) Validate() error {
	if c.Driver == "" || c.Driver == JournalNone {
		c.Driver = JournalNone
		return nil
	}
	return journal.NewConfig(c.Driver, c.DSN).Validate()
}

// Enabled reports whether a journal is configured.
func (c *JournalConfig) Enabled() bool {
	return c.Driver != JournalNone
}

// Validate checks the engine configuration
func (c *EngineConfig) Validate() error {
	if c.ProfileTTL <= 0 {
		return fmt.Errorf("profile_ttl must be positive")
	}
	if c.LockBuckets <= 0 {
		return fmt.Errorf("lock_buckets must be positive")
	}
	return nil
}

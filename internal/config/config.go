// Package config loads cpammd settings from defaults, a TOML/YAML/JSON file
// and CPAMM_ environment variables, in increasing priority.
package config

import "time"

// Config represents the complete cpammd configuration
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Journal JournalConfig `mapstructure:"journal"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Engine  EngineConfig  `mapstructure:"engine"`

	// Internal fields for configuration management
	configPath string `mapstructure:"-"`
}

// LogConfig controls the zap logger and lumberjack rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// StorageConfig selects where records and balances live.
type StorageConfig struct {
	Backend      string `mapstructure:"backend"`
	Path         string `mapstructure:"path"`
	CacheSize    int64  `mapstructure:"cache_size"`
	CacheEntries int    `mapstructure:"cache_entries"`
	Compression  string `mapstructure:"compression"`
}

// JournalConfig selects the settlement journal database.
type JournalConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Listen    string `mapstructure:"listen"`
}

// EngineConfig tunes the pool engine.
type EngineConfig struct {
	ProfileTTL  time.Duration `mapstructure:"profile_ttl"`
	LockBuckets int           `mapstructure:"lock_buckets"`
}

// Storage backends.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// JournalNone disables the settlement journal.
const JournalNone = "none"

// GetConfigPath returns the path of the file the configuration was read
// from, empty when none was.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Persistent reports whether state survives the process.
func (c *Config) Persistent() bool {
	return c.Storage.Backend != BackendMemory
}

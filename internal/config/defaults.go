package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default value of every key
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("storage.backend", BackendPebble)
	v.SetDefault("storage.path", "cpamm-data")
	v.SetDefault("storage.cache_size", 64<<20)
	v.SetDefault("storage.cache_entries", 4096)
	v.SetDefault("storage.compression", "lz4")

	v.SetDefault("journal.driver", JournalNone)
	v.SetDefault("journal.dsn", "")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "cpamm")
	v.SetDefault("metrics.listen", "")

	v.SetDefault("engine.profile_ttl", 30*24*time.Hour)
	v.SetDefault("engine.lock_buckets", 64)
}

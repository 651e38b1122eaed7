// Package log builds the process zap logger from the log configuration.
// Output goes to stderr and, when a file is configured, to a rotating file.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/LeJamon/cpamm/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap logger together with the writers it owns.
type Logger struct {
	*zap.Logger
	level   zap.AtomicLevel
	closers []io.Closer
}

// New builds a logger. debug forces the debug level regardless of cfg.
func New(cfg config.LogConfig, debug bool) (*Logger, error) {
	return newLogger(cfg, debug, os.Stderr)
}

func newLogger(cfg config.LogConfig, debug bool, console zapcore.WriteSyncer) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	level := zap.NewAtomicLevelAt(lvl)

	l := &Logger{level: level}
	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg.Format), console, level),
	}

	if cfg.File != "" {
		rw := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,  // megabytes
			MaxAge:     cfg.MaxAgeDays, // days
			MaxBackups: cfg.MaxBackups, // files
			Compress:   cfg.Compress,
		}
		l.closers = append(l.closers, rw)
		// Files are always JSON.
		cores = append(cores, zapcore.NewCore(encoder("json"), zapcore.AddSync(rw), level))
	}

	l.Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return l, nil
}

func encoder(format string) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewConsoleEncoder(ec)
}

// SetLevel changes the level of every output.
func (l *Logger) SetLevel(lvl zapcore.Level) {
	l.level.SetLevel(lvl)
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Close flushes the logger and closes the log file.
func (l *Logger) Close() error {
	// Sync on a terminal stderr reports EINVAL on some platforms.
	_ = l.Sync()
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

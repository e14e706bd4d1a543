package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	lock  sync.RWMutex
	log   = zap.NewNop()
	sugar = log.Sugar()
)

// Initialize replaces the no-op logger with a configured production logger.
// Safe to call once at startup; packages that log before initialization
// write to the no-op logger.
func Initialize(level zap.AtomicLevel) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	lock.Lock()
	log = logger
	sugar = logger.Sugar()
	lock.Unlock()
	return nil
}

func Logger() *zap.Logger {
	lock.RLock()
	defer lock.RUnlock()
	return log
}

func Sugar() *zap.SugaredLogger {
	lock.RLock()
	defer lock.RUnlock()
	return sugar
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() error {
	lock.RLock()
	defer lock.RUnlock()
	return log.Sync()
}

// Package logging holds the module-wide zap logger. Library code logs
// through Logger() so applications can swap in their own configuration.
package logging

import "go.uber.org/zap"

var logger = zap.Must(zap.NewProduction())

// Logger returns the current logger.
func Logger() *zap.Logger {
	return logger
}

// SetLogger replaces the module logger. Passing nil restores a no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Package log is the logging front of trill. It forwards to the go-ethereum
// structured logger and adds throttled helpers plus handler setup.
package log

import (
	"os"

	gethlog "github.com/ethereum/go-ethereum/log"
)

// Logger is the go-ethereum logger interface.
type Logger = gethlog.Logger

// Root returns the root logger.
func Root() Logger {
	return gethlog.Root()
}

// SetDefault sets the default root logger.
func SetDefault(l Logger) {
	gethlog.SetDefault(l)
}

// New returns a logger with the given context.
func New(ctx ...interface{}) Logger {
	return Root().With(ctx...)
}

func Trace(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelTrace, msg, ctx...)
}

func Debug(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelDebug, msg, ctx...)
}

func Info(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelInfo, msg, ctx...)
}

func Warn(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelWarn, msg, ctx...)
}

func Error(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelError, msg, ctx...)
}

// Crit logs a message at the critical level and exits.
func Crit(msg string, ctx ...interface{}) {
	Root().Write(gethlog.LevelCrit, msg, ctx...)
	os.Exit(1)
}

package log

import (
	"sync"
	"sync/atomic"
	"time"

	gethlog "github.com/ethereum/go-ethereum/log"
	"golang.org/x/exp/slog"
)

// LoggerFilter decides whether a throttled log line is emitted.
type LoggerFilter interface {
	check() bool
}

// EveryN lets one line out of every N through. A zero N disables throttling.
type EveryN struct {
	N       uint32
	counter uint32
}

func (e *EveryN) check() bool {
	if e == nil || e.N == 0 {
		return true
	}
	return atomic.AddUint32(&e.counter, 1)%e.N == 0
}

// Every lets at most one line per Interval through.
type Every struct {
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (e *Every) check() bool {
	if e == nil || e.Interval <= 0 {
		return true
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	if now.Sub(e.last) < e.Interval {
		return false
	}
	e.last = now
	return true
}

type ifCondition bool

func (c ifCondition) check() bool { return bool(c) }

var (
	_ LoggerFilter = (*EveryN)(nil)
	_ LoggerFilter = (*Every)(nil)
	_ LoggerFilter = ifCondition(true)
)

func writeBy(filter LoggerFilter, lvl slog.Level, msg string, ctx []interface{}) {
	if filter == nil || filter.check() {
		Root().Write(lvl, msg, ctx...)
	}
}

func TraceBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(filter, gethlog.LevelTrace, msg, ctx)
}

func DebugBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(filter, slog.LevelDebug, msg, ctx)
}

func InfoBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(filter, slog.LevelInfo, msg, ctx)
}

func WarnBy(filter LoggerFilter, msg string, ctx ...interface{}) {
	writeBy(filter, slog.LevelWarn, msg, ctx)
}

func DebugIf(condition bool, msg string, ctx ...interface{}) {
	writeBy(ifCondition(condition), slog.LevelDebug, msg, ctx)
}

func WarnIf(condition bool, msg string, ctx ...interface{}) {
	writeBy(ifCondition(condition), slog.LevelWarn, msg, ctx)
}

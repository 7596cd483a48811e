package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture swaps the root logger for one writing logfmt into a buffer.
func capture(t *testing.T) *bytes.Buffer {
	prev := Root()
	t.Cleanup(func() { SetDefault(prev) })

	buf := new(bytes.Buffer)
	glogger := gethlog.NewGlogHandler(gethlog.LogfmtHandler(buf))
	glogger.Verbosity(gethlog.LevelTrace)
	SetDefault(gethlog.NewLogger(glogger))
	return buf
}

func TestSetDefaultCustomLogger(t *testing.T) {
	type customLogger struct {
		Logger
	}
	prev := Root()
	defer SetDefault(prev)

	customLog := &customLogger{}
	SetDefault(customLog)
	if Root() != customLog {
		t.Error("expected custom logger to be set as default")
	}
}

func TestEveryN(t *testing.T) {
	buf := capture(t)
	filter := &EveryN{N: 3}
	for i := 0; i < 9; i++ {
		DebugBy(filter, "tick", "i", i)
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "msg=tick"))
	assert.Contains(t, buf.String(), "i=2")
	assert.NotContains(t, buf.String(), "i=0")
}

func TestIfAndNilFilter(t *testing.T) {
	buf := capture(t)
	DebugIf(false, "hidden")
	WarnIf(true, "shown")
	InfoBy(nil, "unfiltered")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "unfiltered")
}

func TestEvery(t *testing.T) {
	buf := capture(t)
	filter := &Every{Interval: 1 << 40}
	for i := 0; i < 5; i++ {
		TraceBy(filter, "burst")
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "msg=burst"))
}

func TestSetup(t *testing.T) {
	prev := Root()
	defer SetDefault(prev)

	_, err := Setup(Config{Format: "xml", Verbosity: 3})
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "out.log")
	closer, err := Setup(Config{Format: "json", File: path, Verbosity: 3, MaxSize: DefaultConfig.MaxSize})
	require.NoError(t, err)
	Info("hello", "k", 1)
	require.NoError(t, closer.Close())
}

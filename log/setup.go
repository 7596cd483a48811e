package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c2h5oh/datasize"
	gethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"golang.org/x/exp/slog"
)

// Config selects where and how log lines are written.
type Config struct {
	Verbosity int    // legacy geth verbosity, 0 (silent) to 5 (trace)
	Format    string // terminal, logfmt or json
	File      string // empty means stderr
	MaxSize   datasize.ByteSize
}

// DefaultConfig logs at info level to stderr.
var DefaultConfig = Config{
	Verbosity: 3,
	Format:    "terminal",
	MaxSize:   100 * datasize.MB,
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the root logger described by cfg. The returned closer must be
// called on shutdown to flush a file backed logger.
func Setup(cfg Config) (io.Closer, error) {
	var (
		output  io.Writer = os.Stderr
		closer  io.Closer = nopCloser{}
		colored           = false
	)
	if cfg.File != "" {
		w := NewAsyncFileWriter(cfg.File, cfg.MaxSize, 1024)
		if err := w.Start(); err != nil {
			return nil, err
		}
		output, closer = w, w
	} else if isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb" {
		output = colorable.NewColorableStderr()
		colored = true
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "terminal":
		handler = gethlog.NewTerminalHandler(output, colored)
	case "logfmt":
		handler = gethlog.LogfmtHandler(output)
	case "json":
		handler = gethlog.JSONHandler(output)
	default:
		closer.Close()
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	glogger := gethlog.NewGlogHandler(handler)
	glogger.Verbosity(gethlog.FromLegacyLevel(cfg.Verbosity))
	SetDefault(gethlog.NewLogger(glogger))
	return closer, nil
}

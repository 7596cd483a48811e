package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/c2h5oh/datasize"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AsyncFileWriter queues log lines and writes them from a single goroutine,
// so the terminal UI never blocks on disk. Lines arriving while the queue is
// full are dropped and counted.
type AsyncFileWriter struct {
	out io.WriteCloser

	wg      sync.WaitGroup
	started int32
	dropped uint64
	buf     chan []byte
	stop    chan struct{}
}

// NewAsyncFileWriter creates a writer appending to filePath, rotating the file
// once it grows past maxSize. queue is the number of lines buffered in memory.
func NewAsyncFileWriter(filePath string, maxSize datasize.ByteSize, queue int) *AsyncFileWriter {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		panic(fmt.Sprintf("get file path of logger error. filePath=%s, err=%s", filePath, err))
	}
	megabytes := int(maxSize / datasize.MB)
	if megabytes < 1 {
		megabytes = 1
	}
	return newAsyncWriter(&lumberjack.Logger{
		Filename:   absFilePath,
		MaxSize:    megabytes,
		MaxBackups: 3,
	}, queue)
}

func newAsyncWriter(out io.WriteCloser, queue int) *AsyncFileWriter {
	if queue < 1 {
		queue = 1
	}
	return &AsyncFileWriter{
		out:  out,
		buf:  make(chan []byte, queue),
		stop: make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (w *AsyncFileWriter) Start() error {
	if !atomic.CompareAndSwapInt32(&w.started, 0, 1) {
		return errors.New("logger has already been started")
	}
	w.wg.Add(1)
	go func() {
		defer func() {
			w.flushBuffer()
			if err := w.out.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "close log file error. err=%s\n", err)
			}
			atomic.StoreInt32(&w.started, 0)
			w.wg.Done()
		}()

		for {
			select {
			case msg := <-w.buf:
				w.syncWrite(msg)
			case <-w.stop:
				return
			}
		}
	}()
	return nil
}

func (w *AsyncFileWriter) flushBuffer() {
	for {
		select {
		case msg := <-w.buf:
			w.syncWrite(msg)
		default:
			return
		}
	}
}

func (w *AsyncFileWriter) syncWrite(msg []byte) {
	if _, err := w.out.Write(msg); err != nil {
		fmt.Fprintf(os.Stderr, "write log file error. err=%s\n", err)
	}
}

// Stop drains the queue and closes the underlying file.
func (w *AsyncFileWriter) Stop() {
	if atomic.LoadInt32(&w.started) == 0 {
		return
	}
	w.stop <- struct{}{}
	w.wg.Wait()
}

// Close implements io.Closer.
func (w *AsyncFileWriter) Close() error {
	w.Stop()
	return nil
}

// Write implements io.Writer. It never blocks.
func (w *AsyncFileWriter) Write(msg []byte) (int, error) {
	// The handler reuses its buffer once Write returns.
	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case w.buf <- buf:
	default:
		atomic.AddUint64(&w.dropped, 1)
	}
	return len(msg), nil
}

// Dropped returns the number of lines lost to a full queue.
func (w *AsyncFileWriter) Dropped() uint64 {
	return atomic.LoadUint64(&w.dropped)
}

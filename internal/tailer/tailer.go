// Package tailer turns the growth of a log file into a stream of complete lines.
package tailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/nxadm/tail"
)

// errBuffer is the buffer size for the error channel.
const errBuffer = 16

// Config controls where a tail starts and how growth is detected.
type Config struct {
	// FromStart reads the file from offset 0 instead of its end.
	FromStart bool

	// Offset, when positive, starts reading at that byte position.
	// It takes precedence over FromStart.
	Offset int64

	// Poll detects growth by polling the file size instead of using
	// filesystem notifications.
	Poll bool

	// MaxLineSize splits longer lines when non-zero.
	MaxLineSize int

	// Logger receives nxadm/tail's diagnostics at debug level.
	Logger *slog.Logger
}

// DefaultConfig returns a Config that follows the file from its end.
func DefaultConfig() Config {
	return Config{}
}

// Line is one complete line and the file position right after it.
type Line struct {
	Text   string
	Offset int64
}

// Tailer follows a single file.
// Lines without a trailing newline are held until the newline arrives.
type Tailer struct {
	path   string
	t      *tail.Tail
	lines  chan Line
	errs   chan error
	offset atomic.Int64

	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// New opens path and starts following it.
// The file must exist. Reading stops when ctx is cancelled or Stop is called.
func New(ctx context.Context, path string, cfg Config) (*Tailer, error) {
	start := cfg.Offset
	if start <= 0 && !cfg.FromStart {
		// Resolve the end now; a seek done later by the tail goroutine would
		// skip lines appended after New returns.
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		start = info.Size()
	}
	if start < 0 {
		start = 0
	}
	loc := &tail.SeekInfo{Offset: start, Whence: io.SeekStart}

	var logger = tail.DiscardingLogger
	if cfg.Logger != nil {
		logger = slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelDebug)
	}

	t, err := tail.TailFile(path, tail.Config{
		Location:      loc,
		Follow:        true,
		ReOpen:        false,
		MustExist:     true,
		Poll:          cfg.Poll,
		MaxLineSize:   cfg.MaxLineSize,
		CompleteLines: true,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	tl := &Tailer{
		path:  path,
		t:     t,
		lines: make(chan Line),
		errs:  make(chan error, errBuffer),
		done:  make(chan struct{}),
	}
	tl.offset.Store(start)

	go tl.run(ctx)
	return tl, nil
}

// Lines returns the channel of complete lines in file order.
// It is closed when the tailer stops.
func (tl *Tailer) Lines() <-chan Line {
	return tl.lines
}

// Errors returns non-fatal read errors.
func (tl *Tailer) Errors() <-chan error {
	return tl.errs
}

// Offset returns the position right after the last delivered line.
func (tl *Tailer) Offset() int64 {
	return tl.offset.Load()
}

// Err returns the error that ended the tail, if any.
// It is only meaningful after Lines has been closed.
func (tl *Tailer) Err() error {
	<-tl.done
	return tl.err
}

// Stop stops following the file and releases it.
// Safe to call multiple times. Blocks until the read goroutine has exited.
func (tl *Tailer) Stop() error {
	tl.stopOnce.Do(func() {
		tl.t.Kill(nil)
	})
	<-tl.done
	return nil
}

func (tl *Tailer) run(ctx context.Context) {
	defer close(tl.done)
	defer close(tl.lines)

	// Kill the tail on cancellation so it never blocks on an unread line.
	stop := context.AfterFunc(ctx, func() { tl.t.Kill(nil) })
	defer stop()

	for l := range tl.t.Lines {
		if l.Err != nil {
			select {
			case tl.errs <- l.Err:
			default:
			}
			continue
		}

		line := Line{
			Text:   strings.TrimRight(l.Text, "\r"),
			Offset: l.SeekInfo.Offset,
		}
		select {
		case tl.lines <- line:
			tl.offset.Store(line.Offset)
		case <-ctx.Done():
			tl.t.Kill(nil)
			tl.drain()
			return
		case <-tl.t.Dying():
			tl.drain()
			tl.setErr()
			return
		}
	}
	tl.setErr()
}

// drain consumes any line the tail goroutine is blocked sending so Wait returns.
func (tl *Tailer) drain() {
	for range tl.t.Lines {
	}
}

func (tl *Tailer) setErr() {
	if err := tl.t.Wait(); err != nil && !errors.Is(err, tail.ErrStop) {
		tl.err = err
	}
}

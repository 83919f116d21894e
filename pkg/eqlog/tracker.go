package eqlog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/eqlog/eqlog-go/internal/logfinder"
	"github.com/eqlog/eqlog-go/internal/safefile"
	"github.com/eqlog/eqlog-go/internal/tailer"
)

// Line is one complete log line as delivered by a Tracker.
type Line struct {
	Text string
	// Offset is the file position right after the line.
	Offset int64
	// Session is the id of the tracking session that read the line.
	Session  string
	Received time.Time
}

// ZoneChange is emitted when a "You have entered" line is read.
type ZoneChange struct {
	Zone      string
	Timestamp time.Time
	Session   string
}

// Tracker follows one EverQuest log file at a time, starting at its end.
// Every complete line is published to line subscribers, parsed, and its
// combat events handed to the configured EventSink in file order.
type Tracker struct {
	cfg *config
	log *slog.Logger

	mu      sync.Mutex
	closed  bool
	session *session

	offset atomic.Int64
	zone   atomic.Pointer[string]

	lines broker[Line]
	zones broker[ZoneChange]
	errs  broker[error]
}

type session struct {
	id     string
	path   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker creates an idle Tracker.
// It honors WithParser, WithSink, WithPoll, WithMaxLineSize,
// WithRetryInterval, WithClock, WithLogger and WithRecorder.
func NewTracker(opts ...Option) (*Tracker, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		cfg: cfg,
		log: cfg.logger,
	}, nil
}

// Start begins tracking path from its current end. History is never
// replayed. Starting while a session is active stops that session first.
//
// Returns a *TrackError wrapping ErrNotFound if the file does not exist, or
// ErrInvalidArgument if it is not a regular file named eqlog_*.
// The session ends when ctx is cancelled or Stop is called.
func (t *Tracker) Start(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrackerClosed
	}
	t.stopLocked()

	info, err := safefile.StatRegular(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &TrackError{Op: TrackOpStart, Path: path, Err: fmt.Errorf("%w: %w", ErrNotFound, err)}
	case errors.Is(err, safefile.ErrNotRegularFile):
		return &TrackError{Op: TrackOpStart, Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidArgument, err)}
	case err != nil:
		return &TrackError{Op: TrackOpStart, Path: path, Err: err}
	}
	if !logfinder.IsLogFileName(path) {
		return &TrackError{
			Op:   TrackOpStart,
			Path: path,
			Err:  fmt.Errorf("%w: file name must start with %q", ErrInvalidArgument, logfinder.LogFilePrefix),
		}
	}

	s := &session{
		id:   uuid.NewString(),
		path: path,
		done: make(chan struct{}),
	}
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	tl, err := t.openTail(sctx, s, info.Size())
	if err != nil {
		cancel()
		return &TrackError{Op: TrackOpTail, Path: path, Err: err}
	}

	t.offset.Store(info.Size())
	t.session = s
	t.log.Debug("started tracking", "path", path, "session", s.id, "offset", info.Size())

	go t.run(sctx, s, tl)
	return nil
}

// Stop ends the current session. No line is delivered after Stop returns.
// Safe to call multiple times and before Start.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return nil
}

func (t *Tracker) stopLocked() {
	s := t.session
	if s == nil {
		return
	}
	s.cancel()
	<-s.done

	t.session = nil
	t.offset.Store(0)
	t.log.Debug("stopped tracking", "path", s.path, "session", s.id)
}

// Close stops tracking and closes every subscription channel.
// Safe to call multiple times.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.stopLocked()
	t.closed = true
	t.lines.close()
	t.zones.close()
	t.errs.close()
	return nil
}

// IsTracking reports whether a session is running.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeLocked() != nil
}

// activeLocked returns the running session, or nil when idle or when the
// session ended because its context was cancelled.
func (t *Tracker) activeLocked() *session {
	if t.session == nil {
		return nil
	}
	select {
	case <-t.session.done:
		return nil
	default:
		return t.session
	}
}

// CurrentLogPath returns the tracked path, or "" when idle.
func (t *Tracker) CurrentLogPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.activeLocked(); s != nil {
		return s.path
	}
	return ""
}

// SessionID returns the current session id, or "" when idle.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s := t.activeLocked(); s != nil {
		return s.id
	}
	return ""
}

// Offset returns the file position right after the last consumed line.
// It is 0 when idle.
func (t *Tracker) Offset() int64 {
	return t.offset.Load()
}

// CurrentZone returns the zone from the most recent zone-change line,
// or "" if none has been seen. It survives Stop and Start.
func (t *Tracker) CurrentZone() string {
	if z := t.zone.Load(); z != nil {
		return *z
	}
	return ""
}

// SubscribeLines delivers every complete line, parsed or not, in file order.
func (t *Tracker) SubscribeLines(buffer int) (<-chan Line, func()) {
	return t.lines.subscribe(buffer)
}

// SubscribeZones delivers zone changes.
func (t *Tracker) SubscribeZones(buffer int) (<-chan ZoneChange, func()) {
	return t.zones.subscribe(buffer)
}

// SubscribeErrors delivers background read and parse errors.
// They never end the session.
func (t *Tracker) SubscribeErrors(buffer int) (<-chan error, func()) {
	return t.errs.subscribe(buffer)
}

func (t *Tracker) openTail(ctx context.Context, s *session, offset int64) (*tailer.Tailer, error) {
	return tailer.New(ctx, s.path, tailer.Config{
		Offset:      offset,
		FromStart:   offset == 0,
		Poll:        t.cfg.poll,
		MaxLineSize: t.cfg.maxLineSize,
		Logger:      t.log.With("session", s.id),
	})
}

func (t *Tracker) run(ctx context.Context, s *session, tl *tailer.Tailer) {
	defer close(s.done)
	defer t.offset.Store(0)
	defer func() { tl.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-tl.Errors():
			t.report(ctx, &TrackError{Op: TrackOpRead, Path: s.path, Err: err})

		case l, ok := <-tl.Lines():
			if ok {
				t.process(ctx, s, l)
				continue
			}
			if ctx.Err() != nil {
				return
			}

			err := tl.Err()
			if err == nil {
				err = errors.New("tail ended unexpectedly")
			}
			t.report(ctx, &TrackError{Op: TrackOpRead, Path: s.path, Err: err})

			next, resumed := t.resume(ctx, s)
			if !resumed {
				return
			}
			tl = next
		}
	}
}

// resume reopens the tail at the last consumed offset, retrying until it
// succeeds or ctx is done.
func (t *Tracker) resume(ctx context.Context, s *session) (*tailer.Tailer, bool) {
	timer := time.NewTimer(t.cfg.retryInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, false
		case <-timer.C:
		}

		offset := t.offset.Load()
		tl, err := t.openTail(ctx, s, offset)
		if err == nil {
			t.log.Debug("resumed tracking", "path", s.path, "session", s.id, "offset", offset)
			return tl, true
		}
		t.report(ctx, &TrackError{Op: TrackOpTail, Path: s.path, Err: err})
		timer.Reset(t.cfg.retryInterval)
	}
}

func (t *Tracker) process(ctx context.Context, s *session, l tailer.Line) {
	t.cfg.recorder.LineReceived()

	pc := ParseContext{Now: t.cfg.now(), Zone: t.CurrentZone()}
	res, err := t.cfg.parser.ParseLine(ctx, pc, l.Text)
	if err != nil {
		t.log.Debug("malformed line", "session", s.id, "offset", l.Offset, "error", err)
		t.errs.publish(ctx, err)
	}

	if res.ZoneChanged {
		zone := res.Zone
		t.zone.Store(&zone)
		t.cfg.recorder.ZoneChanged()
		t.log.Debug("zone changed", "zone", zone, "session", s.id)
		ts := res.Timestamp
		if ts.IsZero() {
			ts = pc.Now
		}
		t.zones.publish(ctx, ZoneChange{Zone: zone, Timestamp: ts, Session: s.id})
	}

	for _, ev := range res.Events {
		t.cfg.recorder.EventParsed(ev.Kind)
		if t.cfg.sink != nil {
			t.cfg.sink.Ingest(ctx, ev)
		}
	}

	t.lines.publish(ctx, Line{Text: l.Text, Offset: l.Offset, Session: s.id, Received: pc.Now})
	t.offset.Store(l.Offset)
}

func (t *Tracker) report(ctx context.Context, err error) {
	t.cfg.recorder.ReadError()
	t.log.Warn("tracking error", "error", err)
	t.errs.publish(ctx, err)
}

package eqlog

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SnapshotSource is queried by a Publisher on every tick.
type SnapshotSource interface {
	AllSnapshots() Snapshots
}

// Publisher polls a SnapshotSource at a fixed interval and pushes non-empty
// results to its subscribers. A tick that fires while the previous one is
// still computing or delivering is skipped.
type Publisher struct {
	src      SnapshotSource
	interval time.Duration
	log      *slog.Logger
	rec      Recorder

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}

	inFlight atomic.Bool
	ticks    sync.WaitGroup

	updates broker[Snapshots]
}

// NewPublisher creates a stopped Publisher over src.
// It honors WithPublishInterval, WithLogger and WithRecorder.
func NewPublisher(src SnapshotSource, opts ...Option) (*Publisher, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		src:      src,
		interval: cfg.publishInterval,
		log:      cfg.logger,
		rec:      cfg.recorder,
	}, nil
}

// Start begins ticking until Stop is called or ctx is cancelled.
// Returns ErrPublisherRunning if already running.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPublisherRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})

	go p.run(ctx, p.doneCh)
	p.log.Debug("publisher started", "interval", p.interval)
	return nil
}

// Stop halts the ticker and waits for an in-flight tick.
// No snapshot is delivered after Stop returns. Safe to call multiple times.
func (p *Publisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.cancel()
	<-p.doneCh
	p.running = false
	p.log.Debug("publisher stopped")
}

// Running reports whether the publisher is ticking.
func (p *Publisher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	select {
	case <-p.doneCh:
		return false
	default:
		return true
	}
}

// Subscribe delivers each published snapshot map. The maps are shared
// between subscribers and must not be modified.
func (p *Publisher) Subscribe(buffer int) (<-chan Snapshots, func()) {
	return p.updates.subscribe(buffer)
}

// Close stops the publisher and closes every subscription channel.
func (p *Publisher) Close() {
	p.Stop()
	p.updates.close()
}

func (p *Publisher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.ticks.Wait()
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Publisher) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.rec.TickSkipped()
		p.log.Debug("skipped tick, previous still running")
		return
	}

	p.ticks.Add(1)
	go func() {
		defer p.ticks.Done()
		defer p.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("snapshot tick panicked", "panic", r)
			}
		}()

		snaps := p.src.AllSnapshots()
		if len(snaps) == 0 {
			return
		}
		p.updates.publish(ctx, snaps)
		p.rec.SnapshotsPublished(len(snaps))
	}()
}

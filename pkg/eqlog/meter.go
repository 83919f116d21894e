package eqlog

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// Meter wires a Tracker, an Aggregator and a Publisher into one DPS meter:
// tracked lines feed the aggregator, and the publisher pushes its
// snapshots once per interval while tracking.
type Meter struct {
	tracker *Tracker
	agg     *Aggregator
	pub     *Publisher

	mu sync.Mutex
}

// NewMeter builds the pipeline. opts are applied to every component;
// any WithSink is replaced by the meter's aggregator.
func NewMeter(opts ...Option) (*Meter, error) {
	agg, err := NewAggregator(opts...)
	if err != nil {
		return nil, err
	}
	tracker, err := NewTracker(slices.Concat(opts, []Option{WithSink(agg)})...)
	if err != nil {
		return nil, err
	}
	pub, err := NewPublisher(agg, opts...)
	if err != nil {
		return nil, err
	}
	return &Meter{tracker: tracker, agg: agg, pub: pub}, nil
}

// StartTracking starts the publisher if it is not running, then tracks path.
func (m *Meter) StartTracking(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.tracker.Start(ctx, path); err != nil {
		return err
	}
	if !m.pub.Running() {
		if err := m.pub.Start(ctx); err != nil {
			m.tracker.Stop()
			return err
		}
	}
	return nil
}

// StopTracking stops the tracker, then the publisher.
func (m *Meter) StopTracking() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.tracker.Stop()
	m.pub.Stop()
	return err
}

// IsTracking reports whether a log file is being tracked.
func (m *Meter) IsTracking() bool { return m.tracker.IsTracking() }

// CurrentLogPath returns the tracked path, or "" when idle.
func (m *Meter) CurrentLogPath() string { return m.tracker.CurrentLogPath() }

// AddEvent feeds an event directly into the aggregator.
// It waits for eventAdded subscribers like Aggregator.AddEvent.
func (m *Meter) AddEvent(ev event.CombatEvent) { m.agg.AddEvent(ev) }

// AddEventContext is AddEvent bounded by ctx.
func (m *Meter) AddEventContext(ctx context.Context, ev event.CombatEvent) {
	m.agg.AddEventContext(ctx, ev)
}

// GetPlayerDps returns actor's snapshot over the current window.
func (m *Meter) GetPlayerDps(actor string) DpsSnapshot { return m.agg.Snapshot(actor) }

// GetPlayerDpsWithin returns actor's snapshot over window.
func (m *Meter) GetPlayerDpsWithin(actor string, window time.Duration) DpsSnapshot {
	return m.agg.SnapshotWithin(actor, window)
}

// GetAllPlayerDps returns every active actor's snapshot over the current window.
func (m *Meter) GetAllPlayerDps() Snapshots { return m.agg.AllSnapshots() }

// GetAllPlayerDpsWithin returns every active actor's snapshot over window.
func (m *Meter) GetAllPlayerDpsWithin(window time.Duration) Snapshots {
	return m.agg.AllSnapshotsWithin(window)
}

// ClearData discards all combat data. The publisher keeps running.
func (m *Meter) ClearData() { m.agg.Clear() }

// SetCalculationWindow changes the default window.
func (m *Meter) SetCalculationWindow(d time.Duration) error { return m.agg.SetWindow(d) }

// Tracker exposes the tracker for line, zone and error subscriptions.
func (m *Meter) Tracker() *Tracker { return m.tracker }

// Aggregator exposes the aggregator for eventAdded subscriptions.
func (m *Meter) Aggregator() *Aggregator { return m.agg }

// Publisher exposes the publisher for snapshot subscriptions.
func (m *Meter) Publisher() *Publisher { return m.pub }

// Close stops everything and closes all subscription channels.
func (m *Meter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.tracker.Close()
	m.pub.Close()
	m.agg.Close()
	return err
}

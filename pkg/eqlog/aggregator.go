package eqlog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// EventSink receives parsed combat events from a Tracker.
// Ingest may block; it must return once ctx is done.
type EventSink interface {
	Ingest(ctx context.Context, ev event.CombatEvent)
}

// SinkFunc is an adapter to allow ordinary functions to be used as EventSinks.
type SinkFunc func(ctx context.Context, ev event.CombatEvent)

// Ingest implements the EventSink interface.
func (f SinkFunc) Ingest(ctx context.Context, ev event.CombatEvent) {
	f(ctx, ev)
}

// Aggregator keeps a time-ordered ledger of combat events per actor and
// computes windowed DPS snapshots from it. It is safe for concurrent use.
type Aggregator struct {
	log  *slog.Logger
	rec  Recorder
	now  func() time.Time
	keep time.Duration
	max  int

	// ingestMu serializes append and eventAdded delivery so subscribers
	// see events in insertion order.
	ingestMu sync.Mutex

	mu      sync.RWMutex
	window  time.Duration
	ledgers map[string][]event.CombatEvent

	added broker[event.CombatEvent]
}

// NewAggregator creates an empty Aggregator.
// It honors WithWindow, WithRetention, WithMaxEventsPerActor, WithClock,
// WithLogger and WithRecorder.
func NewAggregator(opts ...Option) (*Aggregator, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Aggregator{
		log:     cfg.logger,
		rec:     cfg.recorder,
		now:     cfg.now,
		keep:    cfg.retention,
		max:     cfg.maxEventsPerActor,
		window:  cfg.window,
		ledgers: make(map[string][]event.CombatEvent),
	}, nil
}

// AddEvent records ev under its actor key, prunes that actor's expired
// events and notifies eventAdded subscribers. It blocks until every
// subscriber has taken the event; use AddEventContext to bound the wait.
func (a *Aggregator) AddEvent(ev event.CombatEvent) {
	a.Ingest(context.Background(), ev)
}

// AddEventContext is AddEvent that stops waiting on subscribers when ctx
// is done. The event is recorded either way.
func (a *Aggregator) AddEventContext(ctx context.Context, ev event.CombatEvent) {
	a.Ingest(ctx, ev)
}

// Ingest implements EventSink. Delivery to a slow subscriber is abandoned
// when ctx is done.
func (a *Aggregator) Ingest(ctx context.Context, ev event.CombatEvent) {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()

	a.insert(ev)
	a.added.publish(ctx, ev)
}

func (a *Aggregator) insert(ev event.CombatEvent) {
	key := ev.ActorKey()

	a.mu.Lock()
	defer a.mu.Unlock()

	ledger, known := a.ledgers[key]
	ledger = append(ledger, ev)

	cutoff := a.now().Add(-a.keep)
	before := len(ledger)
	ledger = slices.DeleteFunc(ledger, func(e event.CombatEvent) bool {
		return e.Timestamp.Before(cutoff)
	})
	if a.max > 0 && len(ledger) > a.max {
		ledger = slices.Delete(ledger, 0, len(ledger)-a.max)
	}
	if pruned := before - len(ledger); pruned > 0 {
		a.rec.EventsPruned(pruned)
		a.log.Debug("pruned events", "actor", key, "count", pruned)
	}

	switch {
	case len(ledger) == 0:
		delete(a.ledgers, key)
	default:
		a.ledgers[key] = ledger
	}
	if _, still := a.ledgers[key]; still != known {
		a.rec.ActorsTracked(len(a.ledgers))
	}
}

// Snapshot returns actor's snapshot over the current window.
// An unknown actor yields a zero snapshot carrying only the name.
func (a *Aggregator) Snapshot(actor string) DpsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return computeSnapshot(actor, a.ledgers[actor], a.now().Add(-a.window))
}

// SnapshotWithin is Snapshot over an explicit window.
func (a *Aggregator) SnapshotWithin(actor string, window time.Duration) DpsSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return computeSnapshot(actor, a.ledgers[actor], a.now().Add(-window))
}

// AllSnapshots returns a snapshot for every actor with at least one hit
// inside the current window. Actors with only misses are omitted.
func (a *Aggregator) AllSnapshots() Snapshots {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allLocked(a.window)
}

// AllSnapshotsWithin is AllSnapshots over an explicit window.
func (a *Aggregator) AllSnapshotsWithin(window time.Duration) Snapshots {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allLocked(window)
}

func (a *Aggregator) allLocked(window time.Duration) Snapshots {
	cutoff := a.now().Add(-window)
	out := make(Snapshots, len(a.ledgers))
	for actor, ledger := range a.ledgers {
		s := computeSnapshot(actor, ledger, cutoff)
		if s.TotalDamage == 0 && s.HitCount == 0 {
			continue
		}
		out[actor] = s
	}
	return out
}

// SetWindow changes the default window used by Snapshot and AllSnapshots.
func (a *Aggregator) SetWindow(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidArgument, d)
	}
	a.mu.Lock()
	a.window = d
	a.mu.Unlock()
	a.log.Debug("calculation window changed", "window", d)
	return nil
}

// Window returns the current default window.
func (a *Aggregator) Window() time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.window
}

// Clear forgets every actor.
func (a *Aggregator) Clear() {
	a.mu.Lock()
	a.ledgers = make(map[string][]event.CombatEvent)
	a.mu.Unlock()
	a.rec.ActorsTracked(0)
	a.log.Debug("cleared combat data")
}

// Actors returns the known actor keys in sorted order.
func (a *Aggregator) Actors() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	actors := make([]string, 0, len(a.ledgers))
	for k := range a.ledgers {
		actors = append(actors, k)
	}
	slices.Sort(actors)
	return actors
}

// Ledger returns a copy of actor's retained events in insertion order.
func (a *Aggregator) Ledger(actor string) []event.CombatEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.ledgers[actor])
}

// SubscribeAdded delivers every event accepted by AddEvent, in order.
// Adding blocks while a subscriber's buffer is full, so a subscriber that
// stops reading must call the returned func to unsubscribe.
func (a *Aggregator) SubscribeAdded(buffer int) (<-chan event.CombatEvent, func()) {
	return a.added.subscribe(buffer)
}

// Close closes every eventAdded subscription. The Aggregator must not
// receive events afterwards.
func (a *Aggregator) Close() {
	a.ingestMu.Lock()
	defer a.ingestMu.Unlock()
	a.added.close()
}

var _ EventSink = (*Aggregator)(nil)

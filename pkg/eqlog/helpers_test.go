package eqlog_test

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// base is the instant of the "[Thu Jan 01 00:00:00 2024]" timestamp.
var base = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type countingRecorder struct {
	lines, zones, readErrs, pruned, published, skipped, actors atomic.Int64

	mu    sync.Mutex
	kinds map[event.Kind]int
}

func (r *countingRecorder) LineReceived() { r.lines.Add(1) }
func (r *countingRecorder) EventParsed(k event.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.kinds == nil {
		r.kinds = make(map[event.Kind]int)
	}
	r.kinds[k]++
}
func (r *countingRecorder) ZoneChanged() { r.zones.Add(1) }
func (r *countingRecorder) ReadError() { r.readErrs.Add(1) }
func (r *countingRecorder) EventsPruned(n int) { r.pruned.Add(int64(n)) }
func (r *countingRecorder) ActorsTracked(n int) { r.actors.Store(int64(n)) }
func (r *countingRecorder) SnapshotsPublished(int) { r.published.Add(1) }
func (r *countingRecorder) TickSkipped() { r.skipped.Add(1) }
func (r *countingRecorder) kind(k event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kinds[k]
}

func hit(actor string, amount int, at time.Time) event.CombatEvent {
	return event.CombatEvent{
		Timestamp:  at,
		Source:     actor,
		Target:     "Goblin",
		Amount:     amount,
		Kind:       event.Melee,
		IsOutgoing: true,
	}
}

func miss(actor string, at time.Time) event.CombatEvent {
	return event.CombatEvent{
		Timestamp:  at,
		Source:     actor,
		Kind:       event.Miss,
		IsOutgoing: true,
	}
}

// createLog writes content to a new eqlog_ file and returns an append handle.
func createLog(t *testing.T, content string) (string, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eqlog_Tester_test.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return path, f
}

func appendLines(t *testing.T, f *os.File, lines ...string) {
	t.Helper()
	for _, l := range lines {
		_, err := f.WriteString(l + "\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Sync())
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for value")
	}
	var zero T
	return zero
}

func expectNothing[T any](t *testing.T, ch <-chan T, wait time.Duration) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("unexpected value %+v", v)
		}
	case <-time.After(wait):
	}
}

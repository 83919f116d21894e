package eqlog

import "github.com/eqlog/eqlog-go/pkg/eqlog/event"

// Recorder receives pipeline counters. internal/metrics provides a
// Prometheus implementation. Methods are called from pipeline goroutines
// and must be safe for concurrent use.
type Recorder interface {
	LineReceived()
	EventParsed(kind event.Kind)
	ZoneChanged()
	ReadError()
	EventsPruned(n int)
	ActorsTracked(n int)
	SnapshotsPublished(actors int)
	TickSkipped()
}

type nopRecorder struct{}

func (nopRecorder) LineReceived() {}
func (nopRecorder) EventParsed(event.Kind) {}
func (nopRecorder) ZoneChanged() {}
func (nopRecorder) ReadError() {}
func (nopRecorder) EventsPruned(int) {}
func (nopRecorder) ActorsTracked(int) {}
func (nopRecorder) SnapshotsPublished(int) {}
func (nopRecorder) TickSkipped() {}

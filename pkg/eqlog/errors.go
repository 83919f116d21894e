package eqlog

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by Start when the log file does not exist.
	ErrNotFound = errors.New("log file not found")

	// ErrInvalidArgument is returned for a log path that is not a regular
	// eqlog_ file, and for invalid durations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTrackerClosed is returned when using a tracker after Close.
	ErrTrackerClosed = errors.New("tracker closed")

	// ErrPublisherRunning is returned by Publisher.Start when it is already running.
	ErrPublisherRunning = errors.New("publisher already running")
)

// TrackOp identifies the tracking step that failed.
type TrackOp string

const (
	// TrackOpStart is opening and validating the log file.
	TrackOpStart TrackOp = "start"
	// TrackOpTail is (re)starting the tail at an offset.
	TrackOpTail TrackOp = "tail"
	// TrackOpRead is reading appended data.
	TrackOpRead TrackOp = "read"
)

// TrackError represents an error that occurred while tracking a log file.
type TrackError struct {
	Op   TrackOp
	Path string
	Err  error
}

func (e *TrackError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TrackError) Unwrap() error {
	return e.Err
}

// ParseError is reported for a combat line that matched a pattern but could
// not be converted, e.g. an amount too large for an int.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

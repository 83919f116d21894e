package eqlog

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/eqlog/eqlog-go/pkg/eqlog/event"
)

// Defaults for the tracking pipeline.
const (
	DefaultWindow          = 30 * time.Second
	DefaultRetention       = time.Hour
	DefaultPublishInterval = time.Second
	DefaultRetryInterval   = time.Second
)

// Option configures a Tracker, Aggregator, Publisher or Meter using the
// functional options pattern. Each component reads the fields it needs and
// ignores the rest, so one option list can be shared by all of them.
type Option func(*config)

// config holds internal configuration shared by the pipeline components.
type config struct {
	logger            *slog.Logger
	recorder          Recorder
	now               func() time.Time
	parser            Parser
	sink              EventSink
	poll              bool
	maxLineSize       int
	retryInterval     time.Duration
	window            time.Duration
	retention         time.Duration
	maxEventsPerActor int
	publishInterval   time.Duration
}

func defaultConfig() *config {
	return &config{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:        nopRecorder{},
		now:             time.Now,
		parser:          DefaultParser{},
		retryInterval:   DefaultRetryInterval,
		window:          DefaultWindow,
		retention:       DefaultRetention,
		publishInterval: DefaultPublishInterval,
	}
}

func applyOptions(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks for invalid option values.
func (c *config) validate() error {
	if c.window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidArgument, c.window)
	}
	if c.retention <= 0 {
		return fmt.Errorf("%w: retention must be positive, got %v", ErrInvalidArgument, c.retention)
	}
	if c.publishInterval <= 0 {
		return fmt.Errorf("%w: publish interval must be positive, got %v", ErrInvalidArgument, c.publishInterval)
	}
	if c.retryInterval <= 0 {
		return fmt.Errorf("%w: retry interval must be positive, got %v", ErrInvalidArgument, c.retryInterval)
	}
	if c.maxEventsPerActor < 0 {
		return fmt.Errorf("%w: max events per actor must be non-negative, got %d", ErrInvalidArgument, c.maxEventsPerActor)
	}
	if c.maxLineSize < 0 {
		return fmt.Errorf("%w: max line size must be non-negative, got %d", ErrInvalidArgument, c.maxLineSize)
	}
	return nil
}

// WithLogger sets a custom logger for debug output.
// If logger is nil, logging is disabled (default behavior).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder. Nil keeps the no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithClock replaces time.Now, mainly for tests and offline replays.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithParser sets a custom parser for log line parsing.
// If p is nil, this option has no effect (the default parser remains active).
func WithParser(p Parser) Option {
	return func(c *config) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParsers runs the given parsers in order and keeps the first match,
// falling back to nothing when none match. Use it to put custom patterns
// ahead of DefaultParser.
func WithParsers(parsers ...Parser) Option {
	return func(c *config) {
		if len(parsers) > 0 {
			c.parser = &ParserChain{
				Mode:    ChainFirst,
				Parsers: parsers,
			}
		}
	}
}

// WithSink sets where a Tracker delivers parsed combat events.
func WithSink(s EventSink) Option {
	return func(c *config) {
		c.sink = s
	}
}

// WithPoll makes the Tracker poll the file size instead of relying on
// filesystem notifications. Useful on network shares.
func WithPoll(poll bool) Option {
	return func(c *config) {
		c.poll = poll
	}
}

// WithMaxLineSize splits lines longer than n bytes. 0 means unlimited.
func WithMaxLineSize(n int) Option {
	return func(c *config) {
		c.maxLineSize = n
	}
}

// WithRetryInterval sets how long the Tracker waits before resuming a
// failed tail. Default: 1 second.
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) {
		c.retryInterval = d
	}
}

// WithWindow sets the initial DPS calculation window. Default: 30 seconds.
func WithWindow(d time.Duration) Option {
	return func(c *config) {
		c.window = d
	}
}

// WithRetention sets how long events are kept per actor. Default: 1 hour.
func WithRetention(d time.Duration) Option {
	return func(c *config) {
		c.retention = d
	}
}

// WithMaxEventsPerActor caps each actor's ledger, dropping the oldest events
// first. 0 (default) means no cap beyond retention.
func WithMaxEventsPerActor(n int) Option {
	return func(c *config) {
		c.maxEventsPerActor = n
	}
}

// WithPublishInterval sets the Publisher tick. Default: 1 second.
func WithPublishInterval(d time.Duration) Option {
	return func(c *config) {
		c.publishInterval = d
	}
}

// ParseOption configures ParseFile behavior.
type ParseOption func(*parseConfig)

// parseConfig holds internal configuration for parsing.
type parseConfig struct {
	include     map[event.Kind]struct{}
	since       time.Time
	until       time.Time
	stopOnError bool
	parser      Parser
	now         func() time.Time
}

func defaultParseConfig() *parseConfig {
	return &parseConfig{
		parser: DefaultParser{},
		now:    time.Now,
	}
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := defaultParseConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *parseConfig) allows(ev event.CombatEvent) bool {
	if c.include != nil {
		if _, ok := c.include[ev.Kind]; !ok {
			return false
		}
	}
	if !c.since.IsZero() && ev.Timestamp.Before(c.since) {
		return false
	}
	if !c.until.IsZero() && !ev.Timestamp.Before(c.until) {
		return false
	}
	return true
}

// WithParseKinds filters events to only include the specified kinds.
func WithParseKinds(kinds ...event.Kind) ParseOption {
	return func(c *parseConfig) {
		c.include = make(map[event.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			c.include[k] = struct{}{}
		}
	}
}

// WithParseTimeRange filters events to only include those within the time range.
// since is inclusive, until is exclusive.
// Zero values are ignored (no filtering for that boundary).
func WithParseTimeRange(since, until time.Time) ParseOption {
	return func(c *parseConfig) {
		c.since = since
		c.until = until
	}
}

// WithParseParser sets a custom parser for ParseFile.
// If p is nil, this option has no effect (the default parser remains active).
func WithParseParser(p Parser) ParseOption {
	return func(c *parseConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithParseStopOnError stops parsing on the first error instead of skipping.
// Default: false (report malformed lines and continue).
func WithParseStopOnError(stop bool) ParseOption {
	return func(c *parseConfig) {
		c.stopOnError = stop
	}
}

// WithParseClock sets the fallback time for lines whose timestamp does not parse.
func WithParseClock(now func() time.Time) ParseOption {
	return func(c *parseConfig) {
		if now != nil {
			c.now = now
		}
	}
}

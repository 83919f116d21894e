package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eqlog/eqlog-go/internal/metrics"
	"github.com/eqlog/eqlog-go/pkg/eqlog"
)

var (
	// meter flags
	meterFormat string
	window      time.Duration
	interval    time.Duration
	metricsAddr string
	top         int
)

var meterCmd = &cobra.Command{
	Use:   "meter [LOGFILE]",
	Short: "Show rolling per-actor DPS for a combat log",
	Long: `Follow an EverQuest combat log and print a per-actor DPS table on a
fixed interval. Only actors with damage or hits inside the window are shown.

Examples:
  # Live DPS table over the last 30 seconds
  eqlog meter

  # One JSON object per refresh, 60 second window
  eqlog meter --format jsonl --window 60s

  # Serve Prometheus metrics while metering
  eqlog meter --metrics-addr :9090`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMeter,
}

func init() {
	meterCmd.Flags().StringVarP(&meterFormat, "format", "f", "pretty",
		"Output format: jsonl, pretty")
	meterCmd.Flags().DurationVarP(&window, "window", "w", eqlog.DefaultWindow,
		"DPS calculation window")
	meterCmd.Flags().DurationVarP(&interval, "interval", "i", eqlog.DefaultPublishInterval,
		"Refresh interval")
	meterCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address, e.g. :9090")
	meterCmd.Flags().IntVarP(&top, "top", "n", 0,
		"Show only the N highest DPS actors (0 = all)")
	rootCmd.AddCommand(meterCmd)
}

func applyMeterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("window") {
		cfg.Window = window
	}
	if flags.Changed("interval") {
		cfg.PublishInterval = interval
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}
}

func runMeter(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := validateFormat(meterFormat); err != nil {
		return err
	}
	applyMeterFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	parser, err := buildParser(cfg.PatternFiles)
	if err != nil {
		return err
	}
	path, err := resolveLogPath(cfg, args)
	if err != nil {
		return err
	}

	collector := metrics.New()
	opts := []eqlog.Option{
		eqlog.WithLogger(logger),
		eqlog.WithRecorder(collector),
		eqlog.WithPoll(cfg.Poll),
		eqlog.WithWindow(cfg.Window),
		eqlog.WithPublishInterval(cfg.PublishInterval),
	}
	if parser != nil {
		opts = append(opts, eqlog.WithParser(parser))
	}
	meter, err := eqlog.NewMeter(opts...)
	if err != nil {
		return err
	}
	defer meter.Close()

	if cfg.MetricsAddr != "" {
		shutdown, err := serveMetrics(ctx, cfg.MetricsAddr, collector)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	updates, unsubUpdates := meter.Publisher().Subscribe(1)
	defer unsubUpdates()
	errs, unsubErrs := meter.Tracker().SubscribeErrors(subBuffer)
	defer unsubErrs()

	if err := meter.StartTracking(ctx, path); err != nil {
		return err
	}
	logger.Info("metering", "path", path, "window", cfg.Window, "interval", cfg.PublishInterval)

	out := cmd.OutOrStdout()
	for {
		select {
		case snaps, ok := <-updates:
			if !ok {
				return nil
			}
			if err := OutputSnapshots(meterFormat, snaps, top, time.Now(), out); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			warn(cmd.ErrOrStderr(), err)

		case <-ctx.Done():
			return nil
		}
	}
}

// serveMetrics starts the /metrics endpoint and returns a function that
// shuts it down.
func serveMetrics(ctx context.Context, addr string, c *metrics.Collector) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

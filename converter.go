package docconv

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// Converter is the public entry point: it validates requests, admits them
// to the scheduler, and returns terminal outcomes. Construct with New,
// release with Close.
type Converter struct {
	gate    *Gatekeeper
	manager *WorkspaceManager
	sched   *Scheduler
	logger  *zap.Logger

	inputFormats []string
	outputFormat string
	maxFileSize  int64
}

// converterConfig collects option state before wiring.
type converterConfig struct {
	inputFormats []string
	outputFormat string
	workers      int
	maxFileSize  int64
	timeout      time.Duration
	tempDir      string
	binary       string
	runner       Runner
	logger       *zap.Logger
	sweep        bool
}

// Option configures a Converter.
type Option func(*converterConfig)

// WithInputFormats sets the admitted input extensions.
func WithInputFormats(formats []string) Option {
	return func(c *converterConfig) { c.inputFormats = formats }
}

// WithOutputFormat sets the extension the engine is asked to produce.
func WithOutputFormat(format string) Option {
	return func(c *converterConfig) { c.outputFormat = format }
}

// WithWorkers fixes the pool size. Zero derives it from GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *converterConfig) { c.workers = n }
}

// WithMaxFileSize sets the admission byte ceiling.
func WithMaxFileSize(bytes int64) Option {
	return func(c *converterConfig) { c.maxFileSize = bytes }
}

// WithTimeout sets the per-job engine wall-clock limit.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("docconv: WithTimeout duration must be positive")
	}
	return func(c *converterConfig) { c.timeout = d }
}

// WithTempDir sets the temp root holding per-job workspaces.
func WithTempDir(dir string) Option {
	return func(c *converterConfig) { c.tempDir = dir }
}

// WithEngineBinary sets the engine executable.
func WithEngineBinary(binary string) Option {
	return func(c *converterConfig) { c.binary = binary }
}

// WithRunner injects a command runner (used by tests to fake the engine).
func WithRunner(r Runner) Option {
	return func(c *converterConfig) { c.runner = r }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *converterConfig) { c.logger = l }
}

// WithoutSweep disables the startup sweep of orphaned workspaces. Useful
// when several converters share a temp root in tests.
func WithoutSweep() Option {
	return func(c *converterConfig) { c.sweep = false }
}

// New creates a Converter and starts its worker pool. The temp root is
// swept of orphans from previous runs before any slot starts.
func New(opts ...Option) (*Converter, error) {
	cfg := &converterConfig{
		inputFormats: DefaultInputFormats,
		outputFormat: DefaultOutputFormat,
		maxFileSize:  DefaultMaxFileSize,
		timeout:      DefaultTimeout,
		tempDir:      os.TempDir(),
		binary:       DefaultEngineBinary,
		logger:       zap.NewNop(),
		sweep:        true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	manager, err := NewWorkspaceManager(cfg.tempDir)
	if err != nil {
		return nil, err
	}

	if cfg.sweep {
		if n, err := manager.Sweep(); err != nil {
			cfg.logger.Warn("workspace sweep incomplete", zap.Error(err))
		} else if n > 0 {
			cfg.logger.Info("removed orphaned workspaces", zap.Int("count", n))
		}
	}

	workers := ResolveWorkers(cfg.workers)
	invoker := NewInvoker(cfg.binary, cfg.timeout, cfg.runner)

	return &Converter{
		gate:         NewGatekeeper(cfg.inputFormats, cfg.maxFileSize),
		manager:      manager,
		sched:        NewScheduler(workers, manager, invoker, cfg.outputFormat, cfg.logger),
		logger:       cfg.logger,
		inputFormats: cfg.inputFormats,
		outputFormat: cfg.outputFormat,
		maxFileSize:  cfg.maxFileSize,
	}, nil
}

// Convert validates, schedules, and waits for one document conversion.
// Rejections return before any workspace or slot is touched. On success the
// caller owns the Result and must Close it after reading the artifact.
func (c *Converter) Convert(ctx context.Context, filename string, payload []byte) (*Result, error) {
	ext, err := c.gate.Admit(filename, int64(len(payload)))
	if err != nil {
		return nil, err
	}

	if detected := c.gate.SniffMismatch(payload, ext); detected != "" {
		c.logger.Warn("content type does not match extension",
			zap.String("filename", filename),
			zap.String("claimed", ext),
			zap.String("detected", detected),
		)
	}

	job := newJob(filename, ext, payload)
	out := c.sched.Submit(ctx, job)

	select {
	case o := <-out:
		if o.Err != nil {
			return nil, o.Err
		}
		return o.Result, nil
	case <-ctx.Done():
		// The job still reaches a terminal outcome; drain it so a
		// successful artifact is not orphaned on disk.
		go func() {
			if o := <-out; o.Result != nil {
				_ = o.Result.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Workers returns the fixed pool size.
func (c *Converter) Workers() int {
	return c.sched.Workers()
}

// Active reports how many conversions are mid-flight.
func (c *Converter) Active() int {
	return c.sched.Active()
}

// QueueDepth reports how many admitted jobs await a free slot.
func (c *Converter) QueueDepth() int {
	return c.sched.QueueDepth()
}

// InputFormats returns the configured input extension allow-list.
func (c *Converter) InputFormats() []string {
	return c.inputFormats
}

// OutputFormat returns the configured output extension.
func (c *Converter) OutputFormat() string {
	return c.outputFormat
}

// MaxFileSize returns the admission byte ceiling.
func (c *Converter) MaxFileSize() int64 {
	return c.maxFileSize
}

// Close drains the pool and removes per-slot engine profiles. In-flight
// jobs finish or time out; later submissions fail with ErrClosed.
func (c *Converter) Close() error {
	c.sched.Close()
	return nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "budget/internal/log"
)

// DueRunnerConfig holds configuration for the due runner
type DueRunnerConfig struct {
	// Interval between ProcessDue runs (default: 1h)
	Interval time.Duration

	// CatchUp fills in every missed period instead of one per run
	CatchUp bool

	// MaxRounds bounds a catch-up run (0 = unbounded)
	MaxRounds int
}

// DefaultDueRunnerConfig returns sensible defaults
func DefaultDueRunnerConfig() DueRunnerConfig {
	return DueRunnerConfig{
		Interval:  time.Hour,
		MaxRounds: 0,
	}
}

// DueRunner calls ProcessDue on a fixed interval for long-running front
// ends. The recurring processor itself never schedules anything.
type DueRunner struct {
	processor *RecurringProcessor
	config    DueRunnerConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewDueRunner(processor *RecurringProcessor, config DueRunnerConfig) *DueRunner {
	if config.Interval <= 0 {
		config.Interval = DefaultDueRunnerConfig().Interval
	}
	return &DueRunner{
		processor: processor,
		config:    config,
		now:       time.Now,
	}
}

// Start begins the loop. Returns an error if already running.
func (r *DueRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("due runner is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go r.runLoop(ctx, stopCh, doneCh)

	applog.For(ctx, applog.ComponentRecurring).InfoContext(ctx, "Due runner started",
		applog.FieldOperation, applog.OpStartup,
		"interval", r.config.Interval.String(),
		"catch_up", r.config.CatchUp)

	return nil
}

// Stop signals the loop and waits for it to finish. If ctx ends first the
// runner stays running and Stop may be called again.
func (r *DueRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
	doneCh := r.doneCh
	r.mu.Unlock()

	logger := applog.For(ctx, applog.ComponentRecurring)
	select {
	case <-doneCh:
		logger.InfoContext(ctx, "Due runner stopped gracefully", applog.FieldOperation, applog.OpShutdown)
	case <-ctx.Done():
		logger.WarnContext(ctx, "Due runner stop timed out", applog.FieldOperation, applog.OpShutdown)
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	return nil
}

func (r *DueRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunOnce performs a single ProcessDue (or CatchUp) at the current time.
func (r *DueRunner) RunOnce(ctx context.Context) (int, error) {
	if r.config.CatchUp {
		return r.processor.CatchUp(ctx, r.now(), r.config.MaxRounds)
	}
	return r.processor.ProcessDue(ctx, r.now())
}

func (r *DueRunner) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				applog.For(ctx, applog.ComponentRecurring).ErrorContext(ctx, "Scheduled recurring processing failed",
					applog.FieldError, err)
			}
		}
	}
}

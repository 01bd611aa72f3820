package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single run when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Func is one unit of periodic work.
type Func func(ctx context.Context) error

// Config configures a Periodic job.
type Config struct {
	// Type labels logs and metrics, e.g. JobTypeRateLimitCleanup.
	Type     string
	Interval time.Duration
	// Timeout for each run.
	Timeout time.Duration
	Logger  *slog.Logger
	// Reporter is optional.
	Reporter Reporter
}

// Periodic runs a Func every Interval until stopped or its context ends.
type Periodic struct {
	config Config
	fn     Func

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPeriodic creates a stopped job. Interval must be positive.
func NewPeriodic(config Config, fn Func) *Periodic {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Periodic{config: config, fn: fn}
}

// Start begins the periodic loop in a background goroutine. Calling Start on
// a running job is a no-op.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.run(ctx, p.stopCh, p.doneCh)
}

// Stop signals the loop to exit and waits for an in-progress run to finish.
func (p *Periodic) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)
	<-doneCh

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// IsRunning returns whether the loop is active.
func (p *Periodic) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Periodic) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.config.Logger.Debug("background job stopping", "job_type", p.config.Type, "reason", "context")
			return
		case <-stopCh:
			p.config.Logger.Debug("background job stopping", "job_type", p.config.Type, "reason", "stop")
			return
		case <-ticker.C:
			_ = p.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job a single time under Timeout and records the
// outcome.
func (p *Periodic) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, p.config.Timeout)
	defer cancel()

	start := time.Now()
	err := p.fn(ctx)
	duration := time.Since(start)

	if r := p.config.Reporter; r != nil {
		r.ObserveJobDuration(p.config.Type, duration.Seconds())
		if err != nil {
			r.IncJobsTotal(p.config.Type, StatusFailure)
			r.IncJobErrors(p.config.Type, errorType(err))
		} else {
			r.IncJobsTotal(p.config.Type, StatusSuccess)
		}
	}

	if err != nil {
		p.config.Logger.Error("background job failed",
			"job_type", p.config.Type,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return err
	}
	return nil
}

func errorType(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return ErrorTypeFailed
}

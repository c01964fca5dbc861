package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// DueFinder is the slice of the template store the scheduler loop needs.
type DueFinder interface {
	// FindDue retrieves all enabled templates due at the given instant.
	FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error)
}

// Config holds the scheduler loop's settings.
type Config struct {
	// Enabled gates the loop entirely. Start is a no-op when false, so
	// test and CI processes never leak a background timer.
	Enabled bool

	// TickInterval is the period between due-template sweeps. Coarse by
	// design (a minute in production); sub-minute due instants are picked
	// up on the next whole tick.
	TickInterval time.Duration
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		TickInterval: time.Minute,
	}
}

// TickReport is the collected outcome of one tick. Per-template failures
// are values here rather than suppressed exceptions, so a tick's behavior
// stays observable and testable.
type TickReport struct {
	StartedAt time.Time
	Due       int
	Generated int
	Failed    int
	Results   []Result

	// Err is set when the due-template query itself failed and the tick
	// was aborted before any materialization.
	Err error
}

// Scheduler drives the recurring task engine: once per tick it queries the
// due templates and feeds each one to the materializer sequentially,
// isolating failures per template.
//
// A Scheduler is constructed explicitly and owned by the process's startup
// routine. Start is idempotent; a second call while running changes
// nothing, so framework re-initialization cannot arm a duplicate timer.
// Stop waits for an in-flight tick to finish and resets the guard so the
// scheduler can be started again (test teardown relies on this).
type Scheduler struct {
	templates DueFinder
	mat       *Materializer
	cfg       Config
	logger    *slog.Logger

	// now is stubbed in tests.
	now func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler from its collaborators.
// Returns an error if any dependency is nil or the tick interval is not positive.
func NewScheduler(templates DueFinder, mat *Materializer, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if templates == nil {
		return nil, ErrNilTemplateStore
	}
	if mat == nil {
		return nil, errors.New("materializer cannot be nil")
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.TickInterval <= 0 {
		return nil, errors.New("tick interval must be positive")
	}

	return &Scheduler{
		templates: templates,
		mat:       mat,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
	}, nil
}

// Start launches the scheduler loop. The first tick fires promptly rather
// than after a full interval, so templates already overdue at boot are
// caught up immediately. Calling Start on a running or disabled scheduler
// is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, not starting")
		return
	}
	if s.running {
		s.logger.Warn("scheduler already running, ignoring duplicate start")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("scheduler started", "tick_interval", s.cfg.TickInterval)
}

// Stop cancels the loop and blocks until an in-flight tick has finished.
// Materializations already underway run to completion; only the arming of
// the next tick is cancelled. After Stop returns the scheduler may be
// started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// run owns the ticker. The tick body executes inline in this goroutine, so
// ticks can never overlap: a sweep that outlasts the interval simply runs
// long and the ticker's pending fire is dropped.
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.Tick()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick performs one due-template sweep and returns its report. It is the
// loop's tick body, exported so the manual-trigger path and tests can drive
// a sweep without waiting on the timer.
//
// The sweep runs against a fresh background context: a tick in flight when
// Stop is called finishes its sequential pass instead of being cancelled
// mid-materialization, which would risk partial writes.
func (s *Scheduler) Tick() TickReport {
	ctx := context.Background()
	now := s.now().UTC()
	report := TickReport{StartedAt: now}

	due, err := s.templates.FindDue(ctx, now)
	if err != nil {
		// Abort this tick only; the next tick retries the query.
		report.Err = err
		s.logger.Error("due template query failed, aborting tick", "error", err)
		return report
	}
	report.Due = len(due)

	// Deliberately sequential: audit records and watermark updates stay
	// free of interleaving within one process.
	for _, tpl := range due {
		res := s.mat.Materialize(ctx, tpl, now, domain.TriggerAutomatic)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			report.Failed++
			s.logger.Error("template materialization failed",
				"template_id", tpl.ID,
				"template_name", tpl.Name,
				"error", res.Err)
			continue
		}
		report.Generated++
	}

	if report.Due > 0 {
		s.logger.Info("tick complete",
			"due", report.Due,
			"generated", report.Generated,
			"failed", report.Failed)
	}
	return report
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/google/uuid"
)

// Defaults shared by every scheduler instance.
const (
	MinInterval = time.Minute
	StopTimeout = 5 * time.Second
)

// ErrIntervalTooShort is returned by ChangeInterval for intervals below MinInterval.
var ErrIntervalTooShort = errors.New("scheduler interval must be at least one minute")

// Job is the unit of work executed on every tick.
type Job[T any] func(ctx context.Context) (T, error)

// Status is a point-in-time snapshot of a scheduler.
type Status[T any] struct {
	Name        string
	IsRunning   bool
	Interval    time.Duration
	LastRunTime time.Time // zero until the first successful scheduled run
	RunCount    int
	LastResult  *T
	LastError   string
	NextRunIn   time.Duration // zero when stopped or when a run is due
}

// Scheduler runs a Job periodically on a single background goroutine. Failed runs are retried
// after a cooldown instead of the full interval.
type Scheduler[T any] struct {
	name     string
	job      Job[T]
	cooldown time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu         sync.Mutex
	interval   time.Duration
	running    bool
	cancel     context.CancelFunc
	done       chan struct{}
	reschedule chan struct{}
	nextRun    time.Time
	lastRun    time.Time
	runCount   int
	lastResult *T
	lastErr    error
}

// New creates a stopped scheduler.
func New[T any](
	name string,
	interval, cooldown time.Duration,
	job Job[T],
	log *slog.Logger,
	metrics *metrics.Metrics,
) *Scheduler[T] {
	return &Scheduler[T]{
		name:     name,
		job:      job,
		interval: interval,
		cooldown: cooldown,
		log:      log.With("scheduler", name),
		metrics:  metrics,
	}
}

// Start launches the worker goroutine. Calling Start on a running scheduler only logs a warning.
// The first run happens immediately unless a previous run is still within its interval.
func (s *Scheduler[T]) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("Scheduler is already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.reschedule = make(chan struct{}, 1)
	s.nextRun = s.dueAfter(s.lastRun)

	go s.loop(ctx, s.done, s.reschedule)

	s.log.Info("Scheduler started", "interval", s.interval, "cooldown", s.cooldown)
}

// Stop signals the worker to exit and waits up to StopTimeout for it. A run in progress is not
// interrupted; it finishes in the background and still records its result.
func (s *Scheduler[T]) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		s.log.Info("Scheduler stopped")
	case <-time.After(StopTimeout):
		s.log.Warn("Scheduler worker did not exit in time, leaving it to finish", "timeout", StopTimeout)
	}
}

// RunNow executes the job on the caller's goroutine. It records the result but leaves the
// timer, LastRunTime and RunCount untouched.
func (s *Scheduler[T]) RunNow(ctx context.Context) (T, error) {
	runID := uuid.NewString()
	s.log.InfoContext(ctx, "Manual run started", "run_id", runID)

	result, err := s.execute(ctx, runID)

	s.mu.Lock()
	s.record(result, err)
	s.mu.Unlock()

	return result, err
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler[T]) Status() Status[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status[T]{
		Name:        s.name,
		IsRunning:   s.running,
		Interval:    s.interval,
		LastRunTime: s.lastRun,
		RunCount:    s.runCount,
	}
	if s.lastResult != nil {
		result := *s.lastResult
		status.LastResult = &result
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	if s.running {
		status.NextRunIn = max(time.Until(s.nextRun), 0)
	}

	return status
}

// ChangeInterval updates the interval. A running scheduler reschedules its next run relative
// to the last successful run.
func (s *Scheduler[T]) ChangeInterval(interval time.Duration) error {
	if interval < MinInterval {
		return fmt.Errorf("%w: %s", ErrIntervalTooShort, interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval = interval
	if s.running {
		s.nextRun = s.dueAfter(s.lastRun)
		select {
		case s.reschedule <- struct{}{}:
		default:
		}
	}
	s.log.Info("Scheduler interval changed", "interval", interval)

	return nil
}

func (s *Scheduler[T]) loop(ctx context.Context, done chan<- struct{}, reschedule <-chan struct{}) {
	defer close(done)

	timer := time.NewTimer(s.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-reschedule:
			timer.Reset(s.untilNextRun())
		case <-timer.C:
			s.tick(ctx)
			if ctx.Err() != nil {
				return
			}
			timer.Reset(s.untilNextRun())
		}
	}
}

func (s *Scheduler[T]) tick(ctx context.Context) {
	runID := uuid.NewString()
	s.log.Info("Scheduled run started", "run_id", runID)

	// Stop must not cancel a run that already started.
	result, err := s.execute(context.WithoutCancel(ctx), runID)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(result, err)
	if err != nil {
		s.nextRun = time.Now().Add(s.cooldown)
		s.log.Warn("Backing off after failed run", "run_id", runID, "cooldown", s.cooldown)
		return
	}
	s.lastRun = time.Now()
	s.runCount++
	s.nextRun = s.dueAfter(s.lastRun)
}

func (s *Scheduler[T]) execute(ctx context.Context, runID string) (result T, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job panicked: %v", rec)
		}
		status := "success"
		if err != nil {
			status = "error"
			s.log.ErrorContext(ctx, "Scheduled job failed", "run_id", runID, "error", err)
		} else {
			s.log.InfoContext(ctx, "Scheduled job finished", "run_id", runID, "duration", time.Since(start))
		}
		s.metrics.SchedulerRuns.WithLabelValues(s.name, status).Inc()
	}()

	return s.job(ctx)
}

// record must be called with mu held.
func (s *Scheduler[T]) record(result T, err error) {
	s.lastErr = err
	if err == nil {
		s.lastResult = &result
	}
}

// dueAfter must be called with mu held.
func (s *Scheduler[T]) dueAfter(lastRun time.Time) time.Time {
	if lastRun.IsZero() {
		return time.Now()
	}
	return lastRun.Add(s.interval)
}

func (s *Scheduler[T]) untilNextRun() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return max(time.Until(s.nextRun), 0)
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/metrics"
)

// Task is a named housekeeping job. Its context ends when the run times out
// or the scheduler stops.
type Task struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs housekeeping tasks on cron schedules. Runs of the same task
// never overlap; a tick that arrives while the previous run is busy is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[string]bool
}

func NewScheduler(loc *time.Location, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]bool),
	}
}

// ScheduleDaily runs t every day at the HH:MM wall-clock time in the scheduler's location.
func (s *Scheduler) ScheduleDaily(at string, t Task) (cron.EntryID, error) {
	spec, err := buildDailySpec(at)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", t.Name, err)
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(t) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", t.Name, err)
	}
	s.logger.Info("Scheduled daily job", zap.String("job", t.Name), zap.String("at", at))
	return id, nil
}

// ScheduleInterval runs t every interval, rounded down to whole seconds.
func (s *Scheduler) ScheduleInterval(interval time.Duration, t Task) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("schedule %s: interval %s is shorter than a second", t.Name, interval)
	}
	id, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", int(interval/time.Second)), func() { s.run(t) })
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", t.Name, err)
	}
	s.logger.Info("Scheduled interval job", zap.String("job", t.Name), zap.Duration("every", interval))
	return id, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// run executes one tick of t and records how it went.
func (s *Scheduler) run(t Task) {
	s.mu.Lock()
	if s.running[t.Name] {
		s.mu.Unlock()
		s.logger.Warn("Skipping job, previous run still busy", zap.String("job", t.Name))
		metrics.JobRunsTotal.WithLabelValues(t.Name, "skipped").Inc()
		return
	}
	s.running[t.Name] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, t.Name)
		s.mu.Unlock()
	}()

	ctx := s.ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, t.Run)
	fields := []zap.Field{zap.String("job", t.Name), zap.Duration("took", time.Since(start))}
	switch {
	case err == nil:
		metrics.JobRunsTotal.WithLabelValues(t.Name, "ok").Inc()
		s.logger.Debug("Job finished", fields...)
	case errors.Is(err, context.DeadlineExceeded):
		metrics.JobRunsTotal.WithLabelValues(t.Name, "timeout").Inc()
		s.logger.Error("Job timed out", append(fields, zap.Duration("timeout", t.Timeout))...)
	default:
		metrics.JobRunsTotal.WithLabelValues(t.Name, "error").Inc()
		s.logger.Error("Job failed", append(fields, zap.Error(err))...)
	}
}

func safeRun(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// buildDailySpec turns "HH:MM" into a seconds-resolution cron spec.
func buildDailySpec(at string) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
}

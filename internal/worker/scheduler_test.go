package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("03:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 3 * * *", spec)

	for _, bad := range []string{"3", "24:00", "12:60", "aa:10", ""} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func observedScheduler(t *testing.T) (*Scheduler, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScheduler(time.UTC, zap.New(core))
	t.Cleanup(s.Stop)
	return s, logs
}

func TestScheduler_RunLogsOutcome(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		message string
		level   zapcore.Level
	}{
		{
			name:    "ok",
			task:    Task{Name: "ok", Run: func(context.Context) error { return nil }},
			message: "Job finished",
			level:   zapcore.DebugLevel,
		},
		{
			name:    "error",
			task:    Task{Name: "fails", Run: func(context.Context) error { return errors.New("db down") }},
			message: "Job failed",
			level:   zapcore.ErrorLevel,
		},
		{
			name:    "panic",
			task:    Task{Name: "panics", Run: func(context.Context) error { panic("boom") }},
			message: "Job failed",
			level:   zapcore.ErrorLevel,
		},
		{
			name: "timeout",
			task: Task{Name: "slow", Timeout: 10 * time.Millisecond, Run: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}},
			message: "Job timed out",
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, logs := observedScheduler(t)
			s.run(tt.task)

			entries := logs.FilterMessage(tt.message).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.task.Name, entries[0].ContextMap()["job"])
		})
	}
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	s, logs := observedScheduler(t)
	started := make(chan struct{})
	release := make(chan struct{})
	task := Task{Name: "purge", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(task)
	}()
	<-started

	s.run(task)
	assert.Equal(t, 1, logs.FilterMessage("Skipping job, previous run still busy").Len())

	close(release)
	<-done
	assert.Equal(t, 1, logs.FilterMessage("Job finished").Len())
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s, logs := observedScheduler(t)
	started := make(chan struct{})
	task := Task{Name: "long", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(task)
	}()
	<-started
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job ignored scheduler stop")
	}
	assert.Equal(t, 1, logs.FilterMessage("Job failed").Len())
}

func TestScheduler_RejectsBadSchedules(t *testing.T) {
	s, _ := observedScheduler(t)
	noop := Task{Name: "noop", Run: func(context.Context) error { return nil }}

	_, err := s.ScheduleDaily("25:00", noop)
	assert.Error(t, err)
	_, err = s.ScheduleInterval(500*time.Millisecond, noop)
	assert.Error(t, err)

	_, err = s.ScheduleDaily("03:00", noop)
	assert.NoError(t, err)
	_, err = s.ScheduleInterval(time.Minute, noop)
	assert.NoError(t, err)
}

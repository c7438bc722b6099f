package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"startask/internal/domain"
	"startask/internal/store"
)

type fakeState struct {
	mu        sync.Mutex
	running   bool
	trigger   bool
	lastRunAt time.Time
}

func (s *fakeState) Running(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, nil
}

func (s *fakeState) SetRunning(_ context.Context, running bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
	return nil
}

func (s *fakeState) LastRunAt(context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt, nil
}

func (s *fakeState) SetLastRunAt(_ context.Context, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunAt = at
	return nil
}

func (s *fakeState) RequestTrigger(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trigger = true
	return nil
}

func (s *fakeState) ConsumeTrigger(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.trigger
	s.trigger = false
	return was, nil
}

func (s *fakeState) Credential(context.Context, string) (string, error) {
	return "", store.ErrCredentialNotFound
}

func (s *fakeState) triggerSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger
}

type fakeRunner struct {
	runs  atomic.Int32
	block chan struct{} // if non-nil, Run waits on it
	err   error
}

func (r *fakeRunner) Run(context.Context) (domain.CycleResult, error) {
	r.runs.Add(1)
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return domain.CycleResult{}, r.err
	}
	return domain.CycleResult{ProcessedCount: 1}, nil
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestScheduler_WarmupRunsEvenWhenStopped(t *testing.T) {
	t.Parallel()

	state := &fakeState{running: false}
	runner := &fakeRunner{}
	sched, err := New(runner, state, Config{
		Interval:     time.Hour,
		PollInterval: time.Hour,
		WarmupDelay:  5 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	waitFor(t, func() bool { return runner.runs.Load() == 1 }, "warmup cycle should fire once")

	// No further cycles: the flag is off and both tickers are far away.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestScheduler_IntervalRespectsRunningFlag(t *testing.T) {
	t.Parallel()

	state := &fakeState{running: false}
	runner := &fakeRunner{}
	sched, err := New(runner, state, Config{
		Interval:     10 * time.Millisecond,
		PollInterval: time.Hour,
		WarmupDelay:  time.Hour,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	// Stopped: interval ticks do nothing.
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, runner.runs.Load())

	require.NoError(t, sched.Start(ctx))
	waitFor(t, func() bool { return runner.runs.Load() >= 2 }, "interval cycles should fire while running")

	require.NoError(t, sched.Stop(ctx))
	settled := runner.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.LessOrEqual(t, runner.runs.Load(), settled+1, "at most one in-flight cycle after stop")
}

func TestScheduler_TriggerConsumedOnlyWhileRunning(t *testing.T) {
	t.Parallel()

	state := &fakeState{running: false}
	runner := &fakeRunner{}
	sched, err := New(runner, state, Config{
		Interval:     time.Hour,
		PollInterval: 5 * time.Millisecond,
		WarmupDelay:  time.Hour,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	require.NoError(t, sched.TriggerOnce(ctx))

	// Stopped: the poll sees the flag but must not consume it.
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runner.runs.Load())
	assert.True(t, state.triggerSet(), "trigger must survive until a start")

	require.NoError(t, sched.Start(ctx))
	waitFor(t, func() bool { return runner.runs.Load() == 1 }, "trigger cycle should fire after start")
	waitFor(t, func() bool { return !state.triggerSet() }, "trigger flag should be cleared")

	// One-shot: no second cycle without a new trigger.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runner.runs.Load())
}

func TestScheduler_OverlappingWakesAreSuppressed(t *testing.T) {
	t.Parallel()

	state := &fakeState{running: true}
	runner := &fakeRunner{block: make(chan struct{})}
	sched, err := New(runner, state, Config{
		Interval:     time.Hour,
		PollInterval: time.Hour,
		WarmupDelay:  5 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	waitFor(t, func() bool { return runner.runs.Load() == 1 }, "first cycle should start")

	// A concurrent wake must be suppressed, not queued.
	done := make(chan struct{})
	go func() {
		sched.runCycle(ctx, "test")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("suppressed wake should return immediately")
	}
	assert.Equal(t, int32(1), runner.runs.Load())

	close(runner.block)
}

func TestScheduler_CycleErrorsDoNotStopTheLoop(t *testing.T) {
	t.Parallel()

	state := &fakeState{running: true}
	runner := &fakeRunner{err: errors.New("boom")}
	sched, err := New(runner, state, Config{
		Interval:     10 * time.Millisecond,
		PollInterval: time.Hour,
		WarmupDelay:  time.Hour,
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Run(ctx) }()

	waitFor(t, func() bool { return runner.runs.Load() >= 3 }, "loop should keep waking after cycle errors")
}

func TestScheduler_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	state := &fakeState{}
	sched, err := New(&fakeRunner{}, state, Config{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sched.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run should return promptly on cancel")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, &fakeState{}, Config{}, nil)
	assert.Error(t, err)

	_, err = New(&fakeRunner{}, nil, Config{}, nil)
	assert.Error(t, err)

	sched, err := New(&fakeRunner{}, &fakeState{}, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, sched.cfg.Interval)
	assert.Equal(t, DefaultPollInterval, sched.cfg.PollInterval)
	assert.Equal(t, DefaultWarmupDelay, sched.cfg.WarmupDelay)
}

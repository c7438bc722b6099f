// Package scheduler drives the processing cycle. Two independent wake
// sources feed one sequential execution path: a fixed-interval timer and a
// lightweight poll of the durable one-shot trigger flag. A warm-up cycle
// runs once at process startup regardless of the persisted running flag.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"startask/internal/domain"
	"startask/internal/mail"
	"startask/internal/pipeline"
	"startask/internal/platform/logger"
	"startask/internal/store"
)

// CycleRunner executes one processing cycle.
type CycleRunner interface {
	Run(ctx context.Context) (domain.CycleResult, error)
}

// Config holds the scheduler's timing parameters.
type Config struct {
	// Interval is the fixed period between timer-driven cycles.
	Interval time.Duration

	// PollInterval is the period of the trigger-flag poll.
	PollInterval time.Duration

	// WarmupDelay is how long after Run starts the bootstrap cycle fires.
	WarmupDelay time.Duration
}

// Default timing values
const (
	DefaultInterval     = 2 * time.Minute
	DefaultPollInterval = 10 * time.Second
	DefaultWarmupDelay  = 5 * time.Second
)

// Scheduler owns the wake loop. The running flag and the trigger flag live
// in the state store, not in memory, so the review surface (and any future
// second process) can flip them; the scheduler reads them fresh at every
// wake.
//
// Cycles never overlap: a cycle in progress suppresses a concurrent wake
// instead of queueing it. The wake sources are interchangeable; a
// timer-driven and a trigger-driven cycle run the identical path.
type Scheduler struct {
	cycle  CycleRunner
	state  store.StateStore
	cfg    Config
	logger *slog.Logger

	// cycleMu is held for the duration of one cycle. TryLock implements
	// the suppress-not-queue rule.
	cycleMu sync.Mutex
}

// New creates a Scheduler. Zero config fields fall back to the defaults.
func New(cycle CycleRunner, state store.StateStore, cfg Config, log *slog.Logger) (*Scheduler, error) {
	if cycle == nil {
		return nil, errors.New("cycle runner cannot be nil")
	}
	if state == nil {
		return nil, errors.New("state store cannot be nil")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.WarmupDelay <= 0 {
		cfg.WarmupDelay = DefaultWarmupDelay
	}
	if log == nil {
		log = slog.Default()
	}

	return &Scheduler{
		cycle:  cycle,
		state:  state,
		cfg:    cfg,
		logger: log.With(slog.String("component", "scheduler")),
	}, nil
}

// Run blocks, driving cycles until the context is cancelled. The warm-up
// cycle fires once after WarmupDelay even when the persisted running flag
// is false; interval and trigger wakes respect the flag.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	warmup := time.NewTimer(s.cfg.WarmupDelay)
	defer warmup.Stop()
	interval := time.NewTicker(s.cfg.Interval)
	defer interval.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	log.Info("scheduler loop started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("poll_interval", s.cfg.PollInterval),
		slog.Duration("warmup_delay", s.cfg.WarmupDelay))

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler loop stopped", slog.String("reason", ctx.Err().Error()))
			return ctx.Err()

		case <-warmup.C:
			s.runCycle(ctx, "warmup")

		case <-interval.C:
			if s.isRunning(ctx) {
				s.runCycle(ctx, "interval")
			}

		case <-poll.C:
			// The running check happens at consumption time: a trigger
			// requested while stopped stays set until a start.
			if !s.isRunning(ctx) {
				continue
			}
			fired, err := s.state.ConsumeTrigger(ctx)
			if err != nil {
				log.Error("failed to consume trigger flag", slog.String("error", err.Error()))
				continue
			}
			if fired {
				s.runCycle(ctx, "trigger")
			}
		}
	}
}

// Start flips the persisted running flag on. Starting an already-running
// scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.state.SetRunning(ctx, true)
}

// Stop flips the persisted running flag off. A cycle already in progress
// runs to completion; there is no mid-cycle cancellation.
func (s *Scheduler) Stop(ctx context.Context) error {
	return s.state.SetRunning(ctx, false)
}

// TriggerOnce sets the one-shot trigger flag. It may be called in any
// state, but the flag only causes work if the running check passes when
// the poll consumes it.
func (s *Scheduler) TriggerOnce(ctx context.Context) error {
	return s.state.RequestTrigger(ctx)
}

func (s *Scheduler) isRunning(ctx context.Context) bool {
	running, err := s.state.Running(ctx)
	if err != nil {
		s.logger.Error("failed to read running flag", slog.String("error", err.Error()))
		return false
	}
	return running
}

// runCycle executes one cycle unless one is already in progress. Cycle
// errors are logged and absorbed; the loop waits for the next wake rather
// than crashing the process.
func (s *Scheduler) runCycle(ctx context.Context, wake string) {
	if !s.cycleMu.TryLock() {
		s.logger.Debug("cycle already in progress, suppressing wake",
			slog.String("wake", wake))
		return
	}
	defer s.cycleMu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Info("cycle wake", slog.String("wake", wake))

	result, err := s.cycle.Run(ctx)
	if err != nil {
		var authErr *mail.AuthRequiredError
		switch {
		case errors.As(err, &authErr):
			log.Warn("cycle needs operator re-authentication",
				slog.String("wake", wake),
				slog.String("reauth_url", authErr.ReauthURL))
		case errors.Is(err, pipeline.ErrCycleAborted):
			log.Error("cycle aborted on environment error",
				slog.String("wake", wake),
				slog.String("error", err.Error()))
		default:
			log.Error("cycle failed",
				slog.String("wake", wake),
				slog.String("error", err.Error()))
		}
		return
	}

	log.Info("cycle completed",
		slog.String("wake", wake),
		slog.Int("processed", result.ProcessedCount),
		slog.Int("pending", result.PendingCount),
		slog.Int("errors", result.ErrorCount))
}

// Package scheduler wakes the Collateral Agent for idle users with
// unprocessed captures, polling on a fixed interval the way the frame
// extraction worker pool polls for claimable captures.
package scheduler

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/cleo/pkg/config"
)

// Runner invokes one full Collateral Agent pass for a user. podID
// identifies this scheduler instance for multi-replica run-slot claiming.
type Runner interface {
	RunForUser(ctx context.Context, userID, podID string) error
}

// Scheduler is the polling loop described in spec.md's Scheduler module:
// every check interval, find users meeting all three eligibility
// predicates and spawn one independent, panic-isolated task per user.
type Scheduler struct {
	db     *stdsql.DB
	runner Runner
	config *config.SchedulerConfig
	podID  string

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Scheduler. podID identifies this process for run-slot
// coordination across replicas.
func New(db *stdsql.DB, runner Runner, cfg *config.SchedulerConfig, podID string) *Scheduler {
	if cfg == nil {
		cfg = config.DefaultSchedulerConfig()
	}
	return &Scheduler{
		db:     db,
		runner: runner,
		config: cfg,
		podID:  podID,
		stopCh: make(chan struct{}),
	}
}

// Start launches the polling loop in the background.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
	slog.Info("Scheduler started",
		"check_interval", s.config.CheckInterval,
		"running_run_timeout", s.config.RunningRunTimeout,
		"idle_duration", s.config.IdleDuration,
		"max_concurrent_tasks", s.config.MaxConcurrentTasks)
}

// Stop signals the polling loop to exit and waits for the in-flight cycle's
// tasks to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one scheduler pass: find eligible users, dispatch one
// task per user bounded by MaxConcurrentTasks, and block until every task
// in this cycle has finished (or panicked) before returning.
func (s *Scheduler) RunCycle(ctx context.Context) {
	userIDs, err := eligibleUserIDs(ctx, s.db,
		int(s.config.RunningRunTimeout.Seconds()),
		int(s.config.IdleDuration.Seconds()))
	if err != nil {
		slog.Error("Scheduler eligibility query failed", "error", err)
		return
	}
	if len(userIDs) == 0 {
		return
	}

	slog.Info("Scheduler dispatching tasks", "user_count", len(userIDs))

	sem := make(chan struct{}, s.config.MaxConcurrentTasks)
	var wg sync.WaitGroup
	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()
			s.runTask(ctx, userID)
		}(userID)
	}
	wg.Wait()
}

// runTask invokes the agent for one user, recovering from any panic so a
// single bad run never poisons the scheduler loop.
func (s *Scheduler) runTask(ctx context.Context, userID string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Scheduler task panicked", "user_id", userID, "panic", fmt.Sprint(r))
		}
	}()

	if err := s.runner.RunForUser(ctx, userID, s.podID); err != nil {
		slog.Error("Scheduler task failed", "user_id", userID, "error", err)
	}
}

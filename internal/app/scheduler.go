package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reconciler refreshes the stock and pending-return mirror.
type Reconciler interface {
	Reconcile(ctx context.Context) error
}

// DayRoller swaps the daily check-in state when the local date changes.
type DayRoller interface {
	Rollover(ctx context.Context) error
}

// Scheduler runs the background jobs.
type Scheduler struct {
	reconciler Reconciler
	roller     DayRoller
	interval   time.Duration
	logger     *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(reconciler Reconciler, roller DayRoller, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		roller:     roller,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start launches the jobs; each runs once immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(2)
	go s.loop(ctx, "reconcile", s.interval, s.reconcile)
	go s.loop(ctx, "rollover", time.Minute, s.rollover)
}

// Stop stops the jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, run func(context.Context)) {
	defer s.wg.Done()

	run(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run(ctx)
		case <-s.stopChan:
			s.logger.Info("Background task stopped", zap.String("task", name))
			return
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

func (s *Scheduler) reconcile(ctx context.Context) {
	if err := s.reconciler.Reconcile(ctx); err != nil {
		s.logger.Warn("Periodic reconcile failed", zap.Error(err))
	}
}

func (s *Scheduler) rollover(ctx context.Context) {
	if err := s.roller.Rollover(ctx); err != nil {
		s.logger.Error("Day rollover failed", zap.Error(err))
	}
}

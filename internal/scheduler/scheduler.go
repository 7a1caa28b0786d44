package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"go.uber.org/zap"

	"openchat/internal/clock"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// Scheduler runs a job on every tick of a cron expression. Runs never
// overlap: a run that outlasts the next tick delays it.
type Scheduler struct {
	name   string
	cron   string
	job    Job
	clock  clock.Clock
	logger *zap.SugaredLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(name, cronExpr string, job Job, clk clock.Clock, logger *zap.Logger) (*Scheduler, error) {
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid %s cron expression: %q", name, cronExpr)
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Scheduler{
		name:   name,
		cron:   cronExpr,
		job:    job,
		clock:  clk,
		logger: logger.Sugar().With("job", name),
	}, nil
}

// Next returns the first tick strictly after t.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.cron, t.UTC(), false)
}

// Start launches the scheduling loop. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	s.logger.Infow("Scheduler started", "cron", s.cron)
}

// Stop cancels the loop and waits for an in-flight run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Infow("Scheduler stopped")
}

// RunNow runs the job once outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) error {
	start := s.clock.Now()
	err := s.job(ctx)
	if err != nil {
		s.logger.Errorw("Scheduled job failed", "error", err)
		return err
	}
	s.logger.Infow("Scheduled job finished", "duration", s.clock.Now().Sub(start).String())
	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		now := s.clock.Now()
		next, err := s.Next(now)
		wait := next.Sub(now)
		if err != nil {
			s.logger.Errorw("Failed to compute next tick", "cron", s.cron, "error", err)
			wait = 30 * time.Second
		}

		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(wait):
		}

		if err == nil {
			_ = s.RunNow(ctx)
		}
	}
}

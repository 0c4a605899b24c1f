package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	JobOverdueSweep = "invoice_overdue_sweep"

	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// OverdueSweeper moves sent invoices past their due date to overdue.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

type RunFunc func(context.Context) (any, error)

type Service struct {
	runs     RunLog
	sweeper  OverdueSweeper
	interval time.Duration
	queue    chan job
	now      func() time.Time
	wg       sync.WaitGroup
}

type job struct {
	Type string
	Run  RunFunc
}

func New(runs RunLog, sweeper OverdueSweeper, interval time.Duration) *Service {
	return &Service{
		runs:     runs,
		sweeper:  sweeper,
		interval: interval,
		queue:    make(chan job, 64),
		now:      time.Now,
	}
}

// Start runs the worker and, when an interval is set, the overdue
// scheduler. Both stop when ctx is cancelled; Wait blocks until they have.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker(ctx)
	}()
	if s.interval > 0 && s.sweeper != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.scheduleOverdue(ctx)
		}()
	}
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType string, run RunFunc) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run RunFunc) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// SweepOverdue runs the overdue sweep synchronously and records the run.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	details, err := s.RunNow(ctx, JobOverdueSweep, s.overdueRun())
	if err != nil {
		return 0, err
	}
	return details.(SweepResult).Updated, nil
}

type SweepResult struct {
	AsOf    string `json:"asOf"`
	Updated int64  `json:"updated"`
}

func (s *Service) overdueRun() RunFunc {
	return func(ctx context.Context) (any, error) {
		asOf := s.now().UTC()
		updated, err := s.sweeper.MarkOverdue(ctx, asOf)
		return SweepResult{AsOf: asOf.Format(time.DateOnly), Updated: updated}, err
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.runs != nil {
		id, err := s.runs.Start(ctx, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	if runID != "" {
		if finErr := s.runs.Finish(ctx, runID, status, details); finErr != nil {
			slog.Warn("job run update failed", "jobType", j.Type, "err", finErr)
		}
	}
	return details, err
}

func (s *Service) scheduleOverdue(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobOverdueSweep, s.overdueRun())
		}
	}
}

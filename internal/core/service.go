package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/star2win/listprep/internal/config"
	"github.com/star2win/listprep/internal/metrics"
)

// Service coordinates hygiene runs. It limits concurrency, tracks progress
// for subscribers, retains finished results for download, and records run
// history when a database pool is configured.
type Service struct {
	cfg     config.RunConfig
	limiter *RunLimiter
	history *History

	mu   sync.RWMutex
	runs map[string]*activeRun
}

type activeRun struct {
	ID     string
	Source string
	Cancel context.CancelFunc

	Progress RunProgress
	Result   *RunResult
	Done     chan struct{}

	Listeners  []chan RunProgress
	ListenerMu sync.Mutex
}

// NewService creates a Service. pool may be nil; history recording and the
// history listing are disabled in that case.
func NewService(cfg config.RunConfig, pool *pgxpool.Pool) *Service {
	return &Service{
		cfg:     cfg,
		limiter: NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		history: NewHistory(pool),
		runs:    make(map[string]*activeRun),
	}
}

// History exposes the run-history store for the web layer.
func (s *Service) History() *History {
	return s.history
}

// Limiter exposes the run limiter, used for graceful shutdown draining.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// StartRun begins an asynchronous hygiene run and returns its ID.
//
// Returns ErrTooManyRuns when the concurrent run limit is reached and no
// slot becomes available within the configured wait time. All request
// readers must stay valid until the run completes; web callers buffer the
// uploaded files before calling.
func (s *Service) StartRun(ctx context.Context, req RunRequest) (string, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	runID := uuid.New().String()

	runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)

	run := &activeRun{
		ID:     runID,
		Source: req.Source,
		Cancel: cancel,
		Progress: RunProgress{
			RunID:     runID,
			Source:    req.Source,
			Phase:     PhaseStarting,
			UpdatedAt: time.Now(),
		},
		Done:      make(chan struct{}),
		Listeners: make([]chan RunProgress, 0),
	}

	s.mu.Lock()
	s.runs[runID] = run
	s.mu.Unlock()

	go func() {
		defer s.limiter.Release()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in run",
					"run_id", runID,
					"source", req.Source,
					"panic", r,
				)
				s.finishRun(run, nil, fmt.Errorf("internal error: %v", r))
			}
		}()
		s.processRun(runCtx, run, req)
	}()

	return runID, nil
}

// processRun executes the pipeline and transitions the run to its terminal
// state, notifying listeners along the way.
func (s *Service) processRun(ctx context.Context, run *activeRun, req RunRequest) {
	start := time.Now()

	result, err := s.RunHygiene(ctx, req, func(p RunProgress) {
		p.RunID = run.ID
		run.ListenerMu.Lock()
		run.Progress = p
		run.ListenerMu.Unlock()
		run.notifyProgress()
	})

	status := "complete"
	if err != nil {
		if ctx.Err() != nil {
			status = "cancelled"
		} else {
			status = "failed"
		}
	}
	metrics.RunsTotal.WithLabelValues(req.Source, status).Inc()
	if err == nil {
		metrics.RunDuration.WithLabelValues(req.Source).Observe(time.Since(start).Seconds())
	}

	if err == nil {
		result.RunID = run.ID
		if herr := s.history.Record(context.Background(), result); herr != nil {
			slog.Warn("recording run history", "run_id", run.ID, "error", herr)
		}
	} else {
		if herr := s.history.RecordFailure(context.Background(), run.ID, req.Source, req.Master.Name, status, start, err); herr != nil {
			slog.Warn("recording run history", "run_id", run.ID, "error", herr)
		}
	}

	s.finishRun(run, result, err)
}

// finishRun moves the run into a terminal phase exactly once.
func (s *Service) finishRun(run *activeRun, result *RunResult, err error) {
	select {
	case <-run.Done:
		return
	default:
	}

	run.ListenerMu.Lock()
	switch {
	case err == nil:
		run.Progress.Phase = PhaseComplete
		run.Progress.Records = result.Stats.OutputRecords
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		run.Progress.Phase = PhaseCancelled
		run.Progress.Error = err.Error()
	default:
		run.Progress.Phase = PhaseFailed
		run.Progress.Error = err.Error()
	}
	run.Progress.UpdatedAt = time.Now()
	run.Result = result
	run.ListenerMu.Unlock()

	run.notifyProgress()
	run.closeListeners()
	close(run.Done)

	s.cleanup(run.ID, s.cfg.ResultRetention)
}

// SubscribeProgress returns a channel receiving progress updates for a run.
// The current snapshot is delivered immediately; the channel closes when the
// run reaches a terminal phase.
func (s *Service) SubscribeProgress(runID string) (<-chan RunProgress, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	ch := make(chan RunProgress, 10)

	run.ListenerMu.Lock()
	if run.Progress.Phase.Terminal() {
		// Late subscriber: deliver the final snapshot and close.
		ch <- run.Progress
		close(ch)
	} else {
		run.Listeners = append(run.Listeners, ch)
		select {
		case ch <- run.Progress:
		default:
		}
	}
	run.ListenerMu.Unlock()

	return ch, nil
}

// CancelRun cancels an in-progress run.
func (s *Service) CancelRun(runID string) error {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}

	run.Cancel()
	return nil
}

// Result returns the outcome of a completed run, blocking until the run
// finishes. A failed or cancelled run returns an error carrying the terminal
// progress message.
func (s *Service) Result(ctx context.Context, runID string) (*RunResult, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	select {
	case <-run.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if run.Result == nil {
		return nil, fmt.Errorf("run %s: %s", runID, run.Progress.Error)
	}
	return run.Result, nil
}

// Progress returns the current progress snapshot without blocking.
func (s *Service) Progress(runID string) (RunProgress, error) {
	s.mu.RLock()
	run, ok := s.runs[runID]
	s.mu.RUnlock()

	if !ok {
		return RunProgress{}, fmt.Errorf("run not found: %s", runID)
	}

	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()
	return run.Progress, nil
}

// notifyProgress sends the current snapshot to all listeners. Slow listeners
// miss updates rather than blocking the run.
func (run *activeRun) notifyProgress() {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	for _, ch := range run.Listeners {
		select {
		case ch <- run.Progress:
		default:
		}
	}
}

// closeListeners closes all listener channels.
func (run *activeRun) closeListeners() {
	run.ListenerMu.Lock()
	defer run.ListenerMu.Unlock()

	for _, ch := range run.Listeners {
		close(ch)
	}
	run.Listeners = nil
}

// cleanup removes the run from tracking after the retention delay, freeing
// the buffered result.
func (s *Service) cleanup(runID string, delay time.Duration) {
	if delay <= 0 {
		delay = time.Hour
	}
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.runs, runID)
		s.mu.Unlock()
	})
}

package draft

import (
	"context"
	"sync"
	"time"

	"geoconsole/config"
	"geoconsole/metrics"

	"github.com/lancer-kit/uwe/v2"
	"github.com/rs/zerolog"
)

// Job is one reconciliation request. It receives a context bounded by the
// save timeout and cancelled at shutdown.
type Job func(ctx context.Context)

type slot struct {
	pending Job
}

// Scheduler runs at most one Job per resource key at a time and keeps at
// most one pending Job per key; a newer submission replaces the pending one.
type Scheduler struct {
	logger  zerolog.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	slots map[string]*slot
	wg    sync.WaitGroup
}

func NewScheduler(logger zerolog.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		slots:   map[string]*slot{},
	}
}

func (s *Scheduler) Init() error { return nil }

// Run blocks until the chief stops the worker, then cancels every in-flight
// job and waits for them to return.
func (s *Scheduler) Run(ctx uwe.Context) error {
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop cancels running jobs and waits for them. Pending jobs still run with
// the cancelled context so their editors roll back.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("reconciler stopped")
}

// Submit schedules job for key and reports whether it replaced a pending job.
func (s *Scheduler) Submit(key string, job Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.slots[key]; ok {
		replaced := sl.pending != nil
		if replaced {
			s.logger.Debug().Str("resource", key).Msg("pending save superseded")
		} else {
			metrics.Inc(config.PendingSaves)
		}
		sl.pending = job
		return replaced
	}

	s.slots[key] = &slot{}
	s.wg.Add(1)
	go s.exec(key, job)
	return false
}

// Drop forgets the pending job of key and reports whether there was one.
// A running job is left to finish.
func (s *Scheduler) Drop(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok || sl.pending == nil {
		return false
	}
	sl.pending = nil
	metrics.Dec(config.PendingSaves)
	return true
}

// Busy reports whether a job for key is running or pending.
func (s *Scheduler) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[key]
	return ok
}

func (s *Scheduler) exec(key string, job Job) {
	defer s.wg.Done()

	for job != nil {
		s.run(key, job)

		s.mu.Lock()
		sl := s.slots[key]
		job = sl.pending
		sl.pending = nil
		if job == nil {
			delete(s.slots, key)
		} else {
			metrics.Dec(config.PendingSaves)
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(key string, job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Str("resource", key).Msg("reconcile job panicked")
		}
	}()

	job(ctx)
}

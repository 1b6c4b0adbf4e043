package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one tick of a recurring job. The context is canceled as soon as
// the job is replaced, canceled or the scheduler shuts down; tasks must stop
// persisting results once it is done.
type Task func(ctx context.Context)

type job struct {
	name     string
	loc      *time.Location
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// Scheduler keeps a registry of named recurring jobs, at most one live job
// per name. Each job ticks on its own goroutine; ticks of the same job never
// overlap because the task runs synchronously inside the loop. Ticks across
// different jobs are fully concurrent.
type Scheduler struct {
	log *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		log:    log.With(zap.String("component", "scheduler")),
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers a recurring task under name. An existing job with the
// same name is canceled first: registration is idempotent replacement, never
// duplication. The first tick runs immediately, later ticks every
// intervalSec seconds; the timezone is carried for tick log timestamps only.
func (s *Scheduler) Schedule(name, timezone string, intervalSec int, task Task) {
	if intervalSec < 1 {
		intervalSec = 1
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.log.Warn("unknown timezone, using UTC", zap.String("job", name), zap.String("tz", timezone))
		loc = time.UTC
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.jobs[name]; ok {
		prev.cancel()
	}

	jobCtx, jobCancel := context.WithCancel(s.ctx)
	j := &job{
		name:     name,
		loc:      loc,
		interval: time.Duration(intervalSec) * time.Second,
		cancel:   jobCancel,
		done:     make(chan struct{}),
	}
	s.jobs[name] = j

	go s.run(jobCtx, j, task)
	s.log.Debug("job scheduled",
		zap.String("job", name),
		zap.Int("interval_sec", intervalSec),
		zap.String("tz", loc.String()),
	)
}

// Cancel stops and removes the job registered under name. When ids are
// given, "<name>-<id>" keys are tried as well, for callers that qualify a
// shared base name by monitor id.
func (s *Scheduler) Cancel(name string, ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := []string{name}
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf("%s-%d", name, id))
	}
	for _, key := range keys {
		if j, ok := s.jobs[key]; ok {
			j.cancel()
			delete(s.jobs, key)
			s.log.Debug("job canceled", zap.String("job", key))
			return
		}
	}
}

// Active reports whether a job is currently registered under name.
func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Stop cancels every job and shuts the scheduler down. Waits for in-flight
// ticks to return.
func (s *Scheduler) Stop() {
	s.cancel()

	s.mu.Lock()
	jobs := make([]*job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for _, j := range jobs {
		<-j.done
	}
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, j *job, task Task) {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	s.tick(ctx, j, task)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx, j, task)
		}
	}
}

// tick runs one task invocation. A panic inside the task is a scheduling
// fault: logged, the job keeps ticking. Missed ticks are never retried.
func (s *Scheduler) tick(ctx context.Context, j *job, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked",
				zap.String("job", j.name),
				zap.Any("panic", r),
			)
		}
	}()

	start := time.Now().In(j.loc)
	task(ctx)
	s.log.Debug("tick done",
		zap.String("job", j.name),
		zap.String("at", start.Format(time.RFC3339)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

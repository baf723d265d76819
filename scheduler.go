package docconv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Pool sizing constants.
const (
	// MinWorkers ensures at least one slot is available.
	MinWorkers = 1

	// MaxAutoWorkers caps the derived pool size; each slot can hold a
	// whole office-engine process in memory.
	MaxAutoWorkers = 8

	// cpuDivisor leaves headroom for engine child processes.
	cpuDivisor = 2
)

// ResolveWorkers determines the pool size.
// Priority: explicit value > GOMAXPROCS-based calculation (adjusted by
// automaxprocs in containers).
func ResolveWorkers(workers int) int {
	if workers > 0 {
		return workers
	}

	n := runtime.GOMAXPROCS(0) / cpuDivisor
	if n < MinWorkers {
		return MinWorkers
	}
	if n > MaxAutoWorkers {
		return MaxAutoWorkers
	}
	return n
}

// pending is a queued job awaiting a free slot.
type pending struct {
	job *Job
	ctx context.Context
	out chan Outcome
}

// Scheduler owns N fixed worker slots and an unbounded FIFO admission
// queue. At most N jobs are ever mid-flight; every submitted job reaches
// exactly one terminal outcome. Each slot carries its own isolated engine
// profile directory for the lifetime of the pool.
type Scheduler struct {
	workers int
	manager *WorkspaceManager
	invoker *Invoker
	format  string
	logger  *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*pending
	closed bool

	active atomic.Int32
	wg     sync.WaitGroup
}

// NewScheduler starts a pool of n worker slots draining the admission
// queue. The pool size is fixed for the scheduler's lifetime; backpressure
// comes from slots, not from queue limits.
func NewScheduler(n int, manager *WorkspaceManager, invoker *Invoker, format string, logger *zap.Logger) *Scheduler {
	if n < MinWorkers {
		n = MinWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		workers: n,
		manager: manager,
		invoker: invoker,
		format:  format,
		logger:  logger,
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(n)
	for slot := 0; slot < n; slot++ {
		go s.work(slot)
	}
	return s
}

// Submit enqueues a job and returns a channel that delivers its single
// terminal outcome. The channel is buffered: the outcome is delivered even
// if the caller stops listening. Admission order is FIFO; completion order
// is not guaranteed.
func (s *Scheduler) Submit(ctx context.Context, job *Job) <-chan Outcome {
	out := make(chan Outcome, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		out <- Outcome{JobID: job.ID, Err: ErrClosed}
		return out
	}
	s.queue = append(s.queue, &pending{job: job, ctx: ctx, out: out})
	s.cond.Signal()
	s.mu.Unlock()

	return out
}

// Active reports how many jobs are mid-flight right now. Never exceeds the
// worker count.
func (s *Scheduler) Active() int {
	return int(s.active.Load())
}

// QueueDepth reports how many admitted jobs are waiting for a slot.
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Workers returns the fixed pool size.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Close stops admission, lets queued and running jobs finish, and removes
// the per-slot engine profiles. Jobs submitted after Close fail with
// ErrClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()

	for slot := 0; slot < s.workers; slot++ {
		_ = os.RemoveAll(filepath.Join(s.manager.Root(), fmt.Sprintf("%s%d", profilePrefix, slot)))
	}
}

// work is one slot's loop: dequeue, run end-to-end, repeat. The slot
// processes one job at a time through acquire, invoke, release.
func (s *Scheduler) work(slot int) {
	defer s.wg.Done()

	profileDir, profErr := s.manager.ProfileDir(slot)

	for {
		p := s.next()
		if p == nil {
			return
		}

		// A job abandoned while still queued is removed without cost:
		// no workspace, no engine run.
		if err := p.ctx.Err(); err != nil {
			p.out <- Outcome{JobID: p.job.ID, Err: err}
			continue
		}

		p.out <- s.run(p, profileDir, profErr)
	}
}

// next blocks until a job is queued or the scheduler is closed and
// drained. Returns nil only when there is nothing left to do.
func (s *Scheduler) next() *pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 && !s.closed {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return nil
	}
	p := s.queue[0]
	s.queue = s.queue[1:]
	return p
}

// run executes one job end-to-end on an occupied slot. The workspace is
// released on every exit path except success, where ownership moves to the
// returned Result and release happens on its Close.
func (s *Scheduler) run(p *pending, profileDir string, profErr error) Outcome {
	start := time.Now()
	s.active.Add(1)
	defer s.active.Add(-1)

	out := Outcome{JobID: p.job.ID}
	defer func() { out.Duration = time.Since(start) }()

	if profErr != nil {
		out.Err = profErr
		return out
	}

	ws, err := s.manager.Acquire(p.job.ID, p.job.Ext, p.job.Payload)
	if err != nil {
		out.Err = err
		return out
	}

	transferred := false
	defer func() {
		if !transferred {
			s.manager.Release(ws)
		}
	}()

	path, size, err := s.invoker.Invoke(p.ctx, ws, s.format, profileDir)
	if err != nil {
		out.Err = err
		s.logger.Warn("conversion failed",
			zap.String("job_id", p.job.ID),
			zap.String("filename", p.job.Filename),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return out
	}

	transferred = true
	out.Result = NewResult(path, size, func() { s.manager.Release(ws) })
	s.logger.Info("conversion succeeded",
		zap.String("job_id", p.job.ID),
		zap.String("filename", p.job.Filename),
		zap.Int64("bytes", size),
		zap.Duration("duration", time.Since(start)),
	)
	return out
}

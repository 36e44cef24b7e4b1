package worker

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNoHandler = errors.New("no handler for task kind")
	ErrClosed    = errors.New("worker pool closed")
	ErrTimeout   = errors.New("task deadline exceeded")
	ErrPanic     = errors.New("task panicked")
)

// Handler runs one task on a worker goroutine. The payload must be treated as
// read-only; it may be shared with other tasks.
type Handler func(ctx context.Context, payload any) (any, error)

// Request is one unit of offloaded work.
type Request struct {
	Kind     string
	Priority int // lower runs first
	Payload  any
	Timeout  time.Duration // from Submit, queue time included; zero uses the pool default
}

// Stats counts task outcomes since the pool started.
type Stats struct {
	Submitted uint64
	Completed uint64
	Failed    uint64
	TimedOut  uint64
	Rejected  uint64
}

type Config struct {
	Workers        int
	DefaultTimeout time.Duration
}

// Pool is a fixed set of long-lived worker goroutines fed from a priority
// queue. Equal priorities run in submission order.
type Pool struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	queue    taskQueue
	seq      uint64
	closed   bool
	handlers map[string]Handler

	nextID atomic.Uint64
	busy   atomic.Int32

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	timedOut  atomic.Uint64
	rejected  atomic.Uint64

	wg sync.WaitGroup
}

// New starts cfg.Workers goroutines. Workers defaults to 1.
func New(cfg Config, log *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	p := &Pool{
		cfg:      cfg,
		log:      log,
		handlers: make(map[string]Handler, 4),
	}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.loop(i)
	}
	return p
}

// Handle registers h for kind, replacing any previous handler.
func (p *Pool) Handle(kind string, h Handler) {
	p.mu.Lock()
	p.handlers[kind] = h
	p.mu.Unlock()
}

func (p *Pool) Workers() int { return p.cfg.Workers }

// Busy returns how many workers are running a task right now.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Queued returns the number of tasks waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		TimedOut:  p.timedOut.Load(),
		Rejected:  p.rejected.Load(),
	}
}

// Submit queues req and returns its future. Unknown kinds and a closed pool
// are reported immediately.
func (p *Pool) Submit(req Request) (*Future, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	h, ok := p.handlers[req.Kind]
	if !ok {
		return nil, fmt.Errorf("submit %q: %w", req.Kind, ErrNoHandler)
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = p.cfg.DefaultTimeout
	}
	t := &task{
		req:     req,
		handler: h,
		timeout: timeout,
		seq:     p.seq,
		future:  newFuture(p.nextID.Add(1)),
	}
	if timeout > 0 {
		t.deadline = time.Now().Add(timeout)
	}
	p.seq++
	heap.Push(&p.queue, t)
	p.submitted.Add(1)
	p.cond.Signal()
	return t.future, nil
}

// Close stops the workers after their current task. Queued tasks are
// rejected with ErrClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pending := make([]*task, 0, p.queue.Len())
	for p.queue.Len() > 0 {
		pending = append(pending, heap.Pop(&p.queue).(*task))
	}
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, t := range pending {
		if t.future.reject(ErrClosed) {
			p.rejected.Add(1)
		}
	}
	p.wg.Wait()
	if len(pending) > 0 {
		p.log.Info("worker pool closed", zap.Int("rejected", len(pending)))
	}
}

func (p *Pool) next() (*task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return nil, false
	}
	return heap.Pop(&p.queue).(*task), true
}

func (p *Pool) loop(worker int) {
	defer p.wg.Done()
	for {
		t, ok := p.next()
		if !ok {
			return
		}
		p.busy.Add(1)
		p.run(worker, t)
		p.busy.Add(-1)
	}
}

type outcome struct {
	val any
	err error
}

// run executes t under the deadline fixed at Submit, so a batch of tasks
// fans in within one timeout however long they queue. A task that expired in
// the queue is rejected without running; a handler that outlives the deadline
// is abandoned and the worker moves on.
func (p *Pool) run(worker int, t *task) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if !t.deadline.IsZero() {
		if !time.Now().Before(t.deadline) {
			p.expire(t)
			return
		}
		ctx, cancel = context.WithDeadline(ctx, t.deadline)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error("worker task panic",
					zap.Int("worker", worker),
					zap.String("kind", t.req.Kind),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				done <- outcome{err: fmt.Errorf("%w: %v", ErrPanic, r)}
			}
		}()
		v, err := t.handler(ctx, t.req.Payload)
		done <- outcome{val: v, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			p.failed.Add(1)
			p.log.Warn("worker task failed",
				zap.Uint64("task", t.future.ID()),
				zap.String("kind", t.req.Kind),
				zap.Error(out.err))
			t.future.reject(out.err)
			return
		}
		p.completed.Add(1)
		t.future.resolve(out.val)
	case <-ctx.Done():
		p.expire(t)
	}
}

func (p *Pool) expire(t *task) {
	p.timedOut.Add(1)
	p.log.Warn("worker task timed out",
		zap.Uint64("task", t.future.ID()),
		zap.String("kind", t.req.Kind),
		zap.Duration("timeout", t.timeout))
	t.future.reject(fmt.Errorf("task %d: %w", t.future.ID(), ErrTimeout))
}

type task struct {
	req      Request
	handler  Handler
	timeout  time.Duration
	deadline time.Time // zero = none
	seq      uint64
	future   *Future
	index    int
}

// taskQueue orders by priority, then submission sequence.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }
func (q taskQueue) Less(i, j int) bool {
	if q[i].req.Priority != q[j].req.Priority {
		return q[i].req.Priority < q[j].req.Priority
	}
	return q[i].seq < q[j].seq
}
func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *taskQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

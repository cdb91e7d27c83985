package worker

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrPoolStopped = errors.New("worker pool stopped")

// Job is one unit of background work. Jobs sharing a Key run one at a time in
// submission order; jobs with different keys may run concurrently.
type Job struct {
	Key  string
	Name string
	Run  func(ctx context.Context) error
	// Done, if set, receives the result on the worker goroutine.
	Done func(err error)
}

type queue struct {
	mu     sync.Mutex
	jobs   []Job
	err    error
	signal chan struct{}
}

func (q *queue) push(j Job) error {
	q.mu.Lock()
	if q.err != nil {
		q.mu.Unlock()
		return q.err
	}
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return nil
}

// close makes every later push fail with err and hands back what was queued.
func (q *queue) close(err error) []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.err = err
	jobs := q.jobs
	q.jobs = nil
	return jobs
}

func (q *queue) pop() (Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return Job{}, false
	}
	j := q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	return j, true
}

type Pool struct {
	logger  *zap.Logger
	count   int
	queues  []*queue
	wg      sync.WaitGroup
	pending sync.WaitGroup
	stop    chan struct{}

	mu      sync.RWMutex
	stopped bool
}

func NewPool(logger *zap.Logger, count int) *Pool {
	if count <= 0 {
		count = 1
	}
	p := &Pool{
		logger: logger,
		count:  count,
		queues: make([]*queue, count),
		stop:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = &queue{signal: make(chan struct{}, 1)}
	}
	return p
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues a job without blocking. It fails with ErrPoolStopped after
// Stop, and with the context error once the worker owning the job's shard has
// exited because the Start context ended.
func (p *Pool) Submit(j Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	p.pending.Add(1)
	if err := p.queues[p.shard(j.Key)].push(j); err != nil {
		p.pending.Done()
		return err
	}
	return nil
}

// Wait blocks until every submitted job, including jobs submitted by Done
// callbacks, has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop refuses new jobs, lets workers drain their queues and waits for them.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stop)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) shard(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.count))
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	q := p.queues[id]

	for {
		if ctx.Err() != nil {
			p.cancel(ctx, q)
			return
		}
		if j, ok := q.pop(); ok {
			p.process(ctx, id, j)
			continue
		}
		select {
		case <-q.signal:
		case <-p.stop:
			p.drain(ctx, id, q)
			return
		case <-ctx.Done():
			p.cancel(ctx, q)
			return
		}
	}
}

func (p *Pool) drain(ctx context.Context, id int, q *queue) {
	for {
		j, ok := q.pop()
		if !ok {
			return
		}
		p.process(ctx, id, j)
	}
}

// cancel closes the queue and fails every queued job with the context error
// so callers can react.
func (p *Pool) cancel(ctx context.Context, q *queue) {
	err := ctx.Err()
	for _, j := range q.close(err) {
		p.finish(j, err)
	}
}

func (p *Pool) process(ctx context.Context, workerID int, j Job) {
	start := time.Now()
	err := j.Run(ctx)
	if err != nil {
		p.logger.Error("job failed",
			zap.Int("worker", workerID),
			zap.String("job", j.Name),
			zap.String("key", j.Key),
			zap.Error(err),
		)
	} else {
		p.logger.Debug("job done",
			zap.Int("worker", workerID),
			zap.String("job", j.Name),
			zap.Duration("took", time.Since(start)),
		)
	}
	p.finish(j, err)
}

func (p *Pool) finish(j Job, err error) {
	defer p.pending.Done()
	if j.Done != nil {
		j.Done(err)
	}
}

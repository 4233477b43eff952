package workerpool

import (
	"context"
	"runtime"
	"sync"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// Pool runs submitted tasks on a fixed number of goroutines. Call Run before
// Submit, and Close once every task has been submitted.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	once    sync.Once
}

// New creates a pool. workers <= 0 means runtime.NumCPU().
func New(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

// Submit queues t. It reports false when ctx ended before the task could be
// queued.
func (p *Pool) Submit(ctx context.Context, t Task) bool {
	if p == nil || t == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case p.tasks <- t:
		return true
	}
}

func (p *Pool) Close() {
	if p == nil {
		return
	}
	p.once.Do(func() { close(p.tasks) })
}

// Run starts the workers. The returned channel is closed once every worker
// has exited, either because the pool was closed and drained or because ctx
// ended.
func (p *Pool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.workers)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if t == nil {
						continue
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}

// ForEach runs fn(ctx, i) for i in [0, n) on a fresh pool of the given size
// and waits for all of them. It returns ctx.Err() when the context ended
// before every index ran, otherwise the first task error.
func ForEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	p := New(workers, workers)
	results := p.Run(ctx)

	go func() {
		defer p.Close()
		for i := 0; i < n; i++ {
			i := i
			if !p.Submit(ctx, func(ctx context.Context) error { return fn(ctx, i) }) {
				return
			}
		}
	}()

	var firstErr error
	done := 0
	for r := range results {
		done++
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
	}
	if err := ctx.Err(); err != nil && done < n {
		return err
	}
	return firstErr
}

package worker

import (
	"sync"

	"github.com/doorline/backend/internal/metrics"
)

type task func()

// Pool runs submitted tasks on a fixed number of goroutines.
type Pool struct {
	wg   sync.WaitGroup
	jobs chan task
}

func NewPool(n, queue int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan task, queue)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.SweepQueueDepth.Dec()
				job()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(f task) {
	metrics.SweepQueueDepth.Inc()
	p.jobs <- f
}

// Stop waits for queued tasks to finish. Submit must not be called afterwards.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

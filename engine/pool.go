package engine

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/vi-orbit/component"
	"github.com/lixenwraith/vi-orbit/core"
	"github.com/lixenwraith/vi-orbit/physics"
)

// Pool integrates numeric bodies on a fixed set of worker goroutines
// Each round a worker advances its contiguous partition of the work slice by one RK4
// substep against the shared read-only source snapshot
type Pool struct {
	workers int
	barrier *barrier
	wg      sync.WaitGroup
	running atomic.Bool
	mu      sync.Mutex // One orchestrator at a time

	// Round inputs, published to workers through the barrier lock
	work    []component.Body
	sources []component.Body
	h       float64
	units   physics.Units
}

// NewPool creates a pool of n workers; n < 1 is treated as 1
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{workers: n, barrier: newBarrier(n)}
}

func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the workers once
func (p *Pool) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.workers; i++ {
		i := i
		p.wg.Add(1)
		core.Go(func() { p.worker(i) })
	}
}

// Stop wakes idle workers and joins them
// Waits for an in-flight round, so a round is never torn
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.barrier.stop()
	p.wg.Wait()
}

// Run advances every body in work by one substep h
// Falls back to the calling goroutine when the pool is not running
func (p *Pool) Run(work, sources []component.Body, h float64, units physics.Units) {
	if !p.running.Load() {
		integrate(work, sources, h, units)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.work, p.sources, p.h, p.units = work, sources, h, units
	if !p.barrier.run() {
		// Stopped before the round opened, no worker touched the slice
		integrate(work, sources, h, units)
	}
	p.work, p.sources = nil, nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	var seen uint64
	for {
		round, ok := p.barrier.await(seen)
		if !ok {
			return
		}
		seen = round

		start, end := partition(id, p.workers, len(p.work))
		integrate(p.work[start:end], p.sources, p.h, p.units)

		p.barrier.finish()
	}
}

// partition returns worker id's contiguous chunk of n items
// Chunks are n/workers long; the last worker takes the remainder
func partition(id, workers, n int) (start, end int) {
	chunk := n / workers
	start = id * chunk
	end = start + chunk
	if id == workers-1 {
		end = n
	}
	return start, end
}

func integrate(work, sources []component.Body, h float64, units physics.Units) {
	for i := range work {
		physics.RK4(&work[i], sources, h, units)
	}
}

package engine

import "sync"

// barrier coordinates one orchestrator with a fixed set of workers
//
// Protocol per round:
//  1. each worker announces ready and sleeps until the round number changes
//  2. the orchestrator waits for every worker to be ready, bumps the round, wakes them
//  3. workers run their partition and report done
//  4. the orchestrator returns once every worker is done
//
// A worker cannot start round k+1 until the orchestrator opens it, so results of
// round k can be copied back before any worker touches shared state again.
type barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	ready   int
	done    int
	round   uint64
	stopped bool
}

func newBarrier(parties int) *barrier {
	b := &barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// await blocks a worker until a round after seen opens
// Returns false once the barrier is stopped
func (b *barrier) await(seen uint64) (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ready++
	b.cond.Broadcast()
	for b.round == seen && !b.stopped {
		b.cond.Wait()
	}
	b.ready--

	if b.stopped {
		return 0, false
	}
	return b.round, true
}

// finish reports a worker's round complete
func (b *barrier) finish() {
	b.mu.Lock()
	b.done++
	b.cond.Broadcast()
	b.mu.Unlock()
}

// run opens one round and waits for all workers to finish it
// Returns false if the barrier was stopped before the round completed
func (b *barrier) run() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.ready < b.parties && !b.stopped {
		b.cond.Wait()
	}
	if b.stopped {
		return false
	}

	b.done = 0
	b.round++
	b.cond.Broadcast()

	for b.done < b.parties && !b.stopped {
		b.cond.Wait()
	}
	return !b.stopped
}

// stop releases every waiter; the barrier cannot be reused
func (b *barrier) stop() {
	b.mu.Lock()
	b.stopped = true
	b.cond.Broadcast()
	b.mu.Unlock()
}

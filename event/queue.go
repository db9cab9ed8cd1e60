package event

import (
	"sync/atomic"

	"github.com/lixenwraith/vi-orbit/constant"
)

// Queue is a lock-free MPSC ring buffer of commands
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK (input loop, control connections)
//   - Consume: Single consumer (simulation update)
//   - Published flags prevent reading partial writes
//
// Overflow: Oldest commands overwritten when full
type Queue struct {
	commands  [constant.CommandQueueSize]Command
	published [constant.CommandQueueSize]atomic.Bool
	head      atomic.Uint64 // Read index
	tail      atomic.Uint64 // Write index
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push adds a command, safe for concurrent producers
func (q *Queue) Push(cmd Command) {
	for {
		tail := q.tail.Load()
		next := tail + 1

		if q.tail.CompareAndSwap(tail, next) {
			idx := tail & constant.CommandQueueMask

			q.commands[idx] = cmd
			q.published[idx].Store(true) // MUST be after write

			head := q.head.Load()
			if next-head > constant.CommandQueueSize {
				q.head.CompareAndSwap(head, next-constant.CommandQueueSize)
			}
			return
		}
	}
}

// Consume returns pending commands in FIFO order and advances head
// Stops early at a slot whose writer has not finished; the rest arrives next call
func (q *Queue) Consume() []Command {
	for {
		head := q.head.Load()
		tail := q.tail.Load()

		if tail == head {
			return nil
		}

		available := tail - head
		if available > constant.CommandQueueSize {
			available = constant.CommandQueueSize
			head = tail - constant.CommandQueueSize
		}

		out := make([]Command, 0, available)
		for i := uint64(0); i < available; i++ {
			idx := (head + i) & constant.CommandQueueMask
			if !q.published[idx].Load() {
				break
			}
			out = append(out, q.commands[idx])
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			for i := range out {
				q.published[(head+uint64(i))&constant.CommandQueueMask].Store(false)
			}
			if len(out) == 0 {
				return nil
			}
			return out
		}
	}
}

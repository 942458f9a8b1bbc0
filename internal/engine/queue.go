package engine

import (
	"sync"

	"github.com/roach88/asngen/internal/ir"
)

// workQueue is a FIFO queue of reprocess entries.
//
// The queue is unbounded: one evaluation may expand an item into many
// copies, and those must never block the producer.
type workQueue struct {
	mu    sync.Mutex
	lists []ir.ProcessList
}

func newWorkQueue() *workQueue {
	return &workQueue{lists: make([]ir.ProcessList, 0, 16)}
}

// Enqueue adds a work list to the back of the queue.
// Lists with no items are ignored.
func (q *workQueue) Enqueue(pl ir.ProcessList) {
	if len(pl.Items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists = append(q.lists, pl)
}

// TryDequeue removes and returns the front work list.
// Returns false if the queue is empty.
func (q *workQueue) TryDequeue() (ir.ProcessList, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.lists) == 0 {
		return ir.ProcessList{}, false
	}

	pl := q.lists[0]

	// Nil out the slot so the backing array does not pin the items.
	q.lists[0] = ir.ProcessList{}

	if len(q.lists) == 1 {
		q.lists = q.lists[:0]
	} else {
		q.lists = q.lists[1:]
	}
	return pl, true
}

// Len returns the current queue length.
func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lists)
}

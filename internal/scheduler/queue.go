// Package scheduler discovers interviews ready for analysis and drives them
// through a bounded worker pool consuming a tiered priority queue.
package scheduler

import (
	"container/heap"
	"sync"

	"github.com/hireloop/interview-analyzer/internal/adapter/observability"
	"github.com/hireloop/interview-analyzer/internal/domain"
)

// queueItem orders tasks by (tier, enqueue sequence): a higher tier always
// wins the next pickup, and within a tier tasks run in enqueue order.
type queueItem struct {
	task domain.AnalysisTask
	seq  uint64
}

type taskHeap []queueItem

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Priority != h[j].task.Priority {
		return h[i].task.Priority < h[j].task.Priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)   { *h = append(*h, x.(queueItem)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// PriorityQueue is the single shared queue between the monitor and the
// workers. Enqueue deduplicates by task id across the queued and in-flight
// sets so repeated monitor ticks never produce duplicate work.
type PriorityQueue struct {
	mu       sync.Mutex
	heap     taskHeap
	seq      uint64
	inflight map[string]struct{}
	wake     chan struct{}
	closed   bool
}

// NewPriorityQueue constructs an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		inflight: make(map[string]struct{}),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue adds a task unless it is already queued or being processed.
// Returns false when deduplicated.
func (q *PriorityQueue) Enqueue(t domain.AnalysisTask) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if _, dup := q.inflight[t.ID]; dup {
		return false
	}
	q.inflight[t.ID] = struct{}{}
	q.seq++
	heap.Push(&q.heap, queueItem{task: t, seq: q.seq})
	observability.TasksQueued.WithLabelValues(tierLabel(t.Priority)).Inc()
	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the highest-priority task without blocking.
func (q *PriorityQueue) TryDequeue() (domain.AnalysisTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 {
		return domain.AnalysisTask{}, false
	}
	it := heap.Pop(&q.heap).(queueItem)
	observability.TasksQueued.WithLabelValues(tierLabel(it.task.Priority)).Dec()
	return it.task, true
}

// Done releases a task id from the in-flight set so a later retry of the
// same task can be enqueued again.
func (q *PriorityQueue) Done(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, taskID)
}

// Wake returns the channel a worker waits on when the queue is drained.
func (q *PriorityQueue) Wake() <-chan struct{} { return q.wake }

// Len reports the number of queued (not in-flight) tasks.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Close stops accepting tasks.
func (q *PriorityQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

func tierLabel(tier int) string {
	switch tier {
	case domain.PriorityHigh:
		return "high"
	case domain.PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

package queue

import (
	"sync"

	"github.com/google/uuid"

	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/domain"
	"github.com/joshlevylabs/Klippel-Lyceum-sub000/internal/ports"
)

type jobKey struct {
	result   uuid.UUID
	polarity domain.Polarity
}

// MemQueue is a bounded FIFO of export jobs. A job for a (Result, Polarity)
// that is already waiting is folded into the queued one: the export reads the
// result when it runs, so a second copy would only push the same limit twice.
type MemQueue struct {
	mu        sync.Mutex
	jobs      []ports.ExportJob
	queued    map[jobKey]struct{}
	limit     int
	coalesced int
}

func NewMemQueue(capacity int) *MemQueue {
	capacity = max(capacity, 1)
	return &MemQueue{
		jobs:   make([]ports.ExportJob, 0, capacity),
		queued: make(map[jobKey]struct{}, capacity),
		limit:  capacity,
	}
}

// Enqueue appends job, or reports success without appending when the same
// (Result, Polarity) is already queued. It returns false only when the queue
// is full.
func (q *MemQueue) Enqueue(job ports.ExportJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	k, keyed := keyOf(job)
	if keyed {
		if _, ok := q.queued[k]; ok {
			q.coalesced++
			return true
		}
	}
	if len(q.jobs) >= q.limit {
		return false
	}
	q.jobs = append(q.jobs, job)
	if keyed {
		q.queued[k] = struct{}{}
	}
	return true
}

// DequeueBatch removes up to n jobs from the head; n <= 0 takes all of them.
func (q *MemQueue) DequeueBatch(n int) []ports.ExportJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return nil
	}
	if n <= 0 || n > len(q.jobs) {
		n = len(q.jobs)
	}
	out := make([]ports.ExportJob, n)
	copy(out, q.jobs[:n])
	q.jobs = append(q.jobs[:0], q.jobs[n:]...)
	for _, job := range out {
		if k, ok := keyOf(job); ok {
			delete(q.queued, k)
		}
	}
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Coalesced counts jobs folded into an already queued one.
func (q *MemQueue) Coalesced() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.coalesced
}

func keyOf(job ports.ExportJob) (jobKey, bool) {
	if job.Result == nil {
		return jobKey{}, false
	}
	return jobKey{result: job.Result.ID, polarity: job.Polarity}, true
}

var _ ports.ExportQueue = (*MemQueue)(nil)

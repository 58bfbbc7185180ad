package sched

import (
	"time"

	"github.com/tesla3327/literoom/cache"
)

// request states. A request leaves the scheduler on any terminal
// transition (completed, cancelled, failed).
const (
	stateQueued = iota
	stateDispatched
)

// request is one live unit of generation work. Multiple submissions for
// the same key coalesce into one request carrying all their callbacks.
type request struct {
	key         cache.Key
	priority    Priority
	seq         uint64
	submittedAt time.Time
	gen         GenerateFunc
	callbacks   []Callback
	state       int
	index       int
}

// requestHeap orders by priority, then submission sequence. FIFO within a
// priority avoids starving any particular asset.
type requestHeap []*request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *requestHeap) Push(x any) {
	req := x.(*request)
	req.index = len(*h)
	*h = append(*h, req)
}

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	req := old[n-1]
	old[n-1] = nil
	req.index = -1
	*h = old[:n-1]
	return req
}

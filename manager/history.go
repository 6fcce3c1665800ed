package manager

import (
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/eapache/queue"
)

// Sample is one recorded snapshot of every pool.
type Sample struct {
	Taken time.Time
	Pools []pool.PoolStatistics
}

func (s Sample) TotalMemory() int64 {
	var total int64
	for _, p := range s.Pools {
		total += p.MemoryUsageBytes
	}
	return total
}

// WeightedHitRate is total hits over total accesses, so busy pools weigh
// more than idle ones. It reports false when nothing was accessed.
func (s Sample) WeightedHitRate() (float64, bool) {
	hits, accesses := 0, 0
	for _, p := range s.Pools {
		hits += p.PoolHits
		accesses += p.Accesses()
	}
	if accesses == 0 {
		return 0, false
	}
	return float64(hits) / float64(accesses), true
}

// history keeps the newest samples up to capacity, dropping the oldest.
// It is guarded by the manager's lock.
type history struct {
	q        *queue.Queue
	capacity int
}

func newHistory(capacity int) *history {
	return &history{q: queue.New(), capacity: capacity}
}

func (h *history) add(s Sample) {
	h.q.Add(s)
	for h.q.Length() > h.capacity {
		h.q.Remove()
	}
}

func (h *history) len() int {
	return h.q.Length()
}

// samples returns the recorded samples, oldest first.
func (h *history) samples() []Sample {
	out := make([]Sample, h.q.Length())
	for i := range out {
		out[i] = h.q.Get(i).(Sample)
	}
	return out
}

func (h *history) averageMemory() (float64, bool) {
	n := h.q.Length()
	if n == 0 {
		return 0, false
	}

	var total int64
	for i := range n {
		total += h.q.Get(i).(Sample).TotalMemory()
	}
	return float64(total) / float64(n), true
}

func (h *history) reset() {
	h.q = queue.New()
}

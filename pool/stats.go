package pool

import (
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"
)

// PoolStatistics is a snapshot of a pool's counters. The pool recomputes it
// on every mutation; callers only ever get copies.
type PoolStatistics struct {
	Type     TypeID
	Category string
	Priority int

	CurrentPoolSize     int
	ObjectsInUse        int
	TotalCreated        int
	PoolHits            int
	PoolMisses          int
	PeakConcurrentUsage int

	// HitRate is hits / (hits + misses), 0 before the first access.
	HitRate float64

	// MemoryUsageBytes covers pooled and in-use instances. It is only
	// computed when monitoring is enabled.
	MemoryUsageBytes int64

	// ResizeCount counts free-list reductions, CleanupCount the subset
	// caused by shrink and trim.
	ResizeCount  int
	CleanupCount int

	CreatedAt  time.Time
	LastAccess time.Time
}

// TotalObjects is the number of instances the pool currently tracks.
func (s PoolStatistics) TotalObjects() int {
	return s.CurrentPoolSize + s.ObjectsInUse
}

// Accesses is the number of acquires served so far.
func (s PoolStatistics) Accesses() int {
	return s.PoolHits + s.PoolMisses
}

// Validate checks the counter invariants that hold for any snapshot.
func (s PoolStatistics) Validate() error {
	if s.CurrentPoolSize < 0 || s.ObjectsInUse < 0 {
		return fmt.Errorf("%w: negative sizes (pool %d, in use %d)", ErrInconsistent, s.CurrentPoolSize, s.ObjectsInUse)
	}

	if s.TotalObjects() > s.TotalCreated {
		return fmt.Errorf("%w: total objects (%d) exceeds total created (%d)", ErrInconsistent, s.TotalObjects(), s.TotalCreated)
	}

	if s.HitRate < 0 || s.HitRate > 1 {
		return fmt.Errorf("%w: hit rate %.3f out of range", ErrInconsistent, s.HitRate)
	}

	return nil
}

func hitRate(hits, misses int) float64 {
	total := hits + misses
	if total <= 0 {
		return 0
	}

	rate := float64(hits) / float64(total)
	return min(max(rate, 0), 1)
}

// updateStatistics must be called with p.mu held for writing.
func (p *ObjectPool) updateStatistics() {
	p.stats.CurrentPoolSize = len(p.available)
	p.stats.ObjectsInUse = len(p.inUse)
	p.stats.PeakConcurrentUsage = max(p.stats.PeakConcurrentUsage, p.stats.ObjectsInUse)
	p.stats.HitRate = hitRate(p.stats.PoolHits, p.stats.PoolMisses)
	p.stats.Category = p.config.Category
	p.stats.Priority = p.config.Priority

	if p.config.EnableMonitoring {
		p.stats.MemoryUsageBytes = p.calculateMemoryUsage()
	} else {
		p.stats.MemoryUsageBytes = 0
	}
}

func (p *ObjectPool) calculateMemoryUsage() int64 {
	var total int64
	for _, obj := range p.available {
		total += footprint(obj)
	}
	for obj := range p.inUse {
		total += footprint(obj)
	}
	return total
}

func footprint(obj Object) int64 {
	if s, ok := obj.(Sizer); ok {
		return s.FootprintBytes()
	}

	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return int64(t.Size())
}

// Statistics returns a snapshot of the pool's counters.
func (p *ObjectPool) Statistics() PoolStatistics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// LogDebugInfo dumps the counters when debug logging is enabled.
func (p *ObjectPool) LogDebugInfo() {
	p.mu.RLock()
	s := p.stats
	debug := p.config.EnableDebugLogging
	p.mu.RUnlock()

	if !debug {
		return
	}

	p.log.Info("pool debug info",
		zap.String("type", string(s.Type)),
		zap.Int("pool_size", s.CurrentPoolSize),
		zap.Int("in_use", s.ObjectsInUse),
		zap.Int("total_created", s.TotalCreated),
		zap.Int("hits", s.PoolHits),
		zap.Int("misses", s.PoolMisses),
		zap.Float64("hit_rate_pct", s.HitRate*100),
		zap.Int64("memory_bytes", s.MemoryUsageBytes),
	)
}

package manager

import (
	"github.com/AlexsanderHamir/gwizpool/pool"

	"go.uber.org/zap"
)

// PerformanceReport is the outcome of one UpdatePerformanceMetrics call.
type PerformanceReport struct {
	TotalMemory int64

	// AverageMemory is the mean total memory over the recorded history
	// before this call. HasHistory is false when there was none.
	AverageMemory float64
	HasHistory    bool

	// HitRate is the access-weighted hit rate across pools.
	HitRate float64

	MemoryGrowth bool
	LowHitRate   bool
}

const (
	memoryGrowthThreshold = 1.10
	lowHitRateThreshold   = 0.5
)

// Snapshot returns every pool's statistics, sorted by type. It has no side
// effects.
func (m *Manager) Snapshot() []pool.PoolStatistics {
	entries := m.entries()
	out := make([]pool.PoolStatistics, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.p.Statistics())
	}
	return out
}

// GlobalStatistics is Snapshot that also records the snapshot in the
// history when performance monitoring is enabled.
func (m *Manager) GlobalStatistics() []pool.PoolStatistics {
	stats := m.Snapshot()
	if m.config.EnablePerformanceMonitoring {
		m.record(stats)
	}
	return stats
}

func (m *Manager) record(stats []pool.PoolStatistics) {
	m.mu.Lock()
	m.history.add(Sample{Taken: m.now(), Pools: stats})
	m.mu.Unlock()
}

// History returns the recorded samples, oldest first.
func (m *Manager) History() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.history.samples()
}

// UpdatePerformanceMetrics compares the current totals with the history and
// logs a warning when memory grew more than 10% over the historical average
// or the weighted hit rate fell below 50%. The current snapshot is then
// recorded. It never changes any pool.
func (m *Manager) UpdatePerformanceMetrics() PerformanceReport {
	current := Sample{Taken: m.now(), Pools: m.Snapshot()}

	m.mu.RLock()
	avg, hasHistory := m.history.averageMemory()
	m.mu.RUnlock()

	report := PerformanceReport{
		TotalMemory:   current.TotalMemory(),
		AverageMemory: avg,
		HasHistory:    hasHistory,
	}

	if hasHistory && avg > 0 && float64(report.TotalMemory) > avg*memoryGrowthThreshold {
		report.MemoryGrowth = true
		m.log.Warn("pool memory usage increased significantly",
			zap.Int64("current_bytes", report.TotalMemory),
			zap.Float64("average_bytes", avg))
		m.emit(EventPerformanceWarning, map[string]any{
			"reason":        "memory_growth",
			"current_bytes": report.TotalMemory,
			"average_bytes": avg,
		})
	}

	if rate, ok := current.WeightedHitRate(); ok {
		report.HitRate = rate
		if rate < lowHitRateThreshold {
			report.LowHitRate = true
			m.log.Warn("average pool hit rate is low", zap.Float64("hit_rate_pct", rate*100))
			m.emit(EventPerformanceWarning, map[string]any{
				"reason":   "low_hit_rate",
				"hit_rate": rate,
			})
		}
	}

	m.mu.Lock()
	m.history.add(current)
	m.mu.Unlock()

	return report
}

// ClearAll empties every pool's free list, then the registry and the history.
// Checked-out instances stay valid but can no longer be released.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[pool.TypeID]*pool.ObjectPool)
	m.history.reset()
	m.accumulated = 0
	m.mu.Unlock()

	cleared := 0
	for _, p := range pools {
		cleared += p.Clear()
	}

	m.log.Debug("cleared all pools", zap.Int("pools", len(pools)), zap.Int("objects", cleared))
	m.emit(EventPoolsCleared, map[string]any{
		"pools":   len(pools),
		"objects": cleared,
	})
}

func (m *Manager) PoolCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pools)
}

// TotalObjects sums free and in-use instances over every pool.
func (m *Manager) TotalObjects() int {
	total := 0
	for _, s := range m.Snapshot() {
		total += s.TotalObjects()
	}
	return total
}

func (m *Manager) TotalInUse() int {
	total := 0
	for _, s := range m.Snapshot() {
		total += s.ObjectsInUse
	}
	return total
}

func (m *Manager) TotalMemoryUsage() int64 {
	var total int64
	for _, s := range m.Snapshot() {
		total += s.MemoryUsageBytes
	}
	return total
}

// AllPools returns every registered pool, sorted by type.
func (m *Manager) AllPools() []*pool.ObjectPool {
	entries := m.entries()
	out := make([]*pool.ObjectPool, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.p)
	}
	return out
}

func (m *Manager) PoolsByCategory(category string) []*pool.ObjectPool {
	var out []*pool.ObjectPool
	for _, e := range m.entries() {
		if e.p.Category() == category {
			out = append(out, e.p)
		}
	}
	return out
}

func (m *Manager) PoolsByPriority(priority int) []*pool.ObjectPool {
	var out []*pool.ObjectPool
	for _, e := range m.entries() {
		if e.p.Priority() == priority {
			out = append(out, e.p)
		}
	}
	return out
}

// LogAllPoolStatistics logs one line per pool and a summary line. In debug
// mode every pool with debug logging enabled also dumps its counters.
func (m *Manager) LogAllPoolStatistics() {
	stats := m.Snapshot()

	m.log.Info("pooling statistics",
		zap.Int("pools", len(stats)),
		zap.Int("total_objects", sumObjects(stats)),
		zap.Int64("total_memory_bytes", Sample{Pools: stats}.TotalMemory()))

	for _, s := range stats {
		m.log.Info("pool statistics",
			zap.String("type", string(s.Type)),
			zap.String("category", s.Category),
			zap.Int("priority", s.Priority),
			zap.Int("pool_size", s.CurrentPoolSize),
			zap.Int("in_use", s.ObjectsInUse),
			zap.Int("total_created", s.TotalCreated),
			zap.Float64("hit_rate_pct", s.HitRate*100),
			zap.Int("peak", s.PeakConcurrentUsage),
			zap.Int64("memory_bytes", s.MemoryUsageBytes))
	}

	if m.config.EnableDebugMode {
		for _, p := range m.AllPools() {
			p.LogDebugInfo()
		}
	}
}

func sumObjects(stats []pool.PoolStatistics) int {
	total := 0
	for _, s := range stats {
		total += s.TotalObjects()
	}
	return total
}

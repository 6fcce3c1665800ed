package manager

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"go.uber.org/zap"
)

type entry struct {
	t pool.TypeID
	p *pool.ObjectPool
}

// entries returns the registry sorted by type, so passes over it are
// deterministic.
func (m *Manager) entries() []entry {
	m.mu.RLock()
	out := make([]entry, 0, len(m.pools))
	for t, p := range m.pools {
		out = append(out, entry{t: t, p: p})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].t < out[j].t })
	return out
}

// PreWarmAll fills every pool up to its InitialSize. It keeps going when a
// pool fails and returns all failures joined.
func (m *Manager) PreWarmAll() (int, error) {
	var (
		total int
		errs  []error
	)

	for _, e := range m.entries() {
		created, err := e.p.PreWarm(e.p.Config().InitialSize)
		total += created
		if err != nil {
			errs = append(errs, err)
		}
	}

	if total > 0 {
		m.log.Info("prewarmed pools", zap.Int("created", total))
	}
	return total, errors.Join(errs...)
}

// CleanupUnused shrinks every idle pool (nothing in use) down to MinSize.
func (m *Manager) CleanupUnused() int {
	total := 0
	for _, e := range m.entries() {
		if e.p.InUse() != 0 {
			continue
		}

		if removed := e.p.ShrinkToMinimum(); removed > 0 {
			total += removed
			m.cleaned(e.t, removed, "shrink")
		}
	}
	return total
}

// PerformAutoCleanup trims idle pools by a share of their excess over
// MinSize that shrinks as their hit rate grows. Pools with an
// AutoCleanupTimeout are skipped until they have been idle that long.
func (m *Manager) PerformAutoCleanup() int {
	now := m.now()
	total := 0

	for _, e := range m.entries() {
		s := e.p.Statistics()
		cfg := e.p.Config()

		if s.ObjectsInUse != 0 || s.CurrentPoolSize <= cfg.MinSize {
			continue
		}

		if cfg.AutoCleanupTimeout > 0 && e.p.IdleFor(now) < cfg.AutoCleanupTimeout {
			continue
		}

		n := autoCleanupCount(s.CurrentPoolSize-cfg.MinSize, s.HitRate)
		if n == 0 {
			continue
		}

		if removed := e.p.Trim(n); removed > 0 {
			total += removed
			m.cleaned(e.t, removed, "auto")
		}
	}

	return total
}

// autoCleanupCount is the number of excess instances auto-cleanup removes
// for a given hit rate.
func autoCleanupCount(excess int, hitRate float64) int {
	if excess <= 0 {
		return 0
	}

	switch {
	case hitRate < 0.3:
		return excess / 2
	case hitRate < 0.7:
		return excess / 4
	default:
		return excess / 8
	}
}

func (m *Manager) cleaned(t pool.TypeID, removed int, mode string) {
	m.log.Debug("cleaned pool",
		zap.String("type", string(t)),
		zap.Int("removed", removed),
		zap.String("mode", mode))

	m.emit(EventPoolCleanup, map[string]any{
		"type":    string(t),
		"removed": removed,
		"mode":    mode,
	})
}

// Tick advances the maintenance clock by delta and runs a maintenance pass
// once a full interval has accumulated. It reports whether a pass ran. A
// closed manager skips the pass.
func (m *Manager) Tick(delta time.Duration) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}

	m.accumulated += delta
	if m.accumulated < m.config.MaintenanceInterval {
		m.mu.Unlock()
		return false
	}
	m.accumulated = 0
	m.mu.Unlock()

	m.runMaintenance()
	return true
}

func (m *Manager) runMaintenance() {
	if m.isClosed() {
		return
	}

	if m.config.EnablePerformanceMonitoring {
		m.UpdatePerformanceMetrics()
	}

	if m.config.EnableAutoCleanup {
		m.PerformAutoCleanup()
	}

	if m.config.EnableDebugMode {
		m.LogAllPoolStatistics()
	}
}

// Start runs maintenance every MaintenanceInterval in a background goroutine
// until ctx is done, Stop is called or the manager is closed.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrManagerClosed
	}
	if m.stopChan != nil {
		return ErrRunning
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	m.stopChan, m.loopDone = stop, done

	go m.maintenanceLoop(ctx, stop, done)
	return nil
}

func (m *Manager) maintenanceLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := m.config.MaintenanceInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Tick(interval)
		case <-stop:
			return
		case <-ctx.Done():
			m.mu.Lock()
			if m.stopChan == stop {
				m.stopChan, m.loopDone = nil, nil
			}
			m.mu.Unlock()
			return
		}
	}
}

// Stop halts the maintenance loop started by Start and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stopChan, m.loopDone
	m.stopChan, m.loopDone = nil, nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

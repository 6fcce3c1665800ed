package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AddExisting adopts an externally created instance into the free list.
// Adopted instances count toward TotalCreated. The instance is rejected if
// it is already tracked, has an incompatible type, or the pool is full.
func (p *ObjectPool) AddExisting(obj Object) error {
	if IsNil(obj) {
		p.log.Warn("add: nil object")
		return ErrNilObject
	}

	if !isPointer(obj) {
		p.log.Warn("add: non-pointer object", zap.String("object", fmt.Sprintf("%T", obj)))
		return ErrNotPointer
	}

	if isZeroSize(obj) {
		p.log.Warn("add: zero-size object", zap.String("object", fmt.Sprintf("%T", obj)))
		return ErrZeroSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.compatible(obj.PoolType()) {
		p.log.Warn("add: type mismatch",
			zap.String("type", string(p.declared)),
			zap.String("object_type", string(obj.PoolType())))
		return fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, obj.PoolType(), p.declared)
	}

	if p.tracked(obj) {
		p.log.Warn("add: object already tracked", zap.String("type", string(p.declared)))
		return ErrAlreadyPooled
	}

	if len(p.available) >= p.config.MaxSize {
		p.log.Warn("add: pool is full, rejecting object",
			zap.String("type", string(p.declared)),
			zap.Int("max", p.config.MaxSize))
		return ErrPoolFull
	}

	p.pushAvailable(obj)
	p.stats.TotalCreated++
	p.logDebug("add: added to pool", zap.Int("size", len(p.available)))
	p.updateStatistics()

	return nil
}

// RemoveFromPool takes an instance out of the free list. The pool stops
// tracking it.
func (p *ObjectPool) RemoveFromPool(obj Object) error {
	if IsNil(obj) {
		return ErrNilObject
	}

	if !isPointer(obj) {
		return ErrNotPointer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.compatible(obj.PoolType()) {
		p.log.Warn("remove: type mismatch",
			zap.String("type", string(p.declared)),
			zap.String("object_type", string(obj.PoolType())))
		return ErrTypeMismatch
	}

	if !p.removeAvailable(obj) {
		return ErrNotInPool
	}

	p.logDebug("remove: removed from pool", zap.Int("size", len(p.available)))
	p.updateStatistics()

	return nil
}

// Clear empties the free list. Checked-out instances stay valid until released.
func (p *ObjectPool) Clear() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := len(p.available)
	p.logDebug("clear: clearing available objects", zap.Int("count", removed))

	clear(p.available)
	p.available = p.available[:0]
	clear(p.availableIdx)

	if removed > 0 {
		p.stats.ResizeCount++
	}
	p.updateStatistics()

	return removed
}

// PreWarm constructs instances directly into the free list until it holds
// min(target, MaxSize). Pre-warmed instances count toward TotalCreated but
// not as hits or misses. It returns how many were created.
func (p *ObjectPool) PreWarm(target int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared == "" {
		p.log.Warn("prewarm on pool without declared type")
		return 0, ErrNoDeclaredType
	}

	toCreate := max(0, min(target, p.config.MaxSize)-len(p.available))
	p.logDebug("prewarm: creating objects", zap.Int("count", toCreate))

	created := 0
	for range toCreate {
		obj, err := p.construct()
		if err != nil {
			p.log.Warn("prewarm: construction failed",
				zap.String("type", string(p.declared)),
				zap.Int("created", created),
				zap.Error(err))
			p.updateStatistics()
			return created, err
		}
		p.pushAvailable(obj)
		created++
	}

	p.updateStatistics()
	return created, nil
}

// ShrinkToMinimum drops free instances down to MinSize. It is a no-op when
// the free list is already at or below MinSize.
func (p *ObjectPool) ShrinkToMinimum() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.available) <= p.config.MinSize {
		return 0
	}

	return p.shrinkBy(len(p.available) - p.config.MinSize)
}

// Trim drops up to n free instances without going below MinSize.
func (p *ObjectPool) Trim(n int) int {
	if n <= 0 {
		return 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	excess := len(p.available) - p.config.MinSize
	if excess <= 0 {
		return 0
	}

	return p.shrinkBy(min(n, excess))
}

func (p *ObjectPool) shrinkBy(n int) int {
	removed := p.dropAvailable(n)
	if removed > 0 {
		p.stats.ResizeCount++
		p.stats.CleanupCount++
		p.logDebug("shrink: dropped objects", zap.Int("removed", removed), zap.Int("size", len(p.available)))
	}
	p.updateStatistics()
	return removed
}

// SetConfig replaces the pool's config. Invalid configs are rejected and
// leave the pool unchanged. A lower MaxSize trims the free list to fit.
func (p *ObjectPool) SetConfig(config PoolConfig) error {
	if err := config.Validate(); err != nil {
		p.log.Warn("rejecting invalid pool config", zap.String("type", string(p.declared)), zap.Error(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.config = config
	if over := len(p.available) - config.MaxSize; over > 0 {
		p.dropAvailable(over)
		p.stats.ResizeCount++
	}
	p.updateStatistics()

	return nil
}

// Validate checks the structural invariants: the counters match the
// collections, no instance is tracked twice, and the pool never tracks more
// instances than it created. It is not called on hot paths.
func (p *ObjectPool) Validate() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stats.CurrentPoolSize != len(p.available) {
		return fmt.Errorf("%w: pool size %d, stats say %d", ErrInconsistent, len(p.available), p.stats.CurrentPoolSize)
	}

	if p.stats.ObjectsInUse != len(p.inUse) {
		return fmt.Errorf("%w: in use %d, stats say %d", ErrInconsistent, len(p.inUse), p.stats.ObjectsInUse)
	}

	if len(p.availableIdx) != len(p.available) {
		return fmt.Errorf("%w: free list index holds %d entries for %d objects", ErrInconsistent, len(p.availableIdx), len(p.available))
	}

	for i, obj := range p.available {
		if idx, ok := p.availableIdx[obj]; !ok || idx != i {
			return fmt.Errorf("%w: free list index out of sync at slot %d", ErrInconsistent, i)
		}
		if _, ok := p.inUse[obj]; ok {
			return fmt.Errorf("%w: object at slot %d is both available and in use", ErrInconsistent, i)
		}
	}

	return p.stats.Validate()
}

func (p *ObjectPool) DeclaredType() TypeID {
	return p.declared
}

// Config returns a copy of the current configuration.
func (p *ObjectPool) Config() PoolConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

// Size is the number of instances in the free list.
func (p *ObjectPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.available)
}

func (p *ObjectPool) InUse() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.inUse)
}

func (p *ObjectPool) IsEmpty() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.available) == 0
}

// IsFull reports whether the free list reached MaxSize.
func (p *ObjectPool) IsFull() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.available) >= p.config.MaxSize
}

func (p *ObjectPool) HitRate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats.HitRate
}

func (p *ObjectPool) MemoryUsage() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats.MemoryUsageBytes
}

func (p *ObjectPool) Category() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Category
}

func (p *ObjectPool) Priority() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Priority
}

// IsInUse reports whether obj is currently checked out from this pool.
func (p *ObjectPool) IsInUse(obj Object) bool {
	if IsNil(obj) || !isPointer(obj) {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.inUse[obj]
	return ok
}

// IsAvailable reports whether obj is in the free list.
func (p *ObjectPool) IsAvailable(obj Object) bool {
	if IsNil(obj) || !isPointer(obj) {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.availableIdx[obj]
	return ok
}

// IdleFor returns how long the pool has gone without an acquire or release,
// measured from creation if it was never accessed.
func (p *ObjectPool) IdleFor(now time.Time) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	last := p.stats.LastAccess
	if last.IsZero() {
		last = p.stats.CreatedAt
	}
	return now.Sub(last)
}

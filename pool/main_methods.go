package pool

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNilObject      = errors.New("object is nil")
	ErrNotPointer     = errors.New("object must be a pointer")
	ErrNoDeclaredType = errors.New("pool has no declared type")
	ErrTypeMismatch   = errors.New("object type is incompatible with the pool")
	ErrNotInUse       = errors.New("object is not checked out from this pool")
	ErrAlreadyPooled  = errors.New("object is already tracked by this pool")
	ErrPoolFull       = errors.New("pool is full")
	ErrNotInPool      = errors.New("object is not in the free list")
	ErrAllocation     = errors.New("failed to construct object")
	ErrInvalidConfig  = errors.New("invalid pool configuration")
	ErrInconsistent   = errors.New("pool state is inconsistent")
	ErrUnknownType    = errors.New("unknown type")
	ErrZeroSize       = errors.New("zero-size types cannot be pooled")
	errNoConstructor  = errors.New("constructor is nil")
)

// New creates a pool for the declared type. The config is validated and
// rejected if invalid. An empty declared type is allowed, but such a pool
// refuses to produce instances.
func New(declared TypeID, config PoolConfig, ctor Constructor, opts ...Option) (*ObjectPool, error) {
	if ctor == nil {
		return nil, errNoConstructor
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &ObjectPool{
		declared:     declared,
		config:       config,
		availableIdx: make(map[Object]int),
		inUse:        make(map[Object]struct{}),
		ctor:         ctor,
		log:          zap.NewNop(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.stats.Type = declared
	p.stats.CreatedAt = p.now()
	p.updateStatistics()

	return p, nil
}

// Acquire returns an instance from the free list (hit) or constructs a new
// one (miss). It never blocks. It fails only when the pool has no declared
// type or construction fails.
func (p *ObjectPool) Acquire() (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.declared == "" {
		p.log.Warn("acquire on pool without declared type")
		return nil, ErrNoDeclaredType
	}

	var obj Object
	if len(p.available) > 0 {
		obj = p.popAvailable()
		p.stats.PoolHits++
		p.logDebug("acquire: served from pool", zap.Int("remaining", len(p.available)))
	} else {
		created, err := p.construct()
		if err != nil {
			p.log.Warn("acquire: construction failed", zap.String("type", string(p.declared)), zap.Error(err))
			return nil, err
		}
		obj = created
		p.stats.PoolMisses++
		p.logDebug("acquire: created new object")
	}

	p.inUse[obj] = struct{}{}
	p.touch()
	p.updateStatistics()

	return obj, nil
}

// Release returns a checked-out instance to the free list, or drops it if
// the free list is already at MaxSize.
func (p *ObjectPool) Release(obj Object) error {
	return p.ReleaseWith(obj, nil)
}

// ReleaseWith is Release with a hook that runs after the instance has been
// validated and before it re-enters the free list. The hook runs under the
// pool lock and must not call back into this pool.
func (p *ObjectPool) ReleaseWith(obj Object, beforeReturn func(Object)) error {
	if IsNil(obj) {
		p.log.Warn("release: nil object")
		return ErrNilObject
	}

	if !isPointer(obj) {
		p.log.Warn("release: non-pointer object", zap.String("object", fmt.Sprintf("%T", obj)))
		return ErrNotPointer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.compatible(obj.PoolType()) {
		p.log.Warn("release: type mismatch",
			zap.String("type", string(p.declared)),
			zap.String("object_type", string(obj.PoolType())))
		return fmt.Errorf("%w: %s is not a %s", ErrTypeMismatch, obj.PoolType(), p.declared)
	}

	if _, ok := p.inUse[obj]; !ok {
		if _, pooled := p.availableIdx[obj]; pooled {
			p.log.Warn("release: object already in pool", zap.String("type", string(p.declared)))
			return ErrAlreadyPooled
		}
		p.log.Warn("release: object not checked out from this pool", zap.String("type", string(p.declared)))
		return ErrNotInUse
	}

	delete(p.inUse, obj)

	if beforeReturn != nil {
		beforeReturn(obj)
	}

	if len(p.available) < p.config.MaxSize {
		p.pushAvailable(obj)
		p.logDebug("release: added to pool", zap.Int("size", len(p.available)))
	} else {
		p.logDebug("release: pool full, dropping object", zap.Int("max", p.config.MaxSize))
	}

	p.touch()
	p.updateStatistics()

	return nil
}

// construct must be called with p.mu held for writing.
func (p *ObjectPool) construct() (Object, error) {
	obj, err := p.ctor.Construct(p.declared)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, p.declared, err)
	}

	if IsNil(obj) {
		return nil, fmt.Errorf("%w: %s: constructor returned nil", ErrAllocation, p.declared)
	}

	if !isPointer(obj) {
		return nil, fmt.Errorf("%w: %s: got %T", ErrNotPointer, p.declared, obj)
	}

	if isZeroSize(obj) {
		return nil, fmt.Errorf("%w: %w: %s: %T", ErrAllocation, ErrZeroSize, p.declared, obj)
	}

	if !p.compatible(obj.PoolType()) {
		return nil, fmt.Errorf("%w: constructor for %s returned %s", ErrTypeMismatch, p.declared, obj.PoolType())
	}

	if p.tracked(obj) {
		return nil, fmt.Errorf("%w: %s: constructor returned a tracked instance", ErrAllocation, p.declared)
	}

	p.stats.TotalCreated++
	return obj, nil
}

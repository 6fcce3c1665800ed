package manager

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"go.uber.org/zap"
)

var (
	ErrInvalidType   = errors.New("invalid pool type")
	ErrNoPool        = errors.New("no pool for type")
	ErrManagerClosed = errors.New("manager is closed")
	ErrRunning       = errors.New("maintenance loop already running")
)

// Manager maps declared types to pools. It creates pools lazily, routes
// acquire and release through the lifecycle adapter, runs periodic
// maintenance and aggregates statistics. All methods are safe for concurrent
// use.
type Manager struct {
	mu sync.RWMutex

	types  pool.TypeSystem
	config Config

	// defaultConfig seeds pools created by GetOrCreatePool.
	defaultConfig pool.PoolConfig

	pools   map[pool.TypeID]*pool.ObjectPool
	history *history

	// accumulated tick time since the last maintenance pass.
	accumulated time.Duration

	closed   bool
	stopChan chan struct{}
	loopDone chan struct{}

	lifecycle LifecycleAdapter
	events    EventSink
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Manager)

func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

func WithLifecycle(l LifecycleAdapter) Option {
	return func(m *Manager) {
		if l != nil {
			m.lifecycle = l
		}
	}
}

func WithEventSink(s EventSink) Option {
	return func(m *Manager) {
		if s != nil {
			m.events = s
		}
	}
}

// WithClock replaces time.Now for the manager and every pool it creates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates a manager over the host's type system. Zero values in config
// fall back to the defaults. An invalid default pool config is rejected.
func New(types pool.TypeSystem, config Config, opts ...Option) (*Manager, error) {
	if types == nil {
		return nil, errors.New("type system is nil")
	}

	config = config.withDefaults()
	if err := config.DefaultPool.Validate(); err != nil {
		return nil, fmt.Errorf("default pool config: %w", err)
	}

	m := &Manager{
		types:         types,
		config:        config,
		defaultConfig: config.DefaultPool,
		pools:         make(map[pool.TypeID]*pool.ObjectPool),
		history:       newHistory(config.HistoryCapacity),
		lifecycle:     DefaultLifecycle{},
		events:        nopSink{},
		log:           zap.NewNop(),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Config returns the manager's configuration with the current default pool
// config.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.config
	c.DefaultPool = m.defaultConfig
	return c
}

// KnowsType reports whether the host type system has t.
func (m *Manager) KnowsType(t pool.TypeID) bool {
	return t != "" && m.types.Has(t)
}

// GetOrCreatePool returns the pool registered for t, creating it with the
// default config on first use. Concurrent callers for the same type always
// get the same pool.
func (m *Manager) GetOrCreatePool(t pool.TypeID) (*pool.ObjectPool, error) {
	if t == "" {
		m.log.Warn("get pool: empty type")
		return nil, ErrInvalidType
	}

	if !m.types.Has(t) {
		m.log.Warn("get pool: unknown type", zap.String("type", string(t)))
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidType, pool.ErrUnknownType, t)
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, ErrManagerClosed
	}
	p, ok := m.pools[t]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	// another caller may have created it between the two locks.
	if p, ok := m.pools[t]; ok {
		m.mu.Unlock()
		return p, nil
	}

	cfg := m.defaultConfig
	p, err := m.newPool(t, cfg)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.pools[t] = p
	m.mu.Unlock()

	m.log.Debug("created pool", zap.String("type", string(t)), zap.String("category", cfg.Category))
	m.emit(EventPoolCreated, map[string]any{
		"type":     string(t),
		"category": cfg.Category,
		"max_size": cfg.MaxSize,
	})

	return p, nil
}

func (m *Manager) newPool(t pool.TypeID, cfg pool.PoolConfig) (*pool.ObjectPool, error) {
	return pool.New(t, cfg, m.types,
		pool.WithLogger(m.log.With(zap.String("pool", string(t)))),
		pool.WithHierarchy(m.types),
		pool.WithClock(m.now),
	)
}

// SetDefaultConfig replaces the config seeding pools created from now on.
// Existing pools keep theirs.
func (m *Manager) SetDefaultConfig(cfg pool.PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		m.log.Warn("rejecting invalid default pool config", zap.Error(err))
		return err
	}

	m.mu.Lock()
	m.defaultConfig = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) DefaultPoolConfig() pool.PoolConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// ConfigurePool validates cfg and applies it to the pool for t, creating the
// pool first if needed. A rejected config changes nothing, and creates no pool.
func (m *Manager) ConfigurePool(t pool.TypeID, cfg pool.PoolConfig) error {
	if err := cfg.Validate(); err != nil {
		m.log.Warn("configure pool: rejecting invalid config", zap.String("type", string(t)), zap.Error(err))
		return err
	}

	p, err := m.GetOrCreatePool(t)
	if err != nil {
		return err
	}

	if err := p.SetConfig(cfg); err != nil {
		return err
	}

	m.emit(EventPoolConfigured, map[string]any{
		"type":         string(t),
		"min_size":     cfg.MinSize,
		"max_size":     cfg.MaxSize,
		"initial_size": cfg.InitialSize,
		"category":     cfg.Category,
		"priority":     cfg.Priority,
	})

	return nil
}

// AcquireObject takes an instance from the pool for t and runs the lifecycle
// acquire hook on it.
func (m *Manager) AcquireObject(t pool.TypeID) (pool.Object, error) {
	p, err := m.GetOrCreatePool(t)
	if err != nil {
		return nil, err
	}

	obj, err := p.Acquire()
	if err != nil {
		return nil, err
	}

	m.lifecycle.OnAcquire(obj)
	return obj, nil
}

// ReleaseObject hands obj back to the pool serving its concrete type, which
// may be an ancestor's pool. The lifecycle release hook only runs when the
// pool accepts the instance.
func (m *Manager) ReleaseObject(obj pool.Object) error {
	if pool.IsNil(obj) {
		m.log.Warn("release: nil object")
		return pool.ErrNilObject
	}

	t := obj.PoolType()
	p, ok := m.PoolForType(t)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPool, t)
	}

	return p.ReleaseWith(obj, m.lifecycle.OnRelease)
}

// Pool returns the pool registered exactly for t.
func (m *Manager) Pool(t pool.TypeID) (*pool.ObjectPool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[t]
	return p, ok
}

// PoolForType returns the pool registered for t or, failing that, for its
// nearest registered ancestor.
func (m *Manager) PoolForType(t pool.TypeID) (*pool.ObjectPool, bool) {
	m.mu.RLock()
	p, owner, ok := resolvePool(m.pools, m.types, t)
	m.mu.RUnlock()

	if !ok {
		m.log.Warn("no pool found for type or its ancestors", zap.String("type", string(t)))
		return nil, false
	}

	if owner != t {
		m.log.Debug("using ancestor pool", zap.String("type", string(t)), zap.String("pool", string(owner)))
	}
	return p, true
}

// resolvePool looks t up exactly, then walks its ancestors nearest first.
// It reports which registered type owns the returned pool.
func resolvePool(registry map[pool.TypeID]*pool.ObjectPool, h pool.Hierarchy, t pool.TypeID) (*pool.ObjectPool, pool.TypeID, bool) {
	if t == "" {
		return nil, "", false
	}

	if p, ok := registry[t]; ok {
		return p, t, true
	}

	for _, ancestor := range pool.Ancestors(h, t) {
		if p, ok := registry[ancestor]; ok {
			return p, ancestor, true
		}
	}

	return nil, "", false
}

// Close stops the maintenance loop, clears every pool and rejects further
// pool creation. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.Stop()
	m.ClearAll()
	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

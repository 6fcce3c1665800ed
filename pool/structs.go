package pool

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// ObjectPool manages the free/in-use split for one declared type and keeps
// its PoolStatistics consistent. All methods are safe for concurrent use.
//
// Every instance the pool tracks is in exactly one of available or inUse.
// Instances the pool chooses not to keep are simply forgotten and left to
// the garbage collector.
type ObjectPool struct {
	mu sync.RWMutex

	// declared is the type key this pool serves.
	declared TypeID

	config PoolConfig

	// available is the free list, used as a stack. availableIdx maps an
	// instance to its slot so arbitrary removal stays O(1).
	available    []Object
	availableIdx map[Object]int

	// inUse holds checked-out instances.
	inUse map[Object]struct{}

	stats PoolStatistics

	ctor  Constructor
	types Hierarchy

	log *zap.Logger
	now func() time.Time
}

// PoolConfig holds the knobs of a single pool.
type PoolConfig struct {
	// MinSize is the floor the free list keeps when cleanup runs.
	MinSize int `yaml:"min_size"`

	// MaxSize is the ceiling of retained-but-unused instances. Returns beyond
	// it are dropped.
	MaxSize int `yaml:"max_size"`

	// InitialSize is the free-list target after pre-warm.
	InitialSize int `yaml:"initial_size"`

	EnableDebugLogging bool `yaml:"enable_debug_logging"`

	// EnableMonitoring turns on memory accounting, which walks every
	// instance on each mutation.
	EnableMonitoring bool `yaml:"enable_monitoring"`

	// EnableThreadSafety is carried for configuration compatibility. The
	// pool always serializes access.
	EnableThreadSafety bool `yaml:"enable_thread_safety"`

	Category string `yaml:"category"`
	Priority int    `yaml:"priority"`

	// AutoCleanupTimeout, when positive, is how long a pool must be idle
	// before periodic auto-cleanup may shrink it. Zero disables the gate.
	AutoCleanupTimeout time.Duration `yaml:"auto_cleanup_timeout"`
}

// Option customizes an ObjectPool at construction.
type Option func(*ObjectPool)

// WithLogger sets the logger. Warnings are always emitted, debug traces
// only when EnableDebugLogging is set.
func WithLogger(l *zap.Logger) Option {
	return func(p *ObjectPool) {
		if l != nil {
			p.log = l
		}
	}
}

// WithHierarchy lets the pool accept instances of descendant types.
// Without it only exact type matches are accepted.
func WithHierarchy(h Hierarchy) Option {
	return func(p *ObjectPool) {
		p.types = h
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *ObjectPool) {
		if now != nil {
			p.now = now
		}
	}
}

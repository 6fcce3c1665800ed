package manager

import (
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"
)

const (
	DefaultMaintenanceInterval = 500 * time.Millisecond
	DefaultHistoryCapacity     = 100
)

type Config struct {
	// if true, maintenance trims idle pools according to their hit rate.
	EnableAutoCleanup bool `yaml:"enable_auto_cleanup"`

	// if true, maintenance records statistics samples and checks for
	// memory growth and hit-rate drops.
	EnablePerformanceMonitoring bool `yaml:"enable_performance_monitoring"`

	// if true, maintenance logs every pool's counters.
	EnableDebugMode bool `yaml:"enable_debug_mode"`

	// how much tick time must accumulate between two maintenance passes.
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`

	// how many statistics samples are kept for trend analysis.
	HistoryCapacity int `yaml:"history_capacity"`

	// seeds every lazily created pool.
	DefaultPool pool.PoolConfig `yaml:"default_pool"`
}

// DefaultConfig enables auto-cleanup and monitoring, logs nothing extra and
// seeds pools with pool.DefaultPoolConfig.
func DefaultConfig() Config {
	return Config{
		EnableAutoCleanup:           true,
		EnablePerformanceMonitoring: true,
		MaintenanceInterval:         DefaultMaintenanceInterval,
		HistoryCapacity:             DefaultHistoryCapacity,
		DefaultPool:                 pool.DefaultPoolConfig(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaintenanceInterval <= 0 {
		c.MaintenanceInterval = DefaultMaintenanceInterval
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.DefaultPool == (pool.PoolConfig{}) {
		c.DefaultPool = pool.DefaultPoolConfig()
	}
	return c
}

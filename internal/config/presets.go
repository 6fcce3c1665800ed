package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"
)

var ErrUnknownPreset = errors.New("unknown pool preset")

var presets = map[string]func() (pool.PoolConfig, error){
	"high-throughput": func() (pool.PoolConfig, error) {
		// large warm free list, nothing trimmed below 50.
		return pool.NewPoolConfigBuilder().
			SetMinSize(50).
			SetMaxSize(1000).
			SetInitialSize(200).
			SetPriority(8).
			Build()
	},
	"memory-constrained": func() (pool.PoolConfig, error) {
		return pool.NewPoolConfigBuilder().
			SetMinSize(1).
			SetMaxSize(32).
			SetInitialSize(4).
			SetPriority(3).
			SetAutoCleanupTimeout(10 * time.Second).
			Build()
	},
	"low-latency": func() (pool.PoolConfig, error) {
		// everything prewarmed, never shrinks under the initial size.
		return pool.NewPoolConfigBuilder().
			SetMinSize(128).
			SetMaxSize(512).
			SetInitialSize(128).
			SetMonitoring(false).
			SetPriority(9).
			Build()
	},
	"batch": func() (pool.PoolConfig, error) {
		return pool.NewPoolConfigBuilder().
			SetMinSize(10).
			SetMaxSize(2000).
			SetInitialSize(100).
			SetPriority(4).
			SetAutoCleanupTimeout(30 * time.Second).
			Build()
	},
	"real-time": func() (pool.PoolConfig, error) {
		return pool.NewPoolConfigBuilder().
			SetMinSize(64).
			SetMaxSize(256).
			SetInitialSize(64).
			SetMonitoring(false).
			SetPriority(pool.MaxPriority).
			Build()
	},
	"balanced": func() (pool.PoolConfig, error) {
		return pool.DefaultPoolConfig(), nil
	},
}

// Preset returns the named pool configuration.
func Preset(name string) (pool.PoolConfig, error) {
	build, ok := presets[name]
	if !ok {
		return pool.PoolConfig{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return build()
}

// PresetNames lists the known presets in order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

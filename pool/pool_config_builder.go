package pool

import (
	"fmt"
	"time"
)

// poolConfigBuilder builds pool configurations starting from DefaultPoolConfig.
type poolConfigBuilder struct {
	config PoolConfig
}

// NewPoolConfigBuilder creates a new pool configuration builder with default settings.
func NewPoolConfigBuilder() *poolConfigBuilder {
	return &poolConfigBuilder{config: DefaultPoolConfig()}
}

// SetMinSize sets the floor kept by cleanup.
func (b *poolConfigBuilder) SetMinSize(n int) *poolConfigBuilder {
	b.config.MinSize = n
	return b
}

// SetMaxSize sets the maximum number of retained free instances.
func (b *poolConfigBuilder) SetMaxSize(n int) *poolConfigBuilder {
	b.config.MaxSize = n
	return b
}

// SetInitialSize sets the pre-warm target.
func (b *poolConfigBuilder) SetInitialSize(n int) *poolConfigBuilder {
	b.config.InitialSize = n
	return b
}

// SetDebugLogging enables or disables per-pool debug traces.
func (b *poolConfigBuilder) SetDebugLogging(enable bool) *poolConfigBuilder {
	b.config.EnableDebugLogging = enable
	return b
}

// SetMonitoring enables or disables memory accounting.
func (b *poolConfigBuilder) SetMonitoring(enable bool) *poolConfigBuilder {
	b.config.EnableMonitoring = enable
	return b
}

func (b *poolConfigBuilder) SetThreadSafety(enable bool) *poolConfigBuilder {
	b.config.EnableThreadSafety = enable
	return b
}

// SetCategory sets the grouping used by category queries.
func (b *poolConfigBuilder) SetCategory(category string) *poolConfigBuilder {
	b.config.Category = category
	return b
}

// SetPriority sets the priority, clamped to [MinPriority, MaxPriority].
func (b *poolConfigBuilder) SetPriority(priority int) *poolConfigBuilder {
	b.config.Priority = min(max(priority, MinPriority), MaxPriority)
	return b
}

// SetAutoCleanupTimeout sets the idle time required before auto-cleanup.
func (b *poolConfigBuilder) SetAutoCleanupTimeout(d time.Duration) *poolConfigBuilder {
	b.config.AutoCleanupTimeout = d
	return b
}

// Build validates and returns the configuration.
func (b *poolConfigBuilder) Build() (PoolConfig, error) {
	if b.config.Category == "" {
		b.config.Category = DefaultCategory
	}

	if err := b.config.Validate(); err != nil {
		return PoolConfig{}, fmt.Errorf("pool configuration validation failed: %w", err)
	}

	return b.config, nil
}

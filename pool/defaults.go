package pool

const (
	DefaultCategory = "Default"

	defaultMinSize     = 5
	defaultMaxSize     = 100
	defaultInitialSize = 10
	defaultPriority    = 5

	MinPriority = 0
	MaxPriority = 10
)

// DefaultPoolConfig returns the configuration applied to lazily created pools.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MinSize:          defaultMinSize,
		MaxSize:          defaultMaxSize,
		InitialSize:      defaultInitialSize,
		EnableMonitoring: true,
		Category:         DefaultCategory,
		Priority:         defaultPriority,
	}
}

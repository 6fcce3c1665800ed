package pool

import (
	"fmt"
)

// Validate checks the size invariants:
// - MinSize must be positive
// - MaxSize must be >= MinSize
// - InitialSize must be between 0 and MaxSize
// - Priority must be between MinPriority and MaxPriority
// Invalid configs are rejected, never clamped.
func (c PoolConfig) Validate() error {
	if c.MinSize <= 0 {
		return fmt.Errorf("%w: minSize must be greater than 0, got %d", ErrInvalidConfig, c.MinSize)
	}

	if c.MaxSize < c.MinSize {
		return fmt.Errorf("%w: maxSize (%d) must be >= minSize (%d)", ErrInvalidConfig, c.MaxSize, c.MinSize)
	}

	if c.InitialSize < 0 {
		return fmt.Errorf("%w: initialSize must be >= 0, got %d", ErrInvalidConfig, c.InitialSize)
	}

	if c.InitialSize > c.MaxSize {
		return fmt.Errorf("%w: initialSize (%d) must be <= maxSize (%d)", ErrInvalidConfig, c.InitialSize, c.MaxSize)
	}

	if c.Priority < MinPriority || c.Priority > MaxPriority {
		return fmt.Errorf("%w: priority must be between %d and %d, got %d", ErrInvalidConfig, MinPriority, MaxPriority, c.Priority)
	}

	if c.AutoCleanupTimeout < 0 {
		return fmt.Errorf("%w: autoCleanupTimeout must be >= 0, got %v", ErrInvalidConfig, c.AutoCleanupTimeout)
	}

	return nil
}

// IsValid is Validate without the reason.
func (c PoolConfig) IsValid() bool {
	return c.Validate() == nil
}

package manager

import (
	"github.com/AlexsanderHamir/gwizpool/pool"
)

// LifecycleAdapter runs when an instance moves between the free list and a
// caller. OnRelease runs under the owning pool's lock and must not call back
// into the pool or the manager.
type LifecycleAdapter interface {
	OnAcquire(obj pool.Object)
	OnRelease(obj pool.Object)
}

// DefaultLifecycle calls the pool.Poolable hooks when present, toggles the
// pool.Activatable flags and resets pool.Transformable instances on release.
// With DeepReset set it also calls pool.PoolAware.ResetForReuse on release.
type DefaultLifecycle struct {
	DeepReset bool
}

func (l DefaultLifecycle) OnAcquire(obj pool.Object) {
	if p, ok := obj.(pool.Poolable); ok {
		p.OnAcquire()
	}

	if a, ok := obj.(pool.Activatable); ok {
		setActive(a, true)
	}
}

func (l DefaultLifecycle) OnRelease(obj pool.Object) {
	if p, ok := obj.(pool.Poolable); ok {
		p.OnRelease()
	}

	if a, ok := obj.(pool.Activatable); ok {
		setActive(a, false)
	}

	if t, ok := obj.(pool.Transformable); ok {
		t.ResetTransform()
	}

	if l.DeepReset {
		if p, ok := obj.(pool.PoolAware); ok {
			p.ResetForReuse()
		}
	}
}

func setActive(a pool.Activatable, active bool) {
	a.SetTickEnabled(active)
	a.SetVisible(active)
	a.SetCollidable(active)
}

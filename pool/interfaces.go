package pool

// TypeID is the key a pool is registered under. Instances report their own
// concrete TypeID, which may be a descendant of the pool's declared type.
type TypeID string

// RootType is the universal ancestor every registered type descends from.
// Ancestor walks stop before reaching it.
const RootType TypeID = "Object"

// Object is anything that can live in a pool. Only pointers can be stored,
// anything else is rejected with ErrNotPointer. Pointers to zero-size types
// are rejected with ErrZeroSize since instances are tracked by address.
type Object interface {
	PoolType() TypeID
}

// Constructor creates new instances for a declared type.
type Constructor interface {
	Construct(t TypeID) (Object, error)
}

// Hierarchy answers parent lookups for the ancestor walk.
type Hierarchy interface {
	Parent(t TypeID) (TypeID, bool)
}

// TypeSystem is what the host application provides to the pooling layer.
type TypeSystem interface {
	Constructor
	Hierarchy
	Has(t TypeID) bool
}

// Poolable is implemented by entities that want to be told when they leave
// or re-enter the free list.
type Poolable interface {
	// OnAcquire runs once, right before the instance is handed to a caller.
	OnAcquire()

	// OnRelease runs once, right before the instance re-enters the free list.
	OnRelease()
}

// PoolAware exposes the optional auxiliary hooks.
type PoolAware interface {
	IsPooled() bool
	ResetForReuse()
	PoolIdentifier() string
}

// Activatable is the narrower capability of actor-like entities whose tick,
// visibility and collision are toggled on every transition.
type Activatable interface {
	SetTickEnabled(enabled bool)
	SetVisible(visible bool)
	SetCollidable(collidable bool)
	TickEnabled() bool
	Visible() bool
	Collidable() bool
}

// Transformable entities are moved back to a neutral origin on release.
type Transformable interface {
	ResetTransform()
}

// Sizer reports an instance's memory footprint. Instances that don't
// implement it are measured by the size of the value they point to.
type Sizer interface {
	FootprintBytes() int64
}

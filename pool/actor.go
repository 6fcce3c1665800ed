package pool

// Vector is a position in world space.
type Vector struct {
	X, Y, Z float64
}

// Actor is an embeddable base for actor-like entities. It implements
// Activatable and Transformable; the embedding type only adds PoolType.
// A freshly constructed Actor is inactive until acquired.
type Actor struct {
	tickEnabled bool
	visible     bool
	collidable  bool

	Location Vector
}

func (a *Actor) SetTickEnabled(enabled bool)   { a.tickEnabled = enabled }
func (a *Actor) SetVisible(visible bool)       { a.visible = visible }
func (a *Actor) SetCollidable(collidable bool) { a.collidable = collidable }
func (a *Actor) TickEnabled() bool             { return a.tickEnabled }
func (a *Actor) Visible() bool                 { return a.visible }
func (a *Actor) Collidable() bool              { return a.collidable }

// Active reports whether all three activity flags are on.
func (a *Actor) Active() bool {
	return a.tickEnabled && a.visible && a.collidable
}

// ResetTransform moves the actor back to the origin.
func (a *Actor) ResetTransform() {
	a.Location = Vector{}
}

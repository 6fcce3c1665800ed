package pool

import (
	"fmt"
	"sort"
	"sync"
)

// maxHierarchyDepth bounds ancestor walks over host-provided hierarchies.
const maxHierarchyDepth = 64

type typeEntry struct {
	parent TypeID
	ctor   func() Object
}

// TypeTable is a TypeSystem backed by an explicit registration table.
// A type must be registered after its parent, so the table never holds a cycle.
type TypeTable struct {
	mu      sync.RWMutex
	entries map[TypeID]typeEntry
}

// NewTypeTable creates an empty table. RootType is implicitly known.
func NewTypeTable() *TypeTable {
	return &TypeTable{entries: make(map[TypeID]typeEntry)}
}

// Register adds a type with its parent and constructor. An empty parent means
// RootType. A nil constructor registers an abstract type that can own a pool
// for its descendants but cannot construct instances itself.
func (t *TypeTable) Register(id, parent TypeID, ctor func() Object) error {
	if id == "" || id == RootType {
		return fmt.Errorf("%w: cannot register %q", ErrUnknownType, id)
	}
	if parent == "" {
		parent = RootType
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return fmt.Errorf("type %q is already registered", id)
	}
	if parent != RootType {
		if _, ok := t.entries[parent]; !ok {
			return fmt.Errorf("%w: parent %q of %q", ErrUnknownType, parent, id)
		}
	}

	t.entries[id] = typeEntry{parent: parent, ctor: ctor}
	return nil
}

// MustRegister is Register for static setup code.
func (t *TypeTable) MustRegister(id, parent TypeID, ctor func() Object) {
	if err := t.Register(id, parent, ctor); err != nil {
		panic(err)
	}
}

func (t *TypeTable) Has(id TypeID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[id]
	return ok
}

func (t *TypeTable) Parent(id TypeID) (TypeID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return "", false
	}
	return e.parent, true
}

func (t *TypeTable) Construct(id TypeID) (Object, error) {
	t.mu.RLock()
	e, ok := t.entries[id]
	t.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	if e.ctor == nil {
		return nil, fmt.Errorf("type %q is abstract", id)
	}
	return e.ctor(), nil
}

// Types lists every registered type, sorted.
func (t *TypeTable) Types() []TypeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]TypeID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ancestors returns the parent chain of t, nearest first, excluding t itself
// and RootType.
func Ancestors(h Hierarchy, t TypeID) []TypeID {
	if h == nil {
		return nil
	}

	var chain []TypeID
	current := t
	for range maxHierarchyDepth {
		parent, ok := h.Parent(current)
		if !ok || parent == "" || parent == RootType || parent == t {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain
}

// IsA reports whether t equals ancestor or descends from it.
func IsA(h Hierarchy, t, ancestor TypeID) bool {
	if t == ancestor {
		return true
	}
	if ancestor == RootType {
		return t != ""
	}
	for _, a := range Ancestors(h, t) {
		if a == ancestor {
			return true
		}
	}
	return false
}

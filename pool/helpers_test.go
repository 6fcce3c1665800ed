package pool_test

import (
	"errors"
	"testing"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/stretchr/testify/require"
)

const (
	projectileType pool.TypeID = "Projectile"
	rocketType     pool.TypeID = "Rocket"
	effectType     pool.TypeID = "Effect"
	markerType     pool.TypeID = "Marker"
)

type projectile struct {
	pool.Actor
	Damage int
}

func (p *projectile) PoolType() pool.TypeID { return projectileType }

type rocket struct {
	projectile
	Fuel float64
}

func (r *rocket) PoolType() pool.TypeID { return rocketType }

type effect struct {
	pool.Actor
	Lifetime float64
}

func (e *effect) PoolType() pool.TypeID { return effectType }

// sized reports a fixed footprint.
type sized struct {
	_ [64]byte
}

func (s *sized) PoolType() pool.TypeID { return projectileType }

func (s *sized) FootprintBytes() int64 { return 64 }

// marker has no fields, so every &marker{} may share an address.
type marker struct{}

func (m *marker) PoolType() pool.TypeID { return markerType }

type valueObject struct{}

func (valueObject) PoolType() pool.TypeID { return projectileType }

func newTypes(t testing.TB) *pool.TypeTable {
	t.Helper()

	types := pool.NewTypeTable()
	require.NoError(t, types.Register(projectileType, "", func() pool.Object { return &projectile{Damage: 10} }))
	require.NoError(t, types.Register(rocketType, projectileType, func() pool.Object { return &rocket{Fuel: 1} }))
	require.NoError(t, types.Register(effectType, "", func() pool.Object { return &effect{} }))
	return types
}

func newPool(t testing.TB, declared pool.TypeID, cfg pool.PoolConfig) *pool.ObjectPool {
	t.Helper()

	types := newTypes(t)
	p, err := pool.New(declared, cfg, types, pool.WithHierarchy(types))
	require.NoError(t, err)
	return p
}

func sizedConfig(t testing.TB, minSize, maxSize, initial int) pool.PoolConfig {
	t.Helper()

	cfg, err := pool.NewPoolConfigBuilder().
		SetMinSize(minSize).
		SetMaxSize(maxSize).
		SetInitialSize(initial).
		Build()
	require.NoError(t, err)
	return cfg
}

func acquireN(t testing.TB, p *pool.ObjectPool, n int) []pool.Object {
	t.Helper()

	objs := make([]pool.Object, 0, n)
	for range n {
		obj, err := p.Acquire()
		require.NoError(t, err)
		require.NotNil(t, obj)
		objs = append(objs, obj)
	}
	return objs
}

func requireConsistent(t testing.TB, p *pool.ObjectPool) {
	t.Helper()

	require.NoError(t, p.Validate())
	s := p.Statistics()
	require.Equal(t, s.CurrentPoolSize+s.ObjectsInUse, s.TotalObjects())
	require.LessOrEqual(t, s.TotalObjects(), s.TotalCreated)
}

var errExhausted = errors.New("allocator exhausted")

// failingConstructor succeeds `budget` times, then fails.
type failingConstructor struct {
	budget int
}

func (f *failingConstructor) Construct(pool.TypeID) (pool.Object, error) {
	if f.budget <= 0 {
		return nil, errExhausted
	}
	f.budget--
	return &projectile{}, nil
}

// constConstructor always returns the same instance.
type constConstructor struct {
	obj pool.Object
}

func (c constConstructor) Construct(pool.TypeID) (pool.Object, error) {
	return c.obj, nil
}

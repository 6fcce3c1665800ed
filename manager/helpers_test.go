package manager_test

import (
	"sync"
	"testing"
	"time"

	"github.com/AlexsanderHamir/gwizpool/manager"
	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/stretchr/testify/require"
)

const (
	projectileType pool.TypeID = "Projectile"
	rocketType     pool.TypeID = "Rocket"
	effectType     pool.TypeID = "Effect"
	weaponType     pool.TypeID = "Weapon"
)

type projectile struct {
	pool.Actor
	acquired int
	released int
	resets   int
}

func (p *projectile) PoolType() pool.TypeID { return projectileType }
func (p *projectile) OnAcquire()            { p.acquired++ }
func (p *projectile) OnRelease()            { p.released++ }
func (p *projectile) IsPooled() bool        { return true }
func (p *projectile) ResetForReuse()        { p.resets++ }
func (p *projectile) PoolIdentifier() string {
	return string(projectileType)
}

type rocket struct {
	projectile
}

func (r *rocket) PoolType() pool.TypeID { return rocketType }

// effect only has the activity toggles.
type effect struct {
	pool.Actor
}

func (e *effect) PoolType() pool.TypeID { return effectType }

func newTypes(t testing.TB) *pool.TypeTable {
	t.Helper()

	types := pool.NewTypeTable()
	require.NoError(t, types.Register(weaponType, "", nil))
	require.NoError(t, types.Register(projectileType, weaponType, func() pool.Object { return &projectile{} }))
	require.NoError(t, types.Register(rocketType, projectileType, func() pool.Object { return &rocket{} }))
	require.NoError(t, types.Register(effectType, "", func() pool.Object { return &effect{} }))
	return types
}

func newManager(t testing.TB, cfg manager.Config, opts ...manager.Option) *manager.Manager {
	t.Helper()

	m, err := manager.New(newTypes(t), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
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

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordedEvent struct {
	eventType string
	system    string
	payload   map[string]any
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recordingSink) CollectEvent(eventType, systemName string, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{eventType: eventType, system: systemName, payload: payload})
}

func (s *recordingSink) ofType(eventType string) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []recordedEvent
	for _, e := range s.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// churn acquires n instances of t and releases them all.
func churn(t testing.TB, m *manager.Manager, typ pool.TypeID, n int) {
	t.Helper()

	objs := make([]pool.Object, 0, n)
	for range n {
		obj, err := m.AcquireObject(typ)
		require.NoError(t, err)
		objs = append(objs, obj)
	}
	for _, obj := range objs {
		require.NoError(t, m.ReleaseObject(obj))
	}
}

package pool_test

import (
	"sync"
	"testing"
	"time"

	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBasicPoolOperations(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	obj, err := p.Acquire()
	require.NoError(t, err)
	require.IsType(t, &projectile{}, obj)
	assert.Equal(t, 1, p.InUse())
	assert.Equal(t, 0, p.Size())

	require.NoError(t, p.Release(obj))
	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, 1, p.Size())

	again, err := p.Acquire()
	require.NoError(t, err)
	assert.Same(t, obj, again)

	s := p.Statistics()
	assert.Equal(t, 1, s.PoolHits)
	assert.Equal(t, 1, s.PoolMisses)
	assert.Equal(t, 1, s.TotalCreated)
	requireConsistent(t, p)
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())
	_, err := p.PreWarm(3)
	require.NoError(t, err)

	before := p.Statistics()

	obj, err := p.Acquire()
	require.NoError(t, err)
	require.NoError(t, p.Release(obj))

	after := p.Statistics()
	assert.Equal(t, before.CurrentPoolSize, after.CurrentPoolSize)
	assert.Equal(t, before.ObjectsInUse, after.ObjectsInUse)
	assert.Equal(t, before.Accesses()+1, after.Accesses())
	requireConsistent(t, p)
}

func TestHitRate(t *testing.T) {
	t.Run("warm pool", func(t *testing.T) {
		p := newPool(t, projectileType, sizedConfig(t, 1, 50, 20))
		_, err := p.PreWarm(20)
		require.NoError(t, err)

		acquireN(t, p, 20)
		assert.Equal(t, 1.0, p.HitRate())
	})

	t.Run("cold pool", func(t *testing.T) {
		p := newPool(t, projectileType, sizedConfig(t, 1, 50, 0))

		acquireN(t, p, 20)
		assert.Equal(t, 0.0, p.HitRate())
	})

	t.Run("no accesses", func(t *testing.T) {
		p := newPool(t, projectileType, pool.DefaultPoolConfig())
		assert.Equal(t, 0.0, p.HitRate())
	})
}

func TestPreWarm(t *testing.T) {
	tests := []struct {
		name   string
		target int
		want   int
	}{
		{name: "below max", target: 7, want: 7},
		{name: "capped at max", target: 50, want: 20},
		{name: "zero", target: 0, want: 0},
		{name: "negative", target: -3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPool(t, projectileType, sizedConfig(t, 5, 20, 10))

			created, err := p.PreWarm(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, created)
			assert.Equal(t, tt.want, p.Size())

			s := p.Statistics()
			assert.Equal(t, 0, s.Accesses())
			assert.Equal(t, tt.want, s.TotalCreated)
			requireConsistent(t, p)
		})
	}
}

func TestPreWarmTopsUp(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 1, 20, 10))

	_, err := p.PreWarm(4)
	require.NoError(t, err)

	created, err := p.PreWarm(10)
	require.NoError(t, err)
	assert.Equal(t, 6, created)
	assert.Equal(t, 10, p.Size())
}

func TestPrewarmAcquireReleaseScenario(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 20, 10))

	_, err := p.PreWarm(p.Config().InitialSize)
	require.NoError(t, err)
	require.Equal(t, 10, p.Size())

	objs := acquireN(t, p, 15)

	s := p.Statistics()
	assert.Equal(t, 10, s.PoolHits)
	assert.Equal(t, 5, s.PoolMisses)
	assert.Equal(t, 0, s.CurrentPoolSize)
	assert.Equal(t, 15, s.ObjectsInUse)
	assert.Equal(t, 15, s.PeakConcurrentUsage)

	for _, obj := range objs {
		require.NoError(t, p.Release(obj))
	}

	s = p.Statistics()
	assert.Equal(t, 15, s.CurrentPoolSize)
	assert.Equal(t, 0, s.ObjectsInUse)
	assert.InDelta(t, 10.0/15.0, s.HitRate, 1e-9)
	requireConsistent(t, p)
}

func TestReleaseBeyondMaxDrops(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 1, 2, 0))

	objs := acquireN(t, p, 3)
	for _, obj := range objs {
		require.NoError(t, p.Release(obj))
	}

	assert.Equal(t, 2, p.Size())
	assert.Equal(t, 0, p.InUse())
	assert.True(t, p.IsFull())
	assert.False(t, p.IsAvailable(objs[2]))
	requireConsistent(t, p)
}

func TestAddExistingRespectsMax(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 1, 10, 0))

	rejected := 0
	for range 12 {
		err := p.AddExisting(&projectile{})
		if err != nil {
			require.ErrorIs(t, err, pool.ErrPoolFull)
			rejected++
		}
	}

	assert.Equal(t, 2, rejected)
	assert.Equal(t, 10, p.Size())
	assert.True(t, p.IsFull())
	requireConsistent(t, p)
}

func TestAddExistingRejections(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	require.ErrorIs(t, p.AddExisting(nil), pool.ErrNilObject)

	var nilProjectile *projectile
	require.ErrorIs(t, p.AddExisting(nilProjectile), pool.ErrNilObject)

	require.ErrorIs(t, p.AddExisting(valueObject{}), pool.ErrNotPointer)
	require.ErrorIs(t, p.AddExisting(&effect{}), pool.ErrTypeMismatch)

	obj := &projectile{}
	require.NoError(t, p.AddExisting(obj))
	require.ErrorIs(t, p.AddExisting(obj), pool.ErrAlreadyPooled)

	inUse, err := p.Acquire()
	require.NoError(t, err)
	require.ErrorIs(t, p.AddExisting(inUse), pool.ErrAlreadyPooled)

	assert.Equal(t, 0, p.Size())
	requireConsistent(t, p)
}

func TestSubtypeSharesParentPool(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	r := &rocket{}
	require.NoError(t, p.AddExisting(r))

	obj, err := p.Acquire()
	require.NoError(t, err)
	assert.Same(t, r, obj)
	require.NoError(t, p.Release(obj))

	// Parent instances are not accepted by a child pool.
	child := newPool(t, rocketType, pool.DefaultPoolConfig())
	require.ErrorIs(t, child.AddExisting(&projectile{}), pool.ErrTypeMismatch)
}

func TestWithoutHierarchyOnlyExactMatch(t *testing.T) {
	p, err := pool.New(projectileType, pool.DefaultPoolConfig(), newTypes(t))
	require.NoError(t, err)

	require.ErrorIs(t, p.AddExisting(&rocket{}), pool.ErrTypeMismatch)
	require.NoError(t, p.AddExisting(&projectile{}))
}

func TestReleaseRejections(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())
	_, err := p.PreWarm(2)
	require.NoError(t, err)

	before := p.Statistics()

	require.ErrorIs(t, p.Release(nil), pool.ErrNilObject)
	require.ErrorIs(t, p.Release(valueObject{}), pool.ErrNotPointer)
	require.ErrorIs(t, p.Release(&effect{}), pool.ErrTypeMismatch)
	require.ErrorIs(t, p.Release(&projectile{}), pool.ErrNotInUse)

	after := p.Statistics()
	assert.Equal(t, before.CurrentPoolSize, after.CurrentPoolSize)
	assert.Equal(t, before.ObjectsInUse, after.ObjectsInUse)
	requireConsistent(t, p)
}

func TestDoubleReleaseIsRejected(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	obj, err := p.Acquire()
	require.NoError(t, err)
	require.NoError(t, p.Release(obj))

	require.ErrorIs(t, p.Release(obj), pool.ErrAlreadyPooled)
	assert.Equal(t, 1, p.Size())
	requireConsistent(t, p)
}

func TestReleaseWithHook(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	obj, err := p.Acquire()
	require.NoError(t, err)

	var seen []pool.Object
	hook := func(o pool.Object) { seen = append(seen, o) }

	require.NoError(t, p.ReleaseWith(obj, hook))
	require.ErrorIs(t, p.ReleaseWith(obj, hook), pool.ErrAlreadyPooled)

	assert.Equal(t, []pool.Object{obj}, seen)
}

func TestRemoveFromPool(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())

	a, b := &projectile{}, &projectile{}
	require.NoError(t, p.AddExisting(a))
	require.NoError(t, p.AddExisting(b))

	require.NoError(t, p.RemoveFromPool(a))
	require.ErrorIs(t, p.RemoveFromPool(a), pool.ErrNotInPool)
	require.ErrorIs(t, p.RemoveFromPool(&effect{}), pool.ErrTypeMismatch)
	require.ErrorIs(t, p.RemoveFromPool(nil), pool.ErrNilObject)

	assert.False(t, p.IsAvailable(a))
	assert.True(t, p.IsAvailable(b))
	assert.Equal(t, 1, p.Size())
	requireConsistent(t, p)
}

func TestClearKeepsInUse(t *testing.T) {
	p := newPool(t, projectileType, pool.DefaultPoolConfig())
	_, err := p.PreWarm(5)
	require.NoError(t, err)

	held := acquireN(t, p, 2)

	assert.Equal(t, 3, p.Clear())
	assert.True(t, p.IsEmpty())
	assert.Equal(t, 2, p.InUse())

	for _, obj := range held {
		require.NoError(t, p.Release(obj))
	}
	assert.Equal(t, 2, p.Size())
	requireConsistent(t, p)
}

func TestShrinkToMinimum(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 50, 0))

	_, err := p.PreWarm(20)
	require.NoError(t, err)

	assert.Equal(t, 15, p.ShrinkToMinimum())
	assert.Equal(t, 5, p.Size())
	assert.Equal(t, 0, p.ShrinkToMinimum())

	s := p.Statistics()
	assert.Equal(t, 1, s.CleanupCount)
	requireConsistent(t, p)
}

func TestShrinkBelowMinimumIsNoop(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 50, 0))
	_, err := p.PreWarm(3)
	require.NoError(t, err)

	assert.Equal(t, 0, p.ShrinkToMinimum())
	assert.Equal(t, 3, p.Size())
}

func TestTrimNeverGoesBelowMinimum(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 50, 0))
	_, err := p.PreWarm(20)
	require.NoError(t, err)

	assert.Equal(t, 7, p.Trim(7))
	assert.Equal(t, 13, p.Size())
	assert.Equal(t, 8, p.Trim(100))
	assert.Equal(t, 5, p.Size())
	assert.Equal(t, 0, p.Trim(1))
	assert.Equal(t, 0, p.Trim(-1))
	requireConsistent(t, p)
}

func TestSetConfig(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 50, 10))
	_, err := p.PreWarm(30)
	require.NoError(t, err)

	before := p.Config()
	invalid := before
	invalid.MinSize, invalid.MaxSize = 100, 50

	require.ErrorIs(t, p.SetConfig(invalid), pool.ErrInvalidConfig)
	assert.Equal(t, before, p.Config())
	assert.Equal(t, 30, p.Size())

	smaller := before
	smaller.MaxSize = 12
	require.NoError(t, p.SetConfig(smaller))
	assert.Equal(t, 12, p.Size())
	assert.True(t, p.IsFull())
	requireConsistent(t, p)
}

func TestCategoryAndPriority(t *testing.T) {
	cfg, err := pool.NewPoolConfigBuilder().
		SetCategory("Projectiles").
		SetPriority(8).
		Build()
	require.NoError(t, err)

	p := newPool(t, projectileType, cfg)
	assert.Equal(t, "Projectiles", p.Category())
	assert.Equal(t, 8, p.Priority())
	assert.Equal(t, "Projectiles", p.Statistics().Category)
}

func TestAcquireWithoutDeclaredType(t *testing.T) {
	p := newPool(t, "", pool.DefaultPoolConfig())

	obj, err := p.Acquire()
	require.ErrorIs(t, err, pool.ErrNoDeclaredType)
	assert.Nil(t, obj)

	_, err = p.PreWarm(3)
	require.ErrorIs(t, err, pool.ErrNoDeclaredType)
	require.ErrorIs(t, p.AddExisting(&projectile{}), pool.ErrTypeMismatch)
}

func TestAllocationFailure(t *testing.T) {
	p, err := pool.New(projectileType, pool.DefaultPoolConfig(), &failingConstructor{budget: 2})
	require.NoError(t, err)

	created, err := p.PreWarm(5)
	require.ErrorIs(t, err, pool.ErrAllocation)
	require.ErrorIs(t, err, errExhausted)
	assert.Equal(t, 2, created)

	acquireN(t, p, 2)

	obj, err := p.Acquire()
	require.ErrorIs(t, err, pool.ErrAllocation)
	assert.Nil(t, obj)

	s := p.Statistics()
	assert.Equal(t, 2, s.PoolHits)
	assert.Equal(t, 0, s.PoolMisses)
	requireConsistent(t, p)
}

func TestConstructorReturningTrackedInstance(t *testing.T) {
	p, err := pool.New(projectileType, pool.DefaultPoolConfig(), constConstructor{obj: &projectile{}})
	require.NoError(t, err)

	_, err = p.Acquire()
	require.NoError(t, err)

	_, err = p.Acquire()
	require.ErrorIs(t, err, pool.ErrAllocation)
	assert.Equal(t, 1, p.InUse())
}

func TestZeroSizeTypeIsRejected(t *testing.T) {
	types := pool.NewTypeTable()
	types.MustRegister(markerType, "", func() pool.Object { return &marker{} })

	p, err := pool.New(markerType, pool.DefaultPoolConfig(), types)
	require.NoError(t, err)

	for range 2 {
		obj, err := p.Acquire()
		require.ErrorIs(t, err, pool.ErrZeroSize)
		require.ErrorIs(t, err, pool.ErrAllocation)
		assert.Nil(t, obj)
	}
	assert.Equal(t, 0, p.InUse())

	created, err := p.PreWarm(3)
	require.ErrorIs(t, err, pool.ErrZeroSize)
	assert.Equal(t, 0, created)

	require.ErrorIs(t, p.AddExisting(&marker{}), pool.ErrZeroSize)
	assert.True(t, p.IsEmpty())

	s := p.Statistics()
	assert.Equal(t, 0, s.TotalCreated)
	requireConsistent(t, p)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := pool.New(projectileType, pool.PoolConfig{MinSize: 0, MaxSize: 10}, newTypes(t))
	require.ErrorIs(t, err, pool.ErrInvalidConfig)

	_, err = pool.New(projectileType, pool.DefaultPoolConfig(), nil)
	require.Error(t, err)
}

func TestMemoryUsage(t *testing.T) {
	t.Run("monitoring enabled", func(t *testing.T) {
		p, err := pool.New(projectileType, pool.DefaultPoolConfig(), constConstructor{})
		require.NoError(t, err)

		require.NoError(t, p.AddExisting(&sized{}))
		require.NoError(t, p.AddExisting(&sized{}))
		assert.Equal(t, int64(128), p.MemoryUsage())

		_, err = p.Acquire()
		require.NoError(t, err)
		assert.Equal(t, int64(128), p.MemoryUsage())
	})

	t.Run("monitoring disabled", func(t *testing.T) {
		cfg, err := pool.NewPoolConfigBuilder().SetMonitoring(false).Build()
		require.NoError(t, err)

		p, err := pool.New(projectileType, cfg, constConstructor{})
		require.NoError(t, err)

		require.NoError(t, p.AddExisting(&sized{}))
		assert.Equal(t, int64(0), p.MemoryUsage())
	})

	t.Run("falls back to value size", func(t *testing.T) {
		p := newPool(t, projectileType, pool.DefaultPoolConfig())
		_, err := p.PreWarm(1)
		require.NoError(t, err)
		assert.Positive(t, p.MemoryUsage())
	})
}

func TestIdleFor(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	types := newTypes(t)
	p, err := pool.New(projectileType, pool.DefaultPoolConfig(), types, pool.WithClock(clock))
	require.NoError(t, err)

	now = now.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, p.IdleFor(now))

	obj, err := p.Acquire()
	require.NoError(t, err)
	now = now.Add(time.Second)
	assert.Equal(t, time.Second, p.IdleFor(now))

	require.NoError(t, p.Release(obj))
	assert.Equal(t, time.Duration(0), p.IdleFor(now))
}

func TestConcurrentAcquireRelease(t *testing.T) {
	p := newPool(t, projectileType, sizedConfig(t, 5, 64, 10))
	_, err := p.PreWarm(10)
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		owned sync.Map
	)

	workers := 20
	iterations := 1000

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				obj, err := p.Acquire()
				if !assert.NoError(t, err) {
					return
				}

				if _, dup := owned.LoadOrStore(obj, struct{}{}); dup {
					t.Errorf("object handed to two callers at once")
					return
				}

				assert.True(t, p.IsInUse(obj))
				assert.False(t, p.IsAvailable(obj))
				owned.Delete(obj)

				assert.NoError(t, p.Release(obj))
			}
		}()
	}

	wg.Wait()

	s := p.Statistics()
	assert.Equal(t, 0, s.ObjectsInUse)
	assert.Equal(t, workers*iterations, s.Accesses())
	assert.LessOrEqual(t, s.PeakConcurrentUsage, workers)
	requireConsistent(t, p)
}

func TestLogDebugInfo(t *testing.T) {
	for _, debug := range []bool{true, false} {
		core, logs := observer.New(zapcore.DebugLevel)

		cfg, err := pool.NewPoolConfigBuilder().
			SetMinSize(1).
			SetMaxSize(10).
			SetInitialSize(3).
			SetDebugLogging(debug).
			Build()
		require.NoError(t, err)

		types := newTypes(t)
		p, err := pool.New(projectileType, cfg, types, pool.WithLogger(zap.New(core)))
		require.NoError(t, err)
		_, err = p.PreWarm(3)
		require.NoError(t, err)
		acquireN(t, p, 1)

		p.LogDebugInfo()

		dumped := logs.FilterMessage("pool debug info")
		if !debug {
			assert.Equal(t, 0, dumped.Len())
			continue
		}
		require.Equal(t, 1, dumped.Len())
		fields := dumped.All()[0].ContextMap()
		assert.EqualValues(t, 2, fields["pool_size"])
		assert.EqualValues(t, 1, fields["in_use"])
		assert.EqualValues(t, 1, fields["hits"])
	}
}

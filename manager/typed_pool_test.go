package manager_test

import (
	"testing"

	"github.com/AlexsanderHamir/gwizpool/manager"
	"github.com/AlexsanderHamir/gwizpool/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedPool(t *testing.T) {
	m := newManager(t, manager.DefaultConfig())
	projectiles := manager.NewTypedPool[*projectile](m, projectileType)

	assert.Equal(t, projectileType, projectiles.Type())
	require.NoError(t, projectiles.Configure(sizedConfig(t, 1, 8, 0)))

	p, err := projectiles.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, p.acquired)

	require.NoError(t, projectiles.Release(p))
	assert.Equal(t, 1, p.released)

	underlying, err := projectiles.Pool()
	require.NoError(t, err)
	assert.Equal(t, 1, underlying.Size())
	assert.Equal(t, 8, underlying.Config().MaxSize)
}

func TestTypedPoolMismatch(t *testing.T) {
	m := newManager(t, manager.DefaultConfig())

	// the effect pool hands out *effect, not *projectile.
	wrong := manager.NewTypedPool[*projectile](m, effectType)

	obj, err := wrong.Acquire()
	require.ErrorIs(t, err, pool.ErrTypeMismatch)
	assert.Nil(t, obj)

	p, err := wrong.Pool()
	require.NoError(t, err)
	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, 1, p.Size())
}

func TestTypedPoolUnknownType(t *testing.T) {
	m := newManager(t, manager.DefaultConfig())

	_, err := manager.NewTypedPool[*projectile](m, "Missing").Acquire()
	require.ErrorIs(t, err, manager.ErrInvalidType)
}

package main

import (
	"github.com/AlexsanderHamir/gwizpool/pool"
)

const (
	bulletType pool.TypeID = "Bullet"
	rocketType pool.TypeID = "Rocket"
	sparkType  pool.TypeID = "Spark"
)

type bullet struct {
	pool.Actor

	Damage   int
	Velocity pool.Vector
}

func (b *bullet) PoolType() pool.TypeID { return bulletType }

func (b *bullet) OnAcquire() {}

func (b *bullet) OnRelease() {
	b.Damage = 0
	b.Velocity = pool.Vector{}
}

type rocket struct {
	bullet

	Fuel float64
}

func (r *rocket) PoolType() pool.TypeID { return rocketType }

func (r *rocket) OnRelease() {
	r.bullet.OnRelease()
	r.Fuel = 0
}

type spark struct {
	pool.Actor

	Lifetime int
}

func (s *spark) PoolType() pool.TypeID { return sparkType }

func newTypes() *pool.TypeTable {
	types := pool.NewTypeTable()
	types.MustRegister(bulletType, "", func() pool.Object { return &bullet{} })
	types.MustRegister(rocketType, bulletType, func() pool.Object { return &rocket{} })
	types.MustRegister(sparkType, "", func() pool.Object { return &spark{} })
	return types
}

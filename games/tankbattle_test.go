package games

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRayHits(t *testing.T) {
	shot := tankShot{From: Vec{X: 0, Y: 0}, Angle: 0}

	assert.True(t, rayHits(shot, Vec{X: 100, Y: 0}))
	assert.True(t, rayHits(shot, Vec{X: 100, Y: tankHitR - 1}), "grazing within the hit radius counts")
	assert.False(t, rayHits(shot, Vec{X: 100, Y: tankHitR + 1}))
	assert.False(t, rayHits(shot, Vec{X: -100, Y: 0}), "targets behind the muzzle are safe")
	assert.False(t, rayHits(shot, Vec{X: tankShotMaxR + 1, Y: 0}), "shots have a maximum range")
}

func TestTankBattleShotTakesLives(t *testing.T) {
	g := NewTankBattle(nil, false, 1)

	// Tank 1 starts aimed straight at tank 2 across the arena.
	g.Shoot()
	assert.Equal(t, tankLives-1, g.Lives(2))

	g.Move(g.TankPos(1).X, g.TankPos(1).Y, math.Pi/2) // aim away
	g.Shoot()
	assert.Equal(t, tankLives-1, g.Lives(2), "a shot off the ray must miss")
}

func TestTankBattleOnlineShotConverges(t *testing.T) {
	p1, p2 := &fakeProxy{}, &fakeProxy{}
	wire(p1, p2)
	g1 := NewTankBattle(p1, true, 1)
	g2 := NewTankBattle(p2, true, 2)

	g1.Move(300, 200, 1.0)
	assert.Equal(t, Vec{X: 300, Y: 200}, g2.TankPos(1), "moves mirror position and heading")

	g2.Shoot() // tank 2 starts aimed at tank 1's spawn, which tank 1 left
	assert.Equal(t, g1.Lives(1), g2.Lives(1), "both sides resolve the shot with the same rule")

	// Reaim at the new position and fire until the match ends.
	dx := 300.0 - g2.TankPos(2).X
	dy := 200.0 - g2.TankPos(2).Y
	g2.Move(g2.TankPos(2).X, g2.TankPos(2).Y, math.Atan2(dy, dx))

	for i := 0; i < tankLives; i++ {
		g2.Shoot()
	}

	over, winner := g1.Result()
	require.True(t, over)
	assert.Equal(t, 2, winner)
	over, winner = g2.Result()
	require.True(t, over)
	assert.Equal(t, 2, winner)

	require.Len(t, p1.sentGameOvers(), 1, "slot 1 reports the result even when it lost")
	assert.Equal(t, "2", p1.sentGameOvers()[0].WinnerID)
	assert.Empty(t, p2.sentGameOvers())
}

func TestTankBattleShotsAfterGameOverIgnored(t *testing.T) {
	g := NewTankBattle(nil, false, 1)

	for i := 0; i < tankLives; i++ {
		g.Shoot()
	}
	over, winner := g.Result()
	require.True(t, over)
	assert.Equal(t, 1, winner)

	g.Shoot()
	assert.Equal(t, 0, g.Lives(2), "lives do not go negative after the game ends")
}

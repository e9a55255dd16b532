package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect4GravityStacksBottomUp(t *testing.T) {
	g := NewConnect4(nil, false, 1)

	require.NoError(t, g.Drop(3))
	require.NoError(t, g.Drop(3))
	require.NoError(t, g.Drop(3))

	assert.Equal(t, 1, g.Cell(5, 3))
	assert.Equal(t, 2, g.Cell(4, 3))
	assert.Equal(t, 1, g.Cell(3, 3))
}

func TestConnect4RejectsInvalidDrops(t *testing.T) {
	g := NewConnect4(nil, false, 1)

	assert.ErrorIs(t, g.Drop(-1), ErrInvalidMove)
	assert.ErrorIs(t, g.Drop(7), ErrInvalidMove)

	for i := 0; i < connect4Rows; i++ {
		require.NoError(t, g.Drop(0))
	}
	assert.ErrorIs(t, g.Drop(0), ErrInvalidMove, "a full column rejects further drops")
}

func TestConnect4OnlineVerticalWin(t *testing.T) {
	p1, p2 := &fakeProxy{}, &fakeProxy{}
	wire(p1, p2)
	g1 := NewConnect4(p1, true, 1)
	g2 := NewConnect4(p2, true, 2)

	assert.ErrorIs(t, g2.Drop(0), ErrNotYourTurn)

	for i := 0; i < 3; i++ {
		require.NoError(t, g1.Drop(0))
		require.NoError(t, g2.Drop(1))
	}
	require.NoError(t, g1.Drop(0)) // four in column 0

	over, winner := g1.Result()
	assert.True(t, over)
	assert.Equal(t, 1, winner)
	over, winner = g2.Result()
	assert.True(t, over, "the relayed drop must finish the game on both boards")
	assert.Equal(t, 1, winner)

	require.Len(t, p1.sentGameOvers(), 1)
	assert.Equal(t, "1", p1.sentGameOvers()[0].WinnerID)
	assert.Empty(t, p2.sentGameOvers())
}

func TestConnect4DiagonalWin(t *testing.T) {
	g := NewConnect4(nil, false, 1)

	// Player 1 builds the rising diagonal (5,0) (4,1) (3,2) (2,3); player 2's
	// drops supply the stairs underneath.
	seq := []int{0, 1, 1, 2, 2, 3, 2, 3, 3, 5, 3}
	for _, col := range seq {
		require.NoError(t, g.Drop(col))
	}

	over, winner := g.Result()
	assert.True(t, over)
	assert.Equal(t, 1, winner)
}

package games

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicTacToePair() (*TicTacToe, *TicTacToe, *fakeProxy, *fakeProxy) {
	p1, p2 := &fakeProxy{}, &fakeProxy{}
	wire(p1, p2)
	g1 := NewTicTacToe(p1, true, 1)
	g2 := NewTicTacToe(p2, true, 2)
	return g1, g2, p1, p2
}

func TestTicTacToeOnlineBoardsConverge(t *testing.T) {
	g1, g2, _, _ := newTicTacToePair()

	require.NoError(t, g1.Play(0, 0))
	assert.Equal(t, 1, g2.Cell(0, 0), "the relayed move must land on the opponent's board")
	assert.Equal(t, 2, g2.CurrentPlayer())

	require.NoError(t, g2.Play(1, 1))
	assert.Equal(t, 2, g1.Cell(1, 1))
	assert.Equal(t, 1, g1.CurrentPlayer())
}

func TestTicTacToeTurnGate(t *testing.T) {
	g1, g2, _, _ := newTicTacToePair()

	assert.ErrorIs(t, g2.Play(0, 0), ErrNotYourTurn, "slot 1 always moves first")
	require.NoError(t, g1.Play(0, 0))
	assert.ErrorIs(t, g1.Play(0, 1), ErrNotYourTurn)
}

func TestTicTacToeRejectsInvalidMoves(t *testing.T) {
	g1, g2, _, _ := newTicTacToePair()

	assert.ErrorIs(t, g1.Play(3, 0), ErrInvalidMove)
	require.NoError(t, g1.Play(0, 0))
	assert.ErrorIs(t, g2.Play(0, 0), ErrInvalidMove, "a taken cell cannot be replayed")
}

func TestTicTacToeWinnerReportsGameOver(t *testing.T) {
	g1, g2, p1, p2 := newTicTacToePair()

	require.NoError(t, g1.Play(0, 0))
	require.NoError(t, g2.Play(1, 0))
	require.NoError(t, g1.Play(0, 1))
	require.NoError(t, g2.Play(1, 1))
	require.NoError(t, g1.Play(0, 2)) // top row

	over, winner := g1.Result()
	assert.True(t, over)
	assert.Equal(t, 1, winner)
	over, winner = g2.Result()
	assert.True(t, over, "the loser's board must also see the win")
	assert.Equal(t, 1, winner)

	require.Len(t, p1.sentGameOvers(), 1, "only the side that made the winning move reports it")
	assert.Equal(t, "1", p1.sentGameOvers()[0].WinnerID)
	assert.Empty(t, p2.sentGameOvers())

	assert.ErrorIs(t, g1.Play(2, 2), ErrGameOver)
}

func TestTicTacToeOfflineDraw(t *testing.T) {
	g := NewTicTacToe(nil, false, 1)

	// X O X / X O O / O X X leaves no line.
	moves := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 1}, {1, 0}, {1, 2}, {2, 1}, {2, 0}, {2, 2}}
	for _, mv := range moves {
		require.NoError(t, g.Play(mv[0], mv[1]))
	}

	over, winner := g.Result()
	assert.True(t, over)
	assert.Equal(t, -1, winner)
}

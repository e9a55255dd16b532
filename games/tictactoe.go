package games

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

// TicTacToe is the 3x3 grid game. Online play is turn-gated on the client:
// a player may only act when the locally tracked current player equals its
// own slot. Cells hold 0 (empty) or the slot number of the player who took
// them; slot 1 plays X and always moves first.
type TicTacToe struct {
	proxy  Proxy
	online bool
	player int

	mu      sync.Mutex
	board   [3][3]int
	current int
	winner  int // 0 while running, -1 on a draw
	over    bool
}

type ticTacToeMove struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewTicTacToe(proxy Proxy, online bool, playerNumber int) *TicTacToe {
	g := &TicTacToe{
		proxy:   proxy,
		online:  online,
		player:  playerNumber,
		current: 1,
	}
	if online && proxy != nil {
		proxy.OnOpponentAction(g.HandleOpponentAction)
	}
	return g
}

// HandleOpponentAction applies a relayed opponent move with the same rules
// used for local input, so both boards converge as long as messages arrive
// in order. It is registered on the proxy at construction; callers that
// install their own callback can chain to it.
func (g *TicTacToe) HandleOpponentAction(action protocol.OpponentAction) {
	if action.Action != "move" {
		return
	}
	var mv ticTacToeMove
	if err := json.Unmarshal(action.ActionData, &mv); err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over || g.current == g.player {
		return
	}
	g.apply(mv.Row, mv.Col)
}

// Play applies a local move and mirrors it to the opponent. The move is
// applied optimistically; there is no server confirmation to wait for.
func (g *TicTacToe) Play(row, col int) error {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return ErrGameOver
	}
	if g.online && g.current != g.player {
		g.mu.Unlock()
		return ErrNotYourTurn
	}
	if err := g.apply(row, col); err != nil {
		g.mu.Unlock()
		return err
	}
	over, winner := g.over, g.winner
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		g.proxy.SendAction("move", ticTacToeMove{Row: row, Col: col})
		if over && winner > 0 {
			g.proxy.SendGameOver(strconv.Itoa(winner), 1)
		}
	}
	return nil
}

// apply mutates the board as the current player. Caller holds the lock.
func (g *TicTacToe) apply(row, col int) error {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return ErrInvalidMove
	}
	if g.board[row][col] != 0 {
		return ErrInvalidMove
	}
	g.board[row][col] = g.current

	if g.lineThrough(row, col) {
		g.over = true
		g.winner = g.current
		return nil
	}
	if g.full() {
		g.over = true
		g.winner = -1
		return nil
	}
	g.current = otherPlayer(g.current)
	return nil
}

func (g *TicTacToe) lineThrough(row, col int) bool {
	p := g.board[row][col]
	if g.board[row][0] == p && g.board[row][1] == p && g.board[row][2] == p {
		return true
	}
	if g.board[0][col] == p && g.board[1][col] == p && g.board[2][col] == p {
		return true
	}
	if row == col && g.board[0][0] == p && g.board[1][1] == p && g.board[2][2] == p {
		return true
	}
	if row+col == 2 && g.board[0][2] == p && g.board[1][1] == p && g.board[2][0] == p {
		return true
	}
	return false
}

func (g *TicTacToe) full() bool {
	for _, row := range g.board {
		for _, cell := range row {
			if cell == 0 {
				return false
			}
		}
	}
	return true
}

// Cell returns the owner of a cell: 0, 1 or 2.
func (g *TicTacToe) Cell(row, col int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board[row][col]
}

// CurrentPlayer returns the slot whose turn it is.
func (g *TicTacToe) CurrentPlayer() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Result reports whether the game is over and who won (-1 for a draw).
func (g *TicTacToe) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

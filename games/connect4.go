package games

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

const (
	connect4Rows = 6
	connect4Cols = 7
)

// Connect4 is the 7-column drop game. Like TicTacToe it is turn-gated
// client-side when online; the relayed action carries only the column, both
// sides compute the landing row with the same gravity rule.
type Connect4 struct {
	proxy  Proxy
	online bool
	player int

	mu      sync.Mutex
	board   [connect4Rows][connect4Cols]int
	current int
	winner  int
	over    bool
}

type connect4Drop struct {
	Col int `json:"col"`
}

func NewConnect4(proxy Proxy, online bool, playerNumber int) *Connect4 {
	g := &Connect4{
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

// HandleOpponentAction applies a relayed opponent drop with the same gravity
// rule used locally. Registered on the proxy at construction.
func (g *Connect4) HandleOpponentAction(action protocol.OpponentAction) {
	if action.Action != "drop" {
		return
	}
	var d connect4Drop
	if err := json.Unmarshal(action.ActionData, &d); err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.over || g.current == g.player {
		return
	}
	g.apply(d.Col)
}

// Drop places a piece for the local player in the given column.
func (g *Connect4) Drop(col int) error {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return ErrGameOver
	}
	if g.online && g.current != g.player {
		g.mu.Unlock()
		return ErrNotYourTurn
	}
	if err := g.apply(col); err != nil {
		g.mu.Unlock()
		return err
	}
	over, winner := g.over, g.winner
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		g.proxy.SendAction("drop", connect4Drop{Col: col})
		if over && winner > 0 {
			g.proxy.SendGameOver(strconv.Itoa(winner), 1)
		}
	}
	return nil
}

// apply drops a piece for the current player. Caller holds the lock.
func (g *Connect4) apply(col int) error {
	if col < 0 || col >= connect4Cols {
		return ErrInvalidMove
	}
	row := -1
	for r := connect4Rows - 1; r >= 0; r-- {
		if g.board[r][col] == 0 {
			row = r
			break
		}
	}
	if row < 0 {
		return ErrInvalidMove // column full
	}
	g.board[row][col] = g.current

	if g.connectsFour(row, col) {
		g.over = true
		g.winner = g.current
		return nil
	}
	if g.boardFull() {
		g.over = true
		g.winner = -1
		return nil
	}
	g.current = otherPlayer(g.current)
	return nil
}

func (g *Connect4) connectsFour(row, col int) bool {
	p := g.board[row][col]
	dirs := [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		count := 1
		for _, sign := range []int{1, -1} {
			r, c := row+sign*d[0], col+sign*d[1]
			for r >= 0 && r < connect4Rows && c >= 0 && c < connect4Cols && g.board[r][c] == p {
				count++
				r += sign * d[0]
				c += sign * d[1]
			}
		}
		if count >= 4 {
			return true
		}
	}
	return false
}

func (g *Connect4) boardFull() bool {
	for c := 0; c < connect4Cols; c++ {
		if g.board[0][c] == 0 {
			return false
		}
	}
	return true
}

// Cell returns the owner of a cell: 0, 1 or 2.
func (g *Connect4) Cell(row, col int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board[row][col]
}

// CurrentPlayer returns the slot whose turn it is.
func (g *Connect4) CurrentPlayer() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Result reports whether the game is over and who won (-1 for a draw).
func (g *Connect4) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

package games

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

const (
	tronWidth  = 60
	tronHeight = 40
)

// Direction of a light cycle on the grid.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

func (d Direction) delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

func (d Direction) opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return d
}

type tronCell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type tronTurn struct {
	Direction Direction `json:"direction"`
}

// Tron is the light-cycle game. Both clients step the full simulation: the
// only inputs are direction changes, which are relayed as actions and
// applied symmetrically, so the two simulations stay in lockstep as long as
// turns arrive between the same ticks. The authoritative side (slot 1)
// reports the result.
type Tron struct {
	proxy  Proxy
	online bool
	player int

	mu     sync.Mutex
	pos    [2]tronCell
	dir    [2]Direction
	trails map[tronCell]bool
	over   bool
	winner int
}

func NewTron(proxy Proxy, online bool, playerNumber int) *Tron {
	g := &Tron{
		proxy:  proxy,
		online: online,
		player: playerNumber,
		trails: make(map[tronCell]bool),
	}
	g.pos[0] = tronCell{X: tronWidth / 4, Y: tronHeight / 2}
	g.pos[1] = tronCell{X: tronWidth * 3 / 4, Y: tronHeight / 2}
	g.dir[0] = DirRight
	g.dir[1] = DirLeft
	g.trails[g.pos[0]] = true
	g.trails[g.pos[1]] = true

	if online && proxy != nil {
		proxy.OnOpponentAction(g.HandleOpponentAction)
	}
	return g
}

// HandleOpponentAction steers the opponent's cycle from a relayed turn.
// Registered on the proxy at construction.
func (g *Tron) HandleOpponentAction(action protocol.OpponentAction) {
	if action.Action != "turn" {
		return
	}
	var t tronTurn
	if err := json.Unmarshal(action.ActionData, &t); err != nil {
		return
	}
	g.turn(otherPlayer(g.player), t.Direction)
}

// Turn steers the local cycle and mirrors the input to the opponent.
// Reversing into the own trail is rejected.
func (g *Tron) Turn(dir Direction) {
	if !g.turn(g.player, dir) {
		return
	}
	if g.online && g.proxy != nil {
		g.proxy.SendAction("turn", tronTurn{Direction: dir})
	}
}

func (g *Tron) turn(slot int, dir Direction) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch dir {
	case DirUp, DirDown, DirLeft, DirRight:
	default:
		return false
	}
	if g.over || dir == g.dir[slot-1].opposite() || dir == g.dir[slot-1] {
		return false
	}
	g.dir[slot-1] = dir
	return true
}

// Step advances both cycles one cell. A cycle hitting a wall, a trail, or
// the other cycle loses; simultaneous crashes are a draw.
func (g *Tron) Step() {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return
	}

	var next [2]tronCell
	for i := 0; i < 2; i++ {
		dx, dy := g.dir[i].delta()
		next[i] = tronCell{X: g.pos[i].X + dx, Y: g.pos[i].Y + dy}
	}

	crashed := [2]bool{}
	for i := 0; i < 2; i++ {
		c := next[i]
		if c.X < 0 || c.X >= tronWidth || c.Y < 0 || c.Y >= tronHeight || g.trails[c] {
			crashed[i] = true
		}
	}
	if next[0] == next[1] {
		crashed[0], crashed[1] = true, true
	}

	switch {
	case crashed[0] && crashed[1]:
		g.over = true
		g.winner = -1
	case crashed[0]:
		g.over = true
		g.winner = 2
	case crashed[1]:
		g.over = true
		g.winner = 1
	default:
		for i := 0; i < 2; i++ {
			g.pos[i] = next[i]
			g.trails[next[i]] = true
		}
	}

	over, winner := g.over, g.winner
	g.mu.Unlock()

	if over && g.online && g.player == 1 && g.proxy != nil && winner > 0 {
		g.proxy.SendGameOver(strconv.Itoa(winner), 1)
	}
}

// Pos returns the given slot's cycle position.
func (g *Tron) Pos(slot int) (x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pos[slot-1].X, g.pos[slot-1].Y
}

// Result reports whether the game is over and who won (-1 for a draw).
func (g *Tron) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

package games

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

const (
	soccerWidth     = 800.0
	soccerHeight    = 400.0
	soccerGoalTop   = 140.0
	soccerGoalBot   = 260.0
	soccerWinScore  = 5
	soccerStateTick = 3 // publish full state every Nth physics step
)

// SoccerState is the shared physics state. Player 1 is its single source of
// truth: it runs the ball physics and periodically publishes the full state,
// player 2 applies what it receives and never steps the ball itself.
type SoccerState struct {
	Ball    Vec    `json:"ball"`
	BallVel Vec    `json:"ballVel"`
	Score   [2]int `json:"score"`
}

// Soccer is the two-goal ball game. Own movement is applied optimistically
// and mirrored with SendMove; the ball follows the authoritative-host
// pattern.
type Soccer struct {
	proxy  Proxy
	online bool
	player int

	mu      sync.Mutex
	players [2]Vec
	state   SoccerState
	steps   int
	over    bool
	winner  int
}

func NewSoccer(proxy Proxy, online bool, playerNumber int) *Soccer {
	g := &Soccer{
		proxy:  proxy,
		online: online,
		player: playerNumber,
	}
	g.players[0] = Vec{X: soccerWidth * 0.25, Y: soccerHeight / 2}
	g.players[1] = Vec{X: soccerWidth * 0.75, Y: soccerHeight / 2}
	g.state = SoccerState{
		Ball:    Vec{X: soccerWidth / 2, Y: soccerHeight / 2},
		BallVel: Vec{X: 120, Y: 80},
	}

	if online && proxy != nil {
		proxy.OnOpponentMove(g.HandleOpponentMove)
		proxy.OnSyncState(g.HandleSyncState)
	}
	return g
}

// HandleOpponentMove updates the opponent's position from a relayed move.
// Registered on the proxy at construction.
func (g *Soccer) HandleOpponentMove(move protocol.OpponentMove) {
	var pos Vec
	if err := json.Unmarshal(move.Position, &pos); err != nil {
		return
	}
	g.mu.Lock()
	g.players[otherPlayer(g.player)-1] = pos
	g.mu.Unlock()
}

// HandleSyncState applies the authority's full state verbatim. Player 1, the
// authority itself, ignores it.
func (g *Soccer) HandleSyncState(raw json.RawMessage) {
	var state SoccerState
	if err := json.Unmarshal(raw, &state); err != nil {
		return
	}
	g.mu.Lock()
	if g.player != 1 {
		g.state = state
	}
	g.mu.Unlock()
}

// Move positions the local player and mirrors the update to the opponent.
func (g *Soccer) Move(x, y float64) {
	pos := Vec{X: clamp(x, 0, soccerWidth), Y: clamp(y, 0, soccerHeight)}
	g.mu.Lock()
	g.players[g.player-1] = pos
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		g.proxy.SendMove(pos, nil, nil)
	}
}

// Step advances the shared physics by dt seconds. Online, only player 1 runs
// it; player 2 calling Step is a no-op since it would diverge from the
// authority.
func (g *Soccer) Step(dt float64) {
	g.mu.Lock()
	if g.over || (g.online && g.player != 1) {
		g.mu.Unlock()
		return
	}

	b := &g.state.Ball
	v := &g.state.BallVel
	b.X += v.X * dt
	b.Y += v.Y * dt

	if b.Y < 0 {
		b.Y, v.Y = -b.Y, -v.Y
	}
	if b.Y > soccerHeight {
		b.Y, v.Y = 2*soccerHeight-b.Y, -v.Y
	}

	inGoalMouth := b.Y >= soccerGoalTop && b.Y <= soccerGoalBot
	switch {
	case b.X <= 0 && inGoalMouth:
		g.state.Score[1]++ // left goal belongs to player 1
		g.resetBall(-1)
	case b.X >= soccerWidth && inGoalMouth:
		g.state.Score[0]++
		g.resetBall(1)
	case b.X < 0:
		b.X, v.X = -b.X, -v.X
	case b.X > soccerWidth:
		b.X, v.X = 2*soccerWidth-b.X, -v.X
	}

	for _, p := range g.players {
		if kicked(p, *b) {
			v.X = (b.X - p.X) * 8
			v.Y = (b.Y - p.Y) * 8
		}
	}

	if g.state.Score[0] >= soccerWinScore || g.state.Score[1] >= soccerWinScore {
		g.over = true
		if g.state.Score[0] > g.state.Score[1] {
			g.winner = 1
		} else {
			g.winner = 2
		}
	}

	g.steps++
	publish := g.online && g.player == 1 && g.steps%soccerStateTick == 0
	state := g.state
	over, winner := g.over, g.winner
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		if publish || over {
			g.proxy.SendGameState(state)
		}
		if over {
			g.proxy.SendGameOver(strconv.Itoa(winner), float64(state.Score[winner-1]))
		}
	}
}

// resetBall recenters after a goal, serving toward the scored-on side.
func (g *Soccer) resetBall(dir float64) {
	g.state.Ball = Vec{X: soccerWidth / 2, Y: soccerHeight / 2}
	g.state.BallVel = Vec{X: 120 * dir, Y: 80}
}

// State returns a copy of the shared physics state.
func (g *Soccer) State() SoccerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// PlayerPos returns the position of the given slot's player.
func (g *Soccer) PlayerPos(slot int) Vec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players[slot-1]
}

// Result reports whether the game is over and who won.
func (g *Soccer) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

func kicked(p, b Vec) bool {
	dx, dy := b.X-p.X, b.Y-p.Y
	return dx*dx+dy*dy < 30*30
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package games

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

const (
	hockeyWidth    = 600.0
	hockeyHeight   = 300.0
	hockeyGoalTop  = 100.0
	hockeyGoalBot  = 200.0
	hockeyWinScore = 7
	hockeyPaddleR  = 25.0
	hockeyPuckR    = 12.0
	hockeyTick     = 2
)

// HockeyState is the shared puck state, owned by player 1.
type HockeyState struct {
	Puck    Vec    `json:"puck"`
	PuckVel Vec    `json:"puckVel"`
	Score   [2]int `json:"score"`
}

// AirHockey follows the same pattern as Soccer: optimistic paddle movement
// mirrored with SendMove, puck physics on the authoritative side only.
type AirHockey struct {
	proxy  Proxy
	online bool
	player int

	mu      sync.Mutex
	paddles [2]Vec
	state   HockeyState
	steps   int
	over    bool
	winner  int
}

func NewAirHockey(proxy Proxy, online bool, playerNumber int) *AirHockey {
	g := &AirHockey{
		proxy:  proxy,
		online: online,
		player: playerNumber,
	}
	g.paddles[0] = Vec{X: hockeyWidth * 0.15, Y: hockeyHeight / 2}
	g.paddles[1] = Vec{X: hockeyWidth * 0.85, Y: hockeyHeight / 2}
	g.state = HockeyState{
		Puck:    Vec{X: hockeyWidth / 2, Y: hockeyHeight / 2},
		PuckVel: Vec{X: 150, Y: 60},
	}

	if online && proxy != nil {
		proxy.OnOpponentMove(g.HandleOpponentMove)
		proxy.OnSyncState(g.HandleSyncState)
	}
	return g
}

// HandleOpponentMove updates the opponent's paddle from a relayed move.
// Registered on the proxy at construction.
func (g *AirHockey) HandleOpponentMove(move protocol.OpponentMove) {
	var pos Vec
	if err := json.Unmarshal(move.Position, &pos); err != nil {
		return
	}
	g.mu.Lock()
	g.paddles[otherPlayer(g.player)-1] = pos
	g.mu.Unlock()
}

// HandleSyncState applies the authority's full puck state verbatim. Player 1
// ignores it.
func (g *AirHockey) HandleSyncState(raw json.RawMessage) {
	var state HockeyState
	if err := json.Unmarshal(raw, &state); err != nil {
		return
	}
	g.mu.Lock()
	if g.player != 1 {
		g.state = state
	}
	g.mu.Unlock()
}

// Move positions the local paddle, restricted to the player's own half.
func (g *AirHockey) Move(x, y float64) {
	half := hockeyWidth / 2
	var pos Vec
	if g.player == 1 {
		pos = Vec{X: clamp(x, 0, half-hockeyPaddleR), Y: clamp(y, 0, hockeyHeight)}
	} else {
		pos = Vec{X: clamp(x, half+hockeyPaddleR, hockeyWidth), Y: clamp(y, 0, hockeyHeight)}
	}

	g.mu.Lock()
	g.paddles[g.player-1] = pos
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		g.proxy.SendMove(pos, nil, nil)
	}
}

// Step advances the puck by dt seconds on the authoritative side.
func (g *AirHockey) Step(dt float64) {
	g.mu.Lock()
	if g.over || (g.online && g.player != 1) {
		g.mu.Unlock()
		return
	}

	p := &g.state.Puck
	v := &g.state.PuckVel
	p.X += v.X * dt
	p.Y += v.Y * dt

	if p.Y < hockeyPuckR {
		p.Y, v.Y = 2*hockeyPuckR-p.Y, -v.Y
	}
	if p.Y > hockeyHeight-hockeyPuckR {
		p.Y, v.Y = 2*(hockeyHeight-hockeyPuckR)-p.Y, -v.Y
	}

	inGoalMouth := p.Y >= hockeyGoalTop && p.Y <= hockeyGoalBot
	switch {
	case p.X <= 0 && inGoalMouth:
		g.state.Score[1]++
		g.resetPuck(-1)
	case p.X >= hockeyWidth && inGoalMouth:
		g.state.Score[0]++
		g.resetPuck(1)
	case p.X < hockeyPuckR:
		p.X, v.X = 2*hockeyPuckR-p.X, -v.X
	case p.X > hockeyWidth-hockeyPuckR:
		p.X, v.X = 2*(hockeyWidth-hockeyPuckR)-p.X, -v.X
	}

	for _, paddle := range g.paddles {
		dx, dy := p.X-paddle.X, p.Y-paddle.Y
		dist := math.Hypot(dx, dy)
		if dist > 0 && dist < hockeyPaddleR+hockeyPuckR {
			speed := math.Hypot(v.X, v.Y) * 1.05
			v.X = dx / dist * speed
			v.Y = dy / dist * speed
		}
	}

	if g.state.Score[0] >= hockeyWinScore || g.state.Score[1] >= hockeyWinScore {
		g.over = true
		if g.state.Score[0] > g.state.Score[1] {
			g.winner = 1
		} else {
			g.winner = 2
		}
	}

	g.steps++
	publish := g.online && g.player == 1 && g.steps%hockeyTick == 0
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

func (g *AirHockey) resetPuck(dir float64) {
	g.state.Puck = Vec{X: hockeyWidth / 2, Y: hockeyHeight / 2}
	g.state.PuckVel = Vec{X: 150 * dir, Y: 60}
}

// State returns a copy of the shared puck state.
func (g *AirHockey) State() HockeyState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// PaddlePos returns the position of the given slot's paddle.
func (g *AirHockey) PaddlePos(slot int) Vec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paddles[slot-1]
}

// Result reports whether the game is over and who won.
func (g *AirHockey) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

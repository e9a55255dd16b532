package games

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

const (
	tankArenaW   = 640.0
	tankArenaH   = 480.0
	tankHitR     = 20.0
	tankLives    = 3
	tankShotMaxR = 800.0
)

type tank struct {
	Pos   Vec     `json:"pos"`
	Angle float64 `json:"angle"` // radians
	Lives int     `json:"lives"`
}

type tankShot struct {
	From  Vec     `json:"from"`
	Angle float64 `json:"angle"`
}

// TankBattle relays tank positions as moves and shots as actions. A shot is
// resolved as an instantaneous ray against the opponent's last known
// position, on both clients with the same rule, so the hit outcome agrees
// on both ends. Slot 1 reports the result.
type TankBattle struct {
	proxy  Proxy
	online bool
	player int

	mu     sync.Mutex
	tanks  [2]tank
	over   bool
	winner int
}

func NewTankBattle(proxy Proxy, online bool, playerNumber int) *TankBattle {
	g := &TankBattle{
		proxy:  proxy,
		online: online,
		player: playerNumber,
	}
	g.tanks[0] = tank{Pos: Vec{X: tankArenaW * 0.2, Y: tankArenaH / 2}, Lives: tankLives}
	g.tanks[1] = tank{Pos: Vec{X: tankArenaW * 0.8, Y: tankArenaH / 2}, Angle: math.Pi, Lives: tankLives}

	if online && proxy != nil {
		proxy.OnOpponentMove(g.HandleOpponentMove)
		proxy.OnOpponentAction(g.HandleOpponentAction)
	}
	return g
}

// HandleOpponentMove updates the opponent tank's position and heading from a
// relayed move. Registered on the proxy at construction.
func (g *TankBattle) HandleOpponentMove(move protocol.OpponentMove) {
	var pos Vec
	if err := json.Unmarshal(move.Position, &pos); err != nil {
		return
	}
	var angle float64
	if len(move.Direction) > 0 {
		json.Unmarshal(move.Direction, &angle)
	}
	g.mu.Lock()
	opp := otherPlayer(g.player) - 1
	g.tanks[opp].Pos = pos
	g.tanks[opp].Angle = angle
	g.mu.Unlock()
}

// HandleOpponentAction resolves a relayed shot with the same ray rule used
// for local shots.
func (g *TankBattle) HandleOpponentAction(action protocol.OpponentAction) {
	if action.Action != "shoot" {
		return
	}
	var shot tankShot
	if err := json.Unmarshal(action.ActionData, &shot); err != nil {
		return
	}
	g.resolveShot(otherPlayer(g.player), shot)
}

// Move positions and aims the local tank, mirroring the update.
func (g *TankBattle) Move(x, y, angle float64) {
	pos := Vec{X: clamp(x, 0, tankArenaW), Y: clamp(y, 0, tankArenaH)}
	g.mu.Lock()
	g.tanks[g.player-1].Pos = pos
	g.tanks[g.player-1].Angle = angle
	g.mu.Unlock()

	if g.online && g.proxy != nil {
		g.proxy.SendMove(pos, angle, nil)
	}
}

// Shoot fires from the local tank's current position and heading.
func (g *TankBattle) Shoot() {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return
	}
	shot := tankShot{From: g.tanks[g.player-1].Pos, Angle: g.tanks[g.player-1].Angle}
	g.mu.Unlock()

	g.resolveShot(g.player, shot)
	if g.online && g.proxy != nil {
		g.proxy.SendAction("shoot", shot)
	}
}

// resolveShot applies a shot from the given slot against the other tank,
// using the same rule for local and remote shots.
func (g *TankBattle) resolveShot(shooter int, shot tankShot) {
	g.mu.Lock()
	if g.over {
		g.mu.Unlock()
		return
	}
	target := &g.tanks[otherPlayer(shooter)-1]
	if rayHits(shot, target.Pos) {
		target.Lives--
		if target.Lives <= 0 {
			g.over = true
			g.winner = shooter
		}
	}
	over, winner := g.over, g.winner
	g.mu.Unlock()

	if over && g.online && g.player == 1 && g.proxy != nil {
		g.proxy.SendGameOver(strconv.Itoa(winner), float64(tankLives))
	}
}

// rayHits reports whether a ray from shot.From at shot.Angle passes within
// tankHitR of the target.
func rayHits(shot tankShot, target Vec) bool {
	dx := target.X - shot.From.X
	dy := target.Y - shot.From.Y
	dist := math.Hypot(dx, dy)
	if dist > tankShotMaxR {
		return false
	}
	// Distance from the target to the ray.
	along := dx*math.Cos(shot.Angle) + dy*math.Sin(shot.Angle)
	if along < 0 {
		return false // target is behind the muzzle
	}
	perp := math.Abs(-dx*math.Sin(shot.Angle) + dy*math.Cos(shot.Angle))
	return perp <= tankHitR
}

// Lives returns the given slot's remaining lives.
func (g *TankBattle) Lives(slot int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tanks[slot-1].Lives
}

// TankPos returns the given slot's position.
func (g *TankBattle) TankPos(slot int) Vec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tanks[slot-1].Pos
}

// Result reports whether the game is over and who won.
func (g *TankBattle) Result() (over bool, winner int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over, g.winner
}

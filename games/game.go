// Package games holds the synchronization glue for the online-capable
// arcade games. Each game applies local input immediately, mirrors it to the
// opponent through the session proxy, and applies the opponent's input with
// the same rules, so both clients converge without server-side simulation.
// Rendering, audio and menus live elsewhere; these types are logic only.
package games

import (
	"encoding/json"
	"errors"

	"github.com/arcade-universe/server/protocol"
)

// Proxy is the subset of the session client that game instances drive. The
// client package's Client satisfies it.
type Proxy interface {
	SendMove(position, direction, action any)
	SendAction(action string, data any)
	SendGameState(state any)
	SendGameOver(winnerID string, score any)
	OnOpponentMove(func(protocol.OpponentMove))
	OnOpponentAction(func(protocol.OpponentAction))
	OnSyncState(func(json.RawMessage))
}

var (
	ErrGameOver    = errors.New("games: the game is over")
	ErrNotYourTurn = errors.New("games: not your turn")
	ErrInvalidMove = errors.New("games: invalid move")
)

// Vec is a 2D position or velocity.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// otherPlayer maps a slot to its opponent's slot.
func otherPlayer(p int) int {
	if p == 1 {
		return 2
	}
	return 1
}

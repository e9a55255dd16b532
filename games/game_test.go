package games

import (
	"encoding/json"
	"sync"

	"github.com/arcade-universe/server/protocol"
)

// fakeProxy records everything a game sends and, when wired to a peer,
// delivers each send to the peer's registered callbacks the way the relay
// would. Tests cross-wire two proxies to drive two game instances against
// each other without a server.
type fakeProxy struct {
	mu        sync.Mutex
	moves     []protocol.OpponentMove
	actions   []protocol.OpponentAction
	states    []json.RawMessage
	gameOvers []fakeGameOver

	onMove   func(protocol.OpponentMove)
	onAction func(protocol.OpponentAction)
	onSync   func(json.RawMessage)

	peer *fakeProxy
}

type fakeGameOver struct {
	WinnerID string
	Score    any
}

func mustRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// wire cross-connects two proxies so sends on one land on the other.
func wire(a, b *fakeProxy) {
	a.peer = b
	b.peer = a
}

func (p *fakeProxy) SendMove(position, direction, action any) {
	move := protocol.OpponentMove{
		Position:  mustRaw(position),
		Direction: mustRaw(direction),
		Action:    mustRaw(action),
	}
	p.mu.Lock()
	p.moves = append(p.moves, move)
	peer := p.peer
	p.mu.Unlock()
	if peer != nil && peer.onMove != nil {
		peer.onMove(move)
	}
}

func (p *fakeProxy) SendAction(action string, data any) {
	act := protocol.OpponentAction{Action: action, ActionData: mustRaw(data)}
	p.mu.Lock()
	p.actions = append(p.actions, act)
	peer := p.peer
	p.mu.Unlock()
	if peer != nil && peer.onAction != nil {
		peer.onAction(act)
	}
}

func (p *fakeProxy) SendGameState(state any) {
	raw := mustRaw(state)
	p.mu.Lock()
	p.states = append(p.states, raw)
	peer := p.peer
	p.mu.Unlock()
	if peer != nil && peer.onSync != nil {
		peer.onSync(raw)
	}
}

func (p *fakeProxy) SendGameOver(winnerID string, score any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gameOvers = append(p.gameOvers, fakeGameOver{WinnerID: winnerID, Score: score})
}

func (p *fakeProxy) OnOpponentMove(cb func(protocol.OpponentMove)) { p.onMove = cb }

func (p *fakeProxy) OnOpponentAction(cb func(protocol.OpponentAction)) { p.onAction = cb }

func (p *fakeProxy) OnSyncState(cb func(json.RawMessage)) { p.onSync = cb }

func (p *fakeProxy) sentGameOvers() []fakeGameOver {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]fakeGameOver(nil), p.gameOvers...)
}

func (p *fakeProxy) sentStates() []json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]json.RawMessage(nil), p.states...)
}

func (p *fakeProxy) sentActions() []protocol.OpponentAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]protocol.OpponentAction(nil), p.actions...)
}

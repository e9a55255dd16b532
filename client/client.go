// Package client is the client-side half of the multiplayer protocol. Every
// online game drives the same proxy: it requests pairing, exposes one
// callback slot per server event, and measures round-trip latency in the
// background for as long as the connection lives.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arcade-universe/server/protocol"
)

// ErrNotConnected is returned when an operation requires the persistent
// channel and it is not open. Matchmaking is never silently queued while
// offline.
var ErrNotConnected = errors.New("client: not connected to server")

const defaultPingInterval = 2 * time.Second

type callbacks struct {
	onReady                func(protocol.GameReady)
	onWaiting              func(protocol.WaitingForOpponent)
	onOpponentMove         func(protocol.OpponentMove)
	onOpponentAction       func(protocol.OpponentAction)
	onSyncState            func(json.RawMessage)
	onOpponentDisconnected func()
	onMatchEnded           func(protocol.MatchEnded)
}

// Client is the session proxy. One instance serves the whole process; games
// come and go, the connection stays.
type Client struct {
	serverURL    string
	pingInterval time.Duration

	wmu sync.Mutex // serializes socket writes

	mu           sync.Mutex
	conn         *websocket.Conn
	connected    bool
	roomID       string
	playerNumber int
	opponentID   string
	latency      time.Duration
	pingSentAt   time.Time
	cbs          callbacks
	cancel       context.CancelFunc
}

func New(serverURL string) *Client {
	return &Client{
		serverURL:    serverURL,
		pingInterval: defaultPingInterval,
	}
}

// SetPingInterval adjusts the latency probe period. Must be called before
// Connect.
func (c *Client) SetPingInterval(d time.Duration) {
	c.pingInterval = d
}

// Connect opens the persistent channel and starts the read loop and the
// latency prober. A second call while connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.connected = true
	c.cancel = cancel

	go c.readLoop(conn)
	go c.pingLoop(runCtx)
	return nil
}

// Close tears the channel down and resets all session state.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.connected = false
	c.cancel = nil
	c.resetRoomLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Connected reports whether the channel is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// RoomID returns the active session id, or "" when not paired.
func (c *Client) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// PlayerNumber returns the assigned slot (1 or 2), or 0 when not paired.
// Slot 1 is the state authority for shared physics.
func (c *Client) PlayerNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerNumber
}

// OpponentID returns the peer's connection id, or "" when not paired.
func (c *Client) OpponentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opponentID
}

// Latency returns the last measured round trip time.
func (c *Client) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

// JoinMultiplayer requests pairing for gameType. It fails fast when the
// channel is not open so the UI can abort matchmaking instead of queueing
// silently.
func (c *Client) JoinMultiplayer(gameType string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.write(protocol.KindJoinMultiplayer, protocol.JoinMultiplayer{GameType: gameType})
}

// CancelWaiting withdraws a pending pairing request. Local room state is
// cleared regardless of whether the server acknowledges.
func (c *Client) CancelWaiting() {
	if c.Connected() {
		if err := c.write(protocol.KindCancelWaiting, struct{}{}); err != nil {
			slog.Warn("Failed to send cancel-waiting", "error", err)
		}
	}
	c.mu.Lock()
	c.resetRoomLocked()
	c.mu.Unlock()
}

// SendMove transmits a positional update to the opponent. A no-op unless a
// session is active.
func (c *Client) SendMove(position, direction, action any) {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	move := protocol.PlayerMove{RoomID: roomID}
	move.Position = marshalRaw(position)
	move.Direction = marshalRaw(direction)
	move.Action = marshalRaw(action)
	if err := c.write(protocol.KindPlayerMove, move); err != nil {
		slog.Warn("Failed to send move", "error", err)
	}
}

// SendAction transmits a discrete game event to the opponent. A no-op unless
// a session is active.
func (c *Client) SendAction(action string, data any) {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	if err := c.write(protocol.KindGameAction, protocol.GameAction{
		RoomID:     roomID,
		Action:     action,
		ActionData: marshalRaw(data),
	}); err != nil {
		slog.Warn("Failed to send action", "error", err)
	}
}

// SendGameState publishes the full shared state. Only slot 1 is
// authoritative; calling this from slot 2 is a no-op by contract, not an
// error, so both sides can share the same game code without diverging
// simulations.
func (c *Client) SendGameState(state any) {
	c.mu.Lock()
	roomID, player := c.roomID, c.playerNumber
	c.mu.Unlock()
	if roomID == "" || player != 1 {
		return
	}
	if err := c.write(protocol.KindGameState, protocol.GameState{
		RoomID: roomID,
		State:  marshalRaw(state),
	}); err != nil {
		slog.Warn("Failed to send game state", "error", err)
	}
}

// SendGameOver signals explicit end of the match.
func (c *Client) SendGameOver(winnerID string, score any) {
	roomID := c.RoomID()
	if roomID == "" {
		return
	}
	if err := c.write(protocol.KindGameOver, protocol.GameOver{
		RoomID:   roomID,
		WinnerID: winnerID,
		Score:    marshalRaw(score),
	}); err != nil {
		slog.Warn("Failed to send game over", "error", err)
	}
}

// Callback registration. One handler per event; a later registration
// replaces the earlier one, since only one game instance is active at a time.

func (c *Client) OnReady(f func(protocol.GameReady)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onReady = f
}

func (c *Client) OnWaiting(f func(protocol.WaitingForOpponent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onWaiting = f
}

func (c *Client) OnOpponentMove(f func(protocol.OpponentMove)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onOpponentMove = f
}

func (c *Client) OnOpponentAction(f func(protocol.OpponentAction)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onOpponentAction = f
}

func (c *Client) OnSyncState(f func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onSyncState = f
}

func (c *Client) OnOpponentDisconnected(f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onOpponentDisconnected = f
}

func (c *Client) OnMatchEnded(f func(protocol.MatchEnded)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cbs.onMatchEnded = f
}

func (c *Client) write(kind protocol.Kind, payload any) error {
	raw, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.handleChannelLoss(conn)
			return
		}
		env, err := protocol.Decode(raw)
		if err != nil {
			slog.Warn("Discarding malformed server frame", "error", err)
			continue
		}
		c.handle(env)
	}
}

func (c *Client) handle(env protocol.Envelope) {
	switch env.Type {
	case protocol.KindGameReady:
		var ready protocol.GameReady
		if err := env.Bind(&ready); err != nil {
			return
		}
		c.mu.Lock()
		c.roomID = ready.RoomID
		c.playerNumber = ready.PlayerNumber
		c.opponentID = ready.OpponentID
		cb := c.cbs.onReady
		c.mu.Unlock()
		if cb != nil {
			cb(ready)
		}

	case protocol.KindWaitingForOpponent:
		var waiting protocol.WaitingForOpponent
		if err := env.Bind(&waiting); err != nil {
			return
		}
		c.mu.Lock()
		cb := c.cbs.onWaiting
		c.mu.Unlock()
		if cb != nil {
			cb(waiting)
		}

	case protocol.KindOpponentMove:
		var move protocol.OpponentMove
		if err := env.Bind(&move); err != nil {
			return
		}
		c.mu.Lock()
		cb := c.cbs.onOpponentMove
		c.mu.Unlock()
		if cb != nil {
			cb(move)
		}

	case protocol.KindOpponentAction:
		var action protocol.OpponentAction
		if err := env.Bind(&action); err != nil {
			return
		}
		c.mu.Lock()
		cb := c.cbs.onOpponentAction
		c.mu.Unlock()
		if cb != nil {
			cb(action)
		}

	case protocol.KindSyncState:
		c.mu.Lock()
		cb := c.cbs.onSyncState
		c.mu.Unlock()
		if cb != nil {
			cb(env.Data)
		}

	case protocol.KindOpponentDisconnected:
		c.mu.Lock()
		cb := c.cbs.onOpponentDisconnected
		c.resetRoomLocked()
		c.mu.Unlock()
		if cb != nil {
			cb()
		}

	case protocol.KindMatchEnded:
		var ended protocol.MatchEnded
		if err := env.Bind(&ended); err != nil {
			return
		}
		c.mu.Lock()
		cb := c.cbs.onMatchEnded
		c.resetRoomLocked()
		c.mu.Unlock()
		if cb != nil {
			cb(ended)
		}

	case protocol.KindPong:
		c.mu.Lock()
		if !c.pingSentAt.IsZero() {
			c.latency = time.Since(c.pingSentAt)
		}
		c.mu.Unlock()
	}
}

// pingLoop probes latency every pingInterval for as long as the connection
// lives. It runs independently of any session and continues across game
// switches.
func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.pingSentAt = time.Now()
			c.mu.Unlock()
			if err := c.write(protocol.KindPing, nil); err != nil {
				return
			}
		}
	}
}

// handleChannelLoss transitions to disconnected from any state.
func (c *Client) handleChannelLoss(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		// Already replaced or closed explicitly.
		c.mu.Unlock()
		return
	}
	cancel := c.cancel
	c.conn = nil
	c.connected = false
	c.cancel = nil
	c.resetRoomLocked()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	conn.Close()
	slog.Warn("Disconnected from server")
}

func (c *Client) resetRoomLocked() {
	c.roomID = ""
	c.playerNumber = 0
	c.opponentID = ""
}

func marshalRaw(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal payload", "error", err)
		return nil
	}
	return raw
}

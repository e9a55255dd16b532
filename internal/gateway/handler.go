package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arcade-universe/server/internal/matchmaking"
	"github.com/arcade-universe/server/internal/scores"
	"github.com/arcade-universe/server/internal/session"
	"github.com/arcade-universe/server/protocol"
)

// pongWait is how long a connection may stay silent before it is considered
// dead. The client proxy probes latency every couple of seconds, so a healthy
// connection always produces traffic well inside this window.
const pongWait = 60 * time.Second

// upgrader is used to upgrade an HTTP connection to a persistent WebSocket
// connection.
var upgrader = websocket.Upgrader{
	// Allow connections from any origin (for development).
	// In production, you should restrict this to your game client's origin.
	CheckOrigin: func(r *http.Request) bool { return true },
	// Specify read/write buffer sizes.
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler owns the WebSocket endpoint: it upgrades connections, runs the
// per-connection pumps, and dispatches inbound protocol messages to the
// matchmaking queue and the session registry.
type Handler struct {
	queue    *matchmaking.Queue
	registry *session.Registry
	scores   scores.Store
	cm       *ConnectionManager
}

func NewHandler(queue *matchmaking.Queue, registry *session.Registry, store scores.Store, cm *ConnectionManager) *Handler {
	return &Handler{
		queue:    queue,
		registry: registry,
		scores:   store,
		cm:       cm,
	}
}

// ServeHTTP is the entry point for an HTTP request. It upgrades the
// connection and handles it for its entire lifetime.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn)
	h.cm.Add(client)
	slog.Info("WebSocket connection established", "connID", client.ID())

	go client.writePump()
	h.readPump(client)
}

// readPump is an infinite loop that waits for messages from the client and
// dispatches them. When ReadMessage returns an error the connection is
// broken; the deferred cleanup removes the client from the waiting queue and
// tears down any session it belongs to.
func (h *Handler) readPump(c *Client) {
	defer func() {
		slog.Info("Closing WebSocket connection", "connID", c.ID())
		h.cm.Remove(c.ID())
		h.queue.CancelWait(c.ID(), c.GameType())
		h.registry.Disconnect(c.ID())
		c.close()
		c.socket.Close()
	}()

	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket connection closed unexpectedly", "connID", c.ID(), "error", err)
			}
			break
		}
		c.socket.SetReadDeadline(time.Now().Add(pongWait))

		env, err := protocol.Decode(raw)
		if err != nil {
			slog.Warn("Discarding malformed frame", "connID", c.ID(), "error", err)
			continue
		}
		h.dispatch(c, env)
	}
}

// dispatch routes one inbound envelope. Nothing here may fail the
// connection: messages racing a session teardown are dropped silently, and
// malformed payloads are logged and skipped.
func (h *Handler) dispatch(c *Client, env protocol.Envelope) {
	switch env.Type {
	case protocol.KindPing:
		c.Send(protocol.KindPong, nil)

	case protocol.KindJoinMultiplayer:
		var req protocol.JoinMultiplayer
		if err := env.Bind(&req); err != nil || req.GameType == "" {
			slog.Warn("Invalid join-multiplayer payload", "connID", c.ID(), "error", err)
			return
		}
		h.join(c, req.GameType)

	case protocol.KindCancelWaiting:
		h.queue.CancelWait(c.ID(), c.GameType())

	case protocol.KindPlayerMove:
		var move protocol.PlayerMove
		if err := env.Bind(&move); err != nil {
			return
		}
		h.registry.Relay(move.RoomID, c.ID(), protocol.KindOpponentMove, protocol.OpponentMove{
			Position:  move.Position,
			Direction: move.Direction,
			Action:    move.Action,
			Timestamp: protocol.Now(),
		})

	case protocol.KindGameAction:
		var action protocol.GameAction
		if err := env.Bind(&action); err != nil {
			return
		}
		h.registry.Relay(action.RoomID, c.ID(), protocol.KindOpponentAction, protocol.OpponentAction{
			Action:     action.Action,
			ActionData: action.ActionData,
			Timestamp:  protocol.Now(),
		})

	case protocol.KindGameState:
		var state protocol.GameState
		if err := env.Bind(&state); err != nil {
			return
		}
		// Full-state publications are honored from the authoritative
		// side only.
		if h.registry.Slot(state.RoomID, c.ID()) != 1 {
			return
		}
		h.registry.RecordSharedState(state.RoomID, state.State)
		h.registry.Relay(state.RoomID, c.ID(), protocol.KindSyncState, state.State)

	case protocol.KindGameOver:
		var over protocol.GameOver
		if err := env.Bind(&over); err != nil {
			return
		}
		h.recordResult(c, over)
		h.registry.End(over.RoomID, protocol.MatchEnded{
			WinnerID:  over.WinnerID,
			Score:     over.Score,
			Timestamp: protocol.Now(),
		})

	default:
		slog.Warn("Unknown message kind", "connID", c.ID(), "kind", env.Type)
	}
}

func (h *Handler) join(c *Client, gameType string) {
	// A connection waits in at most one game type. Re-joining a different
	// type withdraws the earlier request, so the disconnect cleanup only
	// ever has one entry to clear.
	if prev := c.GameType(); prev != "" && prev != gameType {
		h.queue.CancelWait(c.ID(), prev)
	}
	c.setGameType(gameType)

	peer, paired := h.queue.RequestMatch(c, gameType)
	if !paired {
		c.Send(protocol.KindWaitingForOpponent, protocol.WaitingForOpponent{GameType: gameType})
		return
	}

	peerClient, ok := peer.(*Client)
	if !ok {
		return
	}
	sess := h.registry.Create(peerClient, c, gameType)
	if sess == nil {
		return
	}
	peerClient.setRoom(sess.ID)
	c.setRoom(sess.ID)
}

// recordResult feeds the best-score store from an explicit game-over. Scores
// are opaque on the wire; only numeric ones are recordable.
func (h *Handler) recordResult(c *Client, over protocol.GameOver) {
	gameType := h.registry.GameType(over.RoomID)
	if gameType == "" {
		return
	}
	var score float64
	if err := json.Unmarshal(over.Score, &score); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.scores.Record(ctx, gameType, over.WinnerID, score); err != nil {
		slog.Warn("Failed to persist match result", "roomID", over.RoomID, "error", err)
	}
}

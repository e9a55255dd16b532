package protocol

import (
	"encoding/json"
	"time"
)

// Kind identifies a message type on the wire. The same envelope format is
// used in both directions; the gateway dispatches on Kind without decoding
// payloads it only relays.
type Kind string

// Client -> server kinds.
const (
	KindJoinMultiplayer Kind = "join-multiplayer"
	KindCancelWaiting   Kind = "cancel-waiting"
	KindPlayerMove      Kind = "player-move"
	KindGameAction      Kind = "game-action"
	KindGameState       Kind = "game-state"
	KindGameOver        Kind = "game-over"
	KindPing            Kind = "ping"
)

// Server -> client kinds.
const (
	KindWaitingForOpponent   Kind = "waiting-for-opponent"
	KindGameReady            Kind = "game-ready"
	KindOpponentMove         Kind = "opponent-move"
	KindOpponentAction       Kind = "opponent-action"
	KindSyncState            Kind = "sync-state"
	KindMatchEnded           Kind = "match-ended"
	KindOpponentDisconnected Kind = "opponent-disconnected"
	KindPong                 Kind = "pong"
)

// Envelope is the top-level structure of every message. Data holds the raw
// JSON of the payload so the type can be read without fully decoding it.
type Envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps a payload into an envelope and marshals it.
func Encode(kind Kind, payload any) ([]byte, error) {
	env := Envelope{Type: kind}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses the envelope only; payloads are decoded by the caller via Bind.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(raw, &env)
	return env, err
}

// Bind decodes the envelope's payload into v.
func (e Envelope) Bind(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Now returns the server-assigned timestamp for outbound relays, in
// milliseconds since the epoch. Timestamps are never taken from clients.
func Now() int64 {
	return time.Now().UnixMilli()
}

// JoinMultiplayer asks the matchmaking queue for a match of the given game type.
type JoinMultiplayer struct {
	GameType string `json:"gameType"`
}

// WaitingForOpponent tells a client it is the lone requester for its game type.
type WaitingForOpponent struct {
	GameType string `json:"gameType"`
}

// GameReady notifies both members of a new session. PlayerNumber 1 is the
// connection that was already waiting; it is the state authority for any
// shared physics.
type GameReady struct {
	RoomID       string `json:"roomId"`
	PlayerNumber int    `json:"playerNumber"`
	OpponentID   string `json:"opponentId"`
}

// PlayerMove carries a positional update from a client. Position, direction
// and action are opaque to the server.
type PlayerMove struct {
	RoomID    string          `json:"roomId"`
	Position  json.RawMessage `json:"position,omitempty"`
	Direction json.RawMessage `json:"direction,omitempty"`
	Action    json.RawMessage `json:"action,omitempty"`
}

// OpponentMove is a PlayerMove forwarded to the other session member, stamped
// at forward time.
type OpponentMove struct {
	Position  json.RawMessage `json:"position,omitempty"`
	Direction json.RawMessage `json:"direction,omitempty"`
	Action    json.RawMessage `json:"action,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// GameAction carries a discrete game event (a shot, a drop, a turn).
type GameAction struct {
	RoomID     string          `json:"roomId"`
	Action     string          `json:"action"`
	ActionData json.RawMessage `json:"actionData,omitempty"`
}

// OpponentAction is a GameAction forwarded to the other session member.
type OpponentAction struct {
	Action     string          `json:"action"`
	ActionData json.RawMessage `json:"actionData,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// GameState is the authoritative full-state publication from player 1.
type GameState struct {
	RoomID string          `json:"roomId"`
	State  json.RawMessage `json:"state"`
}

// GameOver signals explicit end of a match.
type GameOver struct {
	RoomID   string          `json:"roomId"`
	WinnerID string          `json:"winnerId"`
	Score    json.RawMessage `json:"score,omitempty"`
}

// MatchEnded is delivered to both members when a match ends normally.
type MatchEnded struct {
	WinnerID  string          `json:"winnerId"`
	Score     json.RawMessage `json:"score,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

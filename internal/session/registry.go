package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcade-universe/server/protocol"
)

// Member is one side of a session. Send is fire-and-forget: delivery is
// best-effort and must never block or fail into the registry.
type Member interface {
	ID() string
	Send(kind protocol.Kind, payload any)
	Closed() bool
}

// Session is one active two-player match. A session has exactly two members
// for its entire lifetime; there is no spectator or rejoin path.
type Session struct {
	ID        string
	GameType  string
	CreatedAt time.Time

	mu      sync.Mutex
	members [2]Member
	state   json.RawMessage
	ended   bool
}

// slot returns the 1-based player number of connID, or 0 if connID is not a
// member.
func (s *Session) slot(connID string) int {
	for i, m := range s.members {
		if m.ID() == connID {
			return i + 1
		}
	}
	return 0
}

// other returns the member that is not connID, or nil.
func (s *Session) other(connID string) Member {
	switch s.slot(connID) {
	case 1:
		return s.members[1]
	case 2:
		return s.members[0]
	}
	return nil
}

// Info is the diagnostic view of a session.
type Info struct {
	ID       string `json:"id"`
	GameType string `json:"gameType"`
	Players  int    `json:"players"`
	UptimeMS int64  `json:"uptime"`
}

// Registry owns all active sessions, routes relayed messages between the two
// members of each, and manages teardown. No operation surfaces an error to
// the transport layer: lookups on missing state degrade to no-ops, since
// relays and cancels racing a teardown are expected.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byMember map[string]string // connID -> session ID
	grace    time.Duration
}

// NewRegistry creates a registry whose sessions linger for grace after an
// explicit game-over, so late-arriving relay messages can still land.
func NewRegistry(grace time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byMember: make(map[string]string),
		grace:    grace,
	}
}

// Create allocates a session for a freshly matched pair and notifies both
// sides. Slot 1 is the member that was already waiting; it is the state
// authority by convention. If either member has disconnected since pairing,
// no session is stored and the survivor (if any) is told the opponent is
// gone.
func (r *Registry) Create(first, second Member, gameType string) *Session {
	if first.Closed() || second.Closed() {
		if !first.Closed() {
			first.Send(protocol.KindOpponentDisconnected, struct{}{})
		}
		if !second.Closed() {
			second.Send(protocol.KindOpponentDisconnected, struct{}{})
		}
		slog.Warn("Matched member disconnected before session creation", "gameType", gameType)
		return nil
	}

	sess := &Session{
		ID:        "room-" + uuid.NewString(),
		GameType:  gameType,
		CreatedAt: time.Now(),
		members:   [2]Member{first, second},
	}

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.byMember[first.ID()] = sess.ID
	r.byMember[second.ID()] = sess.ID
	r.mu.Unlock()

	first.Send(protocol.KindGameReady, protocol.GameReady{
		RoomID:       sess.ID,
		PlayerNumber: 1,
		OpponentID:   second.ID(),
	})
	second.Send(protocol.KindGameReady, protocol.GameReady{
		RoomID:       sess.ID,
		PlayerNumber: 2,
		OpponentID:   first.ID(),
	})

	slog.Info("Session created", "roomID", sess.ID, "gameType", gameType,
		"player1", first.ID(), "player2", second.ID())
	return sess
}

func (r *Registry) lookup(roomID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[roomID]
}

// Relay forwards payload to the session member that is not senderID. The
// sender never receives its own message back; each relay has exactly one
// recipient. A relay targeting an unknown session or from a non-member is
// silently dropped.
func (r *Registry) Relay(roomID, senderID string, kind protocol.Kind, payload any) {
	sess := r.lookup(roomID)
	if sess == nil {
		return
	}
	if other := sess.other(senderID); other != nil {
		other.Send(kind, payload)
	}
}

// Slot reports the player number of connID in roomID, or 0.
func (r *Registry) Slot(roomID, connID string) int {
	sess := r.lookup(roomID)
	if sess == nil {
		return 0
	}
	return sess.slot(connID)
}

// GameType returns the game type of roomID, or "" if the session is gone.
func (r *Registry) GameType(roomID string) string {
	sess := r.lookup(roomID)
	if sess == nil {
		return ""
	}
	return sess.GameType
}

// RecordSharedState stores the latest authoritative state blob on the
// session. The blob is kept for diagnostics only; sessions never admit a
// third party that could be caught up from it.
func (r *Registry) RecordSharedState(roomID string, state json.RawMessage) {
	sess := r.lookup(roomID)
	if sess == nil {
		return
	}
	sess.mu.Lock()
	sess.state = state
	sess.mu.Unlock()
}

// SharedState returns the last recorded state blob for roomID, if any.
func (r *Registry) SharedState(roomID string) json.RawMessage {
	sess := r.lookup(roomID)
	if sess == nil {
		return nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// End notifies both members that the match ended, then removes the session
// after the grace delay. Idempotent: a second call for the same id, or a call
// for an already removed id, does nothing.
func (r *Registry) End(roomID string, result protocol.MatchEnded) {
	sess := r.lookup(roomID)
	if sess == nil {
		return
	}

	sess.mu.Lock()
	if sess.ended {
		sess.mu.Unlock()
		return
	}
	sess.ended = true
	sess.mu.Unlock()

	for _, m := range sess.members {
		m.Send(protocol.KindMatchEnded, result)
	}

	slog.Info("Match ended", "roomID", roomID, "winnerID", result.WinnerID)
	time.AfterFunc(r.grace, func() {
		r.remove(sess)
		slog.Info("Session removed", "roomID", roomID)
	})
}

// Disconnect handles the loss of a connection. If it was a session member the
// surviving peer receives opponent-disconnected and the session is removed
// immediately; a disconnect is an authoritative match failure with no grace
// delay. A disconnect for an unknown connection is a no-op.
func (r *Registry) Disconnect(connID string) {
	r.mu.RLock()
	roomID, ok := r.byMember[connID]
	sess := r.sessions[roomID]
	r.mu.RUnlock()
	if !ok || sess == nil {
		return
	}

	if other := sess.other(connID); other != nil && !other.Closed() {
		other.Send(protocol.KindOpponentDisconnected, struct{}{})
	}
	r.remove(sess)
	slog.Info("Session closed after disconnect", "roomID", sess.ID, "connID", connID)
}

func (r *Registry) remove(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[sess.ID] != sess {
		return
	}
	delete(r.sessions, sess.ID)
	for _, m := range sess.members {
		if r.byMember[m.ID()] == sess.ID {
			delete(r.byMember, m.ID())
		}
	}
}

// Count reports the number of active sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the diagnostic view of every active session.
func (r *Registry) Snapshot() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.sessions))
	for _, sess := range r.sessions {
		infos = append(infos, Info{
			ID:       sess.ID,
			GameType: sess.GameType,
			Players:  2,
			UptimeMS: time.Since(sess.CreatedAt).Milliseconds(),
		})
	}
	return infos
}

package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-universe/server/protocol"
)

type sentMessage struct {
	Kind    protocol.Kind
	Payload any
}

type fakeMember struct {
	id string

	mu     sync.Mutex
	sent   []sentMessage
	closed bool
}

func (m *fakeMember) ID() string { return m.id }

func (m *fakeMember) Send(kind protocol.Kind, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{Kind: kind, Payload: payload})
}

func (m *fakeMember) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *fakeMember) setClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *fakeMember) messages(kind protocol.Kind) []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMessage
	for _, msg := range m.sent {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

const testGrace = 100 * time.Millisecond

func newTestRegistry() (*Registry, *fakeMember, *fakeMember, *Session) {
	r := NewRegistry(testGrace)
	a := &fakeMember{id: "conn-a"}
	b := &fakeMember{id: "conn-b"}
	sess := r.Create(a, b, "tron")
	return r, a, b, sess
}

func TestCreateAssignsSlotsByArrivalOrder(t *testing.T) {
	_, a, b, sess := newTestRegistry()
	require.NotNil(t, sess)

	readyA := a.messages(protocol.KindGameReady)
	readyB := b.messages(protocol.KindGameReady)
	require.Len(t, readyA, 1)
	require.Len(t, readyB, 1)

	payloadA := readyA[0].Payload.(protocol.GameReady)
	payloadB := readyB[0].Payload.(protocol.GameReady)
	assert.Equal(t, 1, payloadA.PlayerNumber, "the member that was waiting gets slot 1")
	assert.Equal(t, 2, payloadB.PlayerNumber)
	assert.Equal(t, payloadA.RoomID, payloadB.RoomID)
	assert.Equal(t, "conn-b", payloadA.OpponentID)
	assert.Equal(t, "conn-a", payloadB.OpponentID)
}

func TestCreateWithDisconnectedMember(t *testing.T) {
	r := NewRegistry(testGrace)
	a := &fakeMember{id: "conn-a"}
	b := &fakeMember{id: "conn-b"}
	a.setClosed()

	sess := r.Create(a, b, "tron")
	assert.Nil(t, sess)
	assert.Equal(t, 0, r.Count(), "no session may be stored when a member is already gone")
	assert.Len(t, b.messages(protocol.KindOpponentDisconnected), 1)
	assert.Empty(t, a.messages(protocol.KindOpponentDisconnected))
}

func TestRelayForwardsToOtherMemberOnly(t *testing.T) {
	r, a, b, sess := newTestRegistry()

	payload := protocol.OpponentAction{Action: "drop", Timestamp: 42}
	r.Relay(sess.ID, "conn-a", protocol.KindOpponentAction, payload)

	require.Len(t, b.messages(protocol.KindOpponentAction), 1)
	assert.Empty(t, a.messages(protocol.KindOpponentAction), "the sender must never receive its own message")
	assert.Equal(t, payload, b.messages(protocol.KindOpponentAction)[0].Payload)
}

func TestRelayUnknownSessionIsSilentlyDropped(t *testing.T) {
	r, a, b, _ := newTestRegistry()

	r.Relay("room-missing", "conn-a", protocol.KindOpponentAction, protocol.OpponentAction{})
	assert.Empty(t, a.messages(protocol.KindOpponentAction))
	assert.Empty(t, b.messages(protocol.KindOpponentAction))
}

func TestRelayFromNonMemberIsDropped(t *testing.T) {
	r, a, b, sess := newTestRegistry()

	r.Relay(sess.ID, "conn-z", protocol.KindOpponentAction, protocol.OpponentAction{})
	assert.Empty(t, a.messages(protocol.KindOpponentAction))
	assert.Empty(t, b.messages(protocol.KindOpponentAction))
}

func TestRecordSharedState(t *testing.T) {
	r, _, _, sess := newTestRegistry()

	state := json.RawMessage(`{"ball":{"x":10,"y":20}}`)
	r.RecordSharedState(sess.ID, state)
	assert.Equal(t, state, r.SharedState(sess.ID))

	// Missing sessions degrade to no-ops.
	r.RecordSharedState("room-missing", state)
	assert.Nil(t, r.SharedState("room-missing"))
}

func TestEndNotifiesBothThenPurgesAfterGrace(t *testing.T) {
	r, a, b, sess := newTestRegistry()

	result := protocol.MatchEnded{WinnerID: "conn-a", Timestamp: protocol.Now()}
	r.End(sess.ID, result)

	require.Len(t, a.messages(protocol.KindMatchEnded), 1)
	require.Len(t, b.messages(protocol.KindMatchEnded), 1)
	assert.Equal(t, 1, r.Count(), "the session must linger for the grace delay")

	// A late relay still lands during the grace window.
	r.Relay(sess.ID, "conn-a", protocol.KindOpponentAction, protocol.OpponentAction{Action: "final"})
	assert.Len(t, b.messages(protocol.KindOpponentAction), 1)

	assert.Eventually(t, func() bool { return r.Count() == 0 },
		time.Second, 5*time.Millisecond, "the session must be removed after the grace delay")
}

func TestEndIsIdempotent(t *testing.T) {
	r, a, b, sess := newTestRegistry()

	result := protocol.MatchEnded{WinnerID: "conn-b"}
	r.End(sess.ID, result)
	r.End(sess.ID, result)
	r.End("room-missing", result)

	assert.Len(t, a.messages(protocol.KindMatchEnded), 1, "a second End must not notify again")
	assert.Len(t, b.messages(protocol.KindMatchEnded), 1)
}

func TestDisconnectNotifiesSurvivorAndRemovesImmediately(t *testing.T) {
	r, a, b, sess := newTestRegistry()

	r.Disconnect("conn-b")

	require.Len(t, a.messages(protocol.KindOpponentDisconnected), 1)
	assert.Empty(t, b.messages(protocol.KindOpponentDisconnected))
	assert.Equal(t, 0, r.Count(), "disconnect teardown must not wait for the grace delay")

	// The session is no longer routable.
	r.Relay(sess.ID, "conn-a", protocol.KindOpponentAction, protocol.OpponentAction{})
	assert.Empty(t, b.messages(protocol.KindOpponentAction))

	// A second disconnect event for an already-removed connection is a no-op.
	r.Disconnect("conn-b")
	assert.Len(t, a.messages(protocol.KindOpponentDisconnected), 1)
}

func TestSlot(t *testing.T) {
	r, _, _, sess := newTestRegistry()

	assert.Equal(t, 1, r.Slot(sess.ID, "conn-a"))
	assert.Equal(t, 2, r.Slot(sess.ID, "conn-b"))
	assert.Equal(t, 0, r.Slot(sess.ID, "conn-z"))
	assert.Equal(t, 0, r.Slot("room-missing", "conn-a"))
}

func TestSnapshot(t *testing.T) {
	r, _, _, sess := newTestRegistry()

	infos := r.Snapshot()
	require.Len(t, infos, 1)
	assert.Equal(t, sess.ID, infos[0].ID)
	assert.Equal(t, "tron", infos[0].GameType)
	assert.Equal(t, 2, infos[0].Players)
}

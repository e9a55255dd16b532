package matchmaking

import (
	"log/slog"
	"sync"
)

// Waiter is the identity the queue holds for a connection awaiting a peer.
// The gateway's client type satisfies it.
type Waiter interface {
	ID() string
}

// Queue pairs connections requesting the same game type. For a given game
// type there is never more than one outstanding waiter: the second requester
// always consumes the entry and triggers pairing.
type Queue struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry serializes pairing for one game type, so matchmaking for different
// game types never contends on the same lock.
type entry struct {
	mu      sync.Mutex
	waiting Waiter
}

func NewQueue() *Queue {
	return &Queue{entries: make(map[string]*entry)}
}

func (q *Queue) entryFor(gameType string) *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[gameType]
	if !ok {
		e = &entry{}
		q.entries[gameType] = e
	}
	return e
}

// RequestMatch performs the atomic check-and-pair. If another connection is
// already waiting for gameType, that waiter is removed and returned with
// paired=true. Otherwise w is installed as the waiter and paired is false.
// A repeated request from the connection already waiting keeps it waiting
// rather than pairing it with itself.
func (q *Queue) RequestMatch(w Waiter, gameType string) (peer Waiter, paired bool) {
	e := q.entryFor(gameType)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.waiting == nil || e.waiting.ID() == w.ID() {
		e.waiting = w
		slog.Info("Player waiting for opponent", "connID", w.ID(), "gameType", gameType)
		return nil, false
	}

	peer = e.waiting
	e.waiting = nil
	slog.Info("Match found", "gameType", gameType, "player1", peer.ID(), "player2", w.ID())
	return peer, true
}

// CancelWait removes connID from the waiting entry for gameType if it is
// still the connection stored there. It is a no-op otherwise; the caller may
// already have been paired. Idempotent.
func (q *Queue) CancelWait(connID, gameType string) bool {
	if gameType == "" {
		return false
	}
	e := q.entryFor(gameType)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.waiting == nil || e.waiting.ID() != connID {
		return false
	}
	e.waiting = nil
	slog.Info("Player removed from waiting queue", "connID", connID, "gameType", gameType)
	return true
}

// Waiting reports whether connID is the stored waiter for gameType.
func (q *Queue) Waiting(connID, gameType string) bool {
	e := q.entryFor(gameType)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.waiting != nil && e.waiting.ID() == connID
}

// WaitingCount reports how many connections are currently waiting, across all
// game types. Used by the diagnostic endpoint.
func (q *Queue) WaitingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		e.mu.Lock()
		if e.waiting != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arcade-universe/server/internal/matchmaking"
	"github.com/arcade-universe/server/internal/scores"
	"github.com/arcade-universe/server/internal/session"
)

// StatsHandler serves the read-only diagnostic surface: connection, session
// and waiting counts, plus best scores per game type.
type StatsHandler struct {
	cm       *ConnectionManager
	registry *session.Registry
	queue    *matchmaking.Queue
	scores   scores.Store
}

func NewStatsHandler(cm *ConnectionManager, registry *session.Registry, queue *matchmaking.Queue, store scores.Store) *StatsHandler {
	return &StatsHandler{
		cm:       cm,
		registry: registry,
		queue:    queue,
		scores:   store,
	}
}

// writeJSON is a helper function to write JSON responses, handling
// serialization and headers.
func (h *StatsHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for sending structured JSON error responses.
func (h *StatsHandler) writeError(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, map[string]string{"error": message})
}

type statsResponse struct {
	ConnectedPlayers int            `json:"connectedPlayers"`
	ActiveRooms      int            `json:"activeRooms"`
	WaitingPlayers   int            `json:"waitingPlayers"`
	RoomsList        []session.Info `json:"roomsList"`
}

// HandleStats is the HTTP handler for GET /api/stats.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, statsResponse{
		ConnectedPlayers: h.cm.Count(),
		ActiveRooms:      h.registry.Count(),
		WaitingPlayers:   h.queue.WaitingCount(),
		RoomsList:        h.registry.Snapshot(),
	})
}

// HandleBestScore is the HTTP handler for GET /api/scores/{gameType}.
func (h *StatsHandler) HandleBestScore(w http.ResponseWriter, r *http.Request) {
	gameType := chi.URLParam(r, "gameType")
	if gameType == "" {
		h.writeError(w, http.StatusBadRequest, "Game type is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	best, ok, err := h.scores.Best(ctx, gameType)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to look up best score")
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "No recorded score for this game type")
		return
	}
	h.writeJSON(w, http.StatusOK, best)
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/overboard-game/server/internal/auth"
	"github.com/overboard-game/server/internal/domain"
	"github.com/overboard-game/server/internal/guard"
	"github.com/overboard-game/server/internal/repository"
	"github.com/overboard-game/server/internal/ws"
)

// WSHandler upgrades GET /games/{id}/ws into the event stream every
// gameplay interaction flows over.
type WSHandler struct {
	games      repository.GameRepository
	db         repository.DBTX
	identity   *auth.Identity
	hub        *ws.Hub
	dispatcher ws.Dispatcher
	limiter    *guard.RateLimiter
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

func NewWSHandler(
	games repository.GameRepository,
	db repository.DBTX,
	identity *auth.Identity,
	hub *ws.Hub,
	dispatcher ws.Dispatcher,
	limiter *guard.RateLimiter,
	logger *slog.Logger,
) *WSHandler {
	return &WSHandler{
		games:      games,
		db:         db,
		identity:   identity,
		hub:        hub,
		dispatcher: dispatcher,
		limiter:    limiter,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers cannot spoof tokens cross-site because identity
			// rides on the token, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve authenticates the caller, checks the game exists, then upgrades
// and runs the session until the connection drops.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	playerID, err := h.identity.FromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	gameID, err := gameIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	exists, err := h.games.Exists(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if !exists {
		RespondError(w, domain.ErrNotFound("game", gameID))
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "game_id", gameID, "error", err)
		return
	}

	h.logger.Info("websocket connected", "game_id", gameID, "player_id", playerID)

	session := ws.NewSession(gameID, playerID, socket, h.hub.Registry(gameID), h.dispatcher, h.limiter, h.logger)
	session.Run(r.Context())

	h.logger.Info("websocket disconnected", "game_id", gameID, "player_id", playerID)
}

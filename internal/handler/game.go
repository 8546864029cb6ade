package handler

import (
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/overboard-game/server/internal/auth"
	"github.com/overboard-game/server/internal/domain"
	"github.com/overboard-game/server/internal/repository"
)

// GameHandler serves the HTTP surface of the sync core: game creation,
// id generation, identity resolution and read-only projected views. All
// gameplay flows over the websocket.
type GameHandler struct {
	games    repository.GameRepository
	db       repository.DBTX
	identity *auth.Identity
	logger   *slog.Logger
}

func NewGameHandler(games repository.GameRepository, db repository.DBTX, identity *auth.Identity, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, db: db, identity: identity, logger: logger}
}

// Create handles POST /games. An explicit game_id query parameter claims
// that id; without one a random unused id is picked.
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var gameID int64
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			RespondError(w, domain.ErrValidation("game_id must be a positive integer"))
			return
		}
		gameID = parsed
	} else {
		id, err := h.unusedID(r)
		if err != nil {
			RespondError(w, err)
			return
		}
		gameID = id
	}

	game := domain.NewGame(gameID)
	if err := h.games.Create(r.Context(), h.db, game); err != nil {
		RespondError(w, err)
		return
	}

	h.logger.Info("game created", "game_id", gameID)
	RespondJSON(w, http.StatusCreated, map[string]int64{"game_id": gameID})
}

// UniqueID handles GET /games/uniqueid, returning a random id no
// existing game holds. The id is not reserved; creation may still race.
func (h *GameHandler) UniqueID(w http.ResponseWriter, r *http.Request) {
	id, err := h.unusedID(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]int64{"game_id": id})
}

func (h *GameHandler) unusedID(r *http.Request) (int64, error) {
	for attempt := 0; attempt < 16; attempt++ {
		candidate := rand.Int63n(90000) + 10000
		exists, err := h.games.Exists(r.Context(), h.db, candidate)
		if err != nil {
			return 0, err
		}
		if !exists {
			return candidate, nil
		}
	}
	return 0, domain.ErrInternal("no unused game id found", nil)
}

// PlayerID handles GET /playerid, resolving the caller's token to the
// stable player id used in game documents and events.
func (h *GameHandler) PlayerID(w http.ResponseWriter, r *http.Request) {
	playerID, err := h.identity.FromRequest(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"player_id": playerID})
}

// Info handles GET /games/{id}/info with lobby metadata, no concealed
// state involved.
func (h *GameHandler) Info(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	game, err := h.games.Load(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if game == nil {
		RespondError(w, domain.ErrNotFound("game", gameID))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"game_id": game.ID,
		"phase":   game.Phase,
		"players": len(game.Players),
		"started": game.Started(),
	})
}

// View handles GET /games/{id}: the full game document projected for the
// requesting player, everything they may not see concealed.
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
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

	game, err := h.games.Load(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if game == nil {
		RespondError(w, domain.ErrNotFound("game", gameID))
		return
	}

	RespondJSON(w, http.StatusOK, game.ViewFor(playerID))
}

func gameIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("game id must be a positive integer")
	}
	return id, nil
}

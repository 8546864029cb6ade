package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/overboard-game/server/internal/auth"
	"github.com/overboard-game/server/internal/guard"
	"github.com/overboard-game/server/internal/handler"
	"github.com/overboard-game/server/internal/repository"
	"github.com/overboard-game/server/internal/service"
	"github.com/overboard-game/server/internal/ws"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool     *pgxpool.Pool
	Identity *auth.Identity
	Notifier service.Notifier
	Limiter  *guard.RateLimiter
	Logger   *slog.Logger

	CORSAllowedOrigins string
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	logger := deps.Logger

	gameRepo := repository.NewGameRepository()
	dispatcher := service.NewDispatcher(gameRepo, pool, deps.Notifier, logger)
	hub := ws.NewHub(logger)

	gameHandler := handler.NewGameHandler(gameRepo, pool, deps.Identity, logger)
	wsHandler := handler.NewWSHandler(gameRepo, pool, deps.Identity, hub, dispatcher, deps.Limiter, logger)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSAllowedOrigins))

	// The websocket route skips the JSON content-type middleware; the
	// upgrade owns the response.
	r.Get("/games/{id}/ws", wsHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		r.Get("/health", handler.HealthHandler(pool))
		r.Get("/playerid", gameHandler.PlayerID)

		r.Route("/games", func(r chi.Router) {
			r.Post("/", gameHandler.Create)
			r.Get("/uniqueid", gameHandler.UniqueID)
			r.Get("/{id}", gameHandler.View)
			r.Get("/{id}/info", gameHandler.Info)
		})
	})

	return r
}

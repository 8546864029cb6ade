package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/overboard-game/server/internal/domain"
)

// Registry owns the live connections of one game session: at most one
// connection per player id. Map mutation and reads are serialized by a
// session-scoped mutex; nothing here is global.
type Registry struct {
	gameID int64
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]Conn
}

func newRegistry(gameID int64, logger *slog.Logger) *Registry {
	return &Registry{
		gameID: gameID,
		logger: logger,
		conns:  make(map[string]Conn),
	}
}

// Attach registers the player's connection. An existing connection for
// the same id is superseded and closed: the client reconnected and is
// treated as the same participant.
func (r *Registry) Attach(playerID string, conn Conn) {
	r.mu.Lock()
	old, existed := r.conns[playerID]
	r.conns[playerID] = conn
	r.mu.Unlock()

	if existed {
		old.Close("client made a new websocket connection")
	}
}

// Detach removes the player's connection if it is still the given one. A
// superseded connection detaching late must not evict its replacement.
func (r *Registry) Detach(playerID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.conns[playerID]; ok && current == conn {
		delete(r.conns, playerID)
	}
}

// Connected returns the number of live connections.
func (r *Registry) Connected() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) snapshot() map[string]Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make(map[string]Conn, len(r.conns))
	for id, conn := range r.conns {
		conns[id] = conn
	}
	return conns
}

// Route fans the event out: verbatim to its direct recipients (All minus
// the sender, nobody for Server, or the explicit id set) and, when the
// event is observable, the concealed projection to every other connected
// player. Recipients without a live connection are skipped; delivery is
// best effort.
func (r *Registry) Route(ctx context.Context, event domain.Event, from string) error {
	conns := r.snapshot()
	targets := event.EventTargets()

	direct := make(map[string]bool)
	switch {
	case targets.IsAll():
		for id := range conns {
			if id != from {
				direct[id] = true
			}
		}
	case targets.IsServer():
		// No direct recipients.
	default:
		for _, id := range targets.IDs {
			direct[id] = true
		}
	}

	full, err := json.Marshal(event)
	if err != nil {
		return domain.ErrInternal("encode event", err)
	}

	var concealed []byte
	if observable, ok := event.(domain.ObservableEvent); ok {
		concealed, err = json.Marshal(observable.Concealed())
		if err != nil {
			return domain.ErrInternal("encode concealed event", err)
		}
	}

	group, _ := errgroup.WithContext(ctx)
	for id, conn := range conns {
		id, conn := id, conn
		switch {
		case direct[id]:
			group.Go(func() error {
				r.deliver(id, conn, event.EventType(), full)
				return nil
			})
		case concealed != nil && id != from:
			group.Go(func() error {
				r.deliver(id, conn, event.EventType(), concealed)
				return nil
			})
		}
	}
	return group.Wait()
}

func (r *Registry) deliver(playerID string, conn Conn, eventType string, data []byte) {
	if err := conn.Send(data); err != nil {
		r.logger.Warn("event delivery dropped",
			"game_id", r.gameID,
			"player_id", playerID,
			"event_type", eventType,
			"error", err,
		)
	}
}

// Hub hands out one Registry per game session, created on the session's
// first connection.
type Hub struct {
	logger *slog.Logger

	mu         sync.Mutex
	registries map[int64]*Registry
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:     logger,
		registries: make(map[int64]*Registry),
	}
}

// Registry returns the session's registry, creating it on first use.
func (h *Hub) Registry(gameID int64) *Registry {
	h.mu.Lock()
	defer h.mu.Unlock()
	registry, ok := h.registries[gameID]
	if !ok {
		registry = newRegistry(gameID, h.logger)
		h.registries[gameID] = registry
	}
	return registry
}

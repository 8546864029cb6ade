package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/overboard-game/server/internal/domain"
	"github.com/overboard-game/server/internal/repository"
)

// Notifier publishes state-change notifications after each persisted
// dispatch. Satisfied by infra.KafkaProducer; may be nil.
type Notifier interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// HandlerFunc executes one inbound event against the authoritative game
// and returns the response events addressed to the players.
type HandlerFunc func(ctx context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error)

// Dispatcher routes inbound events to their registered handler, running
// one load-handle-save critical section at a time per game. Different
// games dispatch fully in parallel.
type Dispatcher struct {
	games    repository.GameRepository
	db       repository.DBTX
	notifier Notifier
	logger   *slog.Logger

	handlers map[string]HandlerFunc

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewDispatcher builds the dispatcher with the default handler table.
// Registering two handlers for one discriminator is a configuration bug
// and panics at startup.
func NewDispatcher(games repository.GameRepository, db repository.DBTX, notifier Notifier, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		games:    games,
		db:       db,
		notifier: notifier,
		logger:   logger,
		handlers: map[string]HandlerFunc{},
		locks:    map[int64]*sync.Mutex{},
	}
	d.register("PlayerConnect", handlePlayerConnect)
	d.register("NameChange", handleNameChange)
	d.register("StartRequest", handleStartRequest)
	d.register("TakeSupply", handleTakeSupply)
	d.register("NavigationRequest", handleNavigationRequest)
	d.register("NavigationChoice", handleNavigationChoice)
	return d
}

func (d *Dispatcher) register(eventType string, handler HandlerFunc) {
	if _, dup := d.handlers[eventType]; dup {
		panic(fmt.Sprintf("handler for event type %q registered twice", eventType))
	}
	d.handlers[eventType] = handler
}

// sessionLock returns the mutex serializing dispatches for one game.
func (d *Dispatcher) sessionLock(gameID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	lock, ok := d.locks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[gameID] = lock
	}
	return lock
}

// Dispatch loads the authoritative game, runs the handler registered for
// the event's discriminator, persists the resulting snapshot, and returns
// the handler's response events. A handler failure leaves nothing
// persisted; a save failure is fatal to the dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, gameID int64, event domain.PlayerEvent) ([]domain.Event, error) {
	handler, ok := d.handlers[event.EventType()]
	if !ok {
		return nil, domain.ErrDispatch(event.EventType())
	}

	lock := d.sessionLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	game, err := d.games.Load(ctx, d.db, gameID)
	if err != nil {
		return nil, domain.ErrInternal("load game", err)
	}
	if game == nil {
		return nil, domain.ErrNotFound("game", gameID)
	}

	responses, err := handler(ctx, game, event)
	if err != nil {
		return nil, err
	}

	if err := d.games.Save(ctx, d.db, game); err != nil {
		return nil, domain.ErrInternal("save game", err)
	}
	d.notify(ctx, game, event)

	return responses, nil
}

func (d *Dispatcher) notify(ctx context.Context, game *domain.Game, event domain.PlayerEvent) {
	if d.notifier == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"game_id":    game.ID,
		"event_type": event.EventType(),
		"phase":      game.Phase,
		"players":    len(game.Players),
	})
	key := []byte(fmt.Sprintf("%d", game.ID))
	if err := d.notifier.Publish(ctx, "overboard.game.updated", key, payload); err != nil {
		d.logger.Error("state-change notification failed", "game_id", game.ID, "error", err)
	}
}

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/overboard-game/server/internal/domain"
	"github.com/overboard-game/server/internal/guard"
)

// Dispatcher applies one inbound player event against a game session and
// returns the server events it produced.
type Dispatcher interface {
	Dispatch(ctx context.Context, gameID int64, event domain.PlayerEvent) ([]domain.Event, error)
}

// SocketError is the notice sent back to a client whose event was
// rejected. The connection stays open; only transport failures end it.
type SocketError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newSocketError(err error) SocketError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return SocketError{Type: "SocketError", Code: appErr.Code, Message: appErr.Message}
	}
	return SocketError{Type: "SocketError", Code: "INTERNAL_ERROR", Message: "internal error"}
}

// Session drives one player's websocket for the lifetime of the
// connection: read, decode, dispatch, route.
type Session struct {
	gameID     int64
	playerID   string
	socket     *websocket.Conn
	conn       Conn
	registry   *Registry
	dispatcher Dispatcher
	limiter    *guard.RateLimiter
	logger     *slog.Logger
}

// NewSession attaches the player to the game registry and returns the
// running session. The caller owns the read loop via Run.
func NewSession(
	gameID int64,
	playerID string,
	socket *websocket.Conn,
	registry *Registry,
	dispatcher Dispatcher,
	limiter *guard.RateLimiter,
	logger *slog.Logger,
) *Session {
	conn := newSocketConn(socket, logger)
	registry.Attach(playerID, conn)
	return &Session{
		gameID:     gameID,
		playerID:   playerID,
		socket:     socket,
		conn:       conn,
		registry:   registry,
		dispatcher: dispatcher,
		limiter:    limiter,
		logger: logger.With(
			"game_id", gameID,
			"player_id", playerID,
		),
	}
}

// Run reads events until the connection drops. Rejected events produce a
// SocketError notice and the loop continues; a failed read or a cancelled
// context ends the session and detaches the connection.
func (s *Session) Run(ctx context.Context) {
	defer func() {
		s.registry.Detach(s.playerID, s.conn)
		s.conn.Close("")
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		_, data, err := s.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		s.handle(ctx, data)
	}
}

func (s *Session) handle(ctx context.Context, data []byte) {
	if result := s.limiter.Check(ctx, s.playerID); !result.Allowed {
		s.reject(domain.ErrRateLimited(result.Reason))
		return
	}

	event, err := domain.DecodePlayerEvent(data, s.playerID)
	if err != nil {
		s.reject(err)
		return
	}

	responses, err := s.dispatcher.Dispatch(ctx, s.gameID, event)
	if err != nil {
		s.reject(err)
		return
	}

	// The inbound event is echoed to its audience before the server's
	// responses so every client observes the same order of causes and
	// effects.
	if err := s.registry.Route(ctx, event, s.playerID); err != nil {
		s.logger.Warn("event routing failed", "event_type", event.EventType(), "error", err)
	}
	for _, response := range responses {
		if err := s.registry.Route(ctx, response, s.playerID); err != nil {
			s.logger.Warn("event routing failed", "event_type", response.EventType(), "error", err)
		}
	}
}

func (s *Session) reject(err error) {
	s.logger.Info("event rejected", "error", err)

	notice, marshalErr := json.Marshal(newSocketError(err))
	if marshalErr != nil {
		return
	}
	if sendErr := s.conn.Send(notice); sendErr != nil {
		s.logger.Warn("socket error notice dropped", "error", sendErr)
	}
}

//go:build integration

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/overboard-game/server/internal/auth"
)

// GET performs a GET request, attaching the player token cookie when set.
func (env *TestEnv) GET(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with an empty body.
func (env *TestEnv) POST(path, token string) *http.Response {
	env.t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.Server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: token})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// DecodeJSON reads and decodes a JSON response body into dst.
func (env *TestEnv) DecodeJSON(resp *http.Response, dst interface{}) {
	env.t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		env.t.Fatalf("DecodeJSON: %v", err)
	}
}

// CreateGame creates a game with the given id over the HTTP API.
func (env *TestEnv) CreateGame(gameID int64) {
	env.t.Helper()
	resp := env.POST(fmt.Sprintf("/games?game_id=%d", gameID), "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("CreateGame: expected 201, got %d", resp.StatusCode)
	}
}

// GameSocket is one player's websocket into a game session.
type GameSocket struct {
	Conn     *websocket.Conn
	PlayerID string
	env      *TestEnv
}

// Connect opens a websocket to the game as the player behind the token.
func (env *TestEnv) Connect(gameID int64, token string) *GameSocket {
	env.t.Helper()

	wsURL := strings.Replace(env.Server.URL, "http://", "ws://", 1)
	url := fmt.Sprintf("%s/games/%d/ws?token=%s", wsURL, gameID, token)

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		env.t.Fatalf("Connect game %d: %v (status %d)", gameID, err, status)
	}

	socket := &GameSocket{
		Conn:     conn,
		PlayerID: env.Identity.PlayerID(token),
		env:      env,
	}
	env.t.Cleanup(func() { conn.Close() })
	return socket
}

// SendEvent writes the event as a JSON frame.
func (s *GameSocket) SendEvent(event interface{}) {
	s.env.t.Helper()
	if err := s.Conn.WriteJSON(event); err != nil {
		s.env.t.Fatalf("SendEvent: %v", err)
	}
}

// ReadEvent reads the next frame and returns its decoded JSON object.
func (s *GameSocket) ReadEvent() map[string]json.RawMessage {
	s.env.t.Helper()
	s.Conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, data, err := s.Conn.ReadMessage()
	if err != nil {
		s.env.t.Fatalf("ReadEvent: %v", err)
	}

	var event map[string]json.RawMessage
	if err := json.Unmarshal(data, &event); err != nil {
		s.env.t.Fatalf("ReadEvent: decode: %v", err)
	}
	return event
}

// ReadEventType reads the next frame and asserts its type tag.
func (s *GameSocket) ReadEventType(expected string) map[string]json.RawMessage {
	s.env.t.Helper()
	event := s.ReadEvent()

	var eventType string
	if err := json.Unmarshal(event["type"], &eventType); err != nil {
		s.env.t.Fatalf("ReadEventType: missing type tag: %v", err)
	}
	if eventType != expected {
		s.env.t.Fatalf("ReadEventType: expected %q, got %q", expected, eventType)
	}
	return event
}

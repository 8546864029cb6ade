package domain

import (
	"encoding/json"
	"fmt"
)

// PlayerEvent is an event initiated by a player. The acting identity is
// derived server-side from the connection's opaque credential; whatever a
// client writes into client_id is overwritten at decode time.
type PlayerEvent interface {
	Event
	Player() string
	stampPlayer(id string)
}

// PlayerEventBase carries the acting player's derived id.
type PlayerEventBase struct {
	EventBase
	ClientID string `json:"client_id"`
}

func (b PlayerEventBase) Player() string         { return b.ClientID }
func (b *PlayerEventBase) stampPlayer(id string) { b.ClientID = id }

// PlayerConnect announces a player joining the game.
type PlayerConnect struct {
	PlayerEventBase
}

func NewPlayerConnect() *PlayerConnect {
	return &PlayerConnect{PlayerEventBase{EventBase: EventBase{Type: "PlayerConnect", Targets: TargetsAll()}}}
}

// NameChange sets the acting player's display name.
type NameChange struct {
	PlayerEventBase
	NewName string `json:"new_name"`
}

func NewNameChange() *NameChange {
	return &NameChange{PlayerEventBase: PlayerEventBase{EventBase: EventBase{Type: "NameChange", Targets: TargetsAll()}}}
}

// StartRequest asks the server to start the game. Honored only when it
// comes from the host.
type StartRequest struct {
	PlayerEventBase
}

func NewStartRequest() *StartRequest {
	return &StartRequest{PlayerEventBase{EventBase: EventBase{Type: "StartRequest", Targets: TargetsAll()}}}
}

// TakeSupply is the active player drawing a specific card from the supply
// stash during Morning. Addressed to the server; the other players only
// see that a card left the stash.
type TakeSupply struct {
	ObservableBase
	PlayerEventBase
	Supply Hidden[Supply] `json:"supply"`
}

func NewTakeSupply() *TakeSupply {
	return &TakeSupply{PlayerEventBase: PlayerEventBase{EventBase: EventBase{Type: "TakeSupply", Targets: TargetsServer()}}}
}

func (e *TakeSupply) Concealed() Event {
	c := *e
	c.Observed = true
	c.Supply = Unknown[Supply]()
	return &c
}

// NavigationRequest is the active player asking for course cards during
// Day.
type NavigationRequest struct {
	PlayerEventBase
}

func NewNavigationRequest() *NavigationRequest {
	return &NavigationRequest{PlayerEventBase{EventBase: EventBase{Type: "NavigationRequest", Targets: TargetsServer()}}}
}

// NavigationChoice commits the active player to saving one of the offered
// course cards. The other players only see that a card was saved.
type NavigationChoice struct {
	ObservableBase
	PlayerEventBase
	Navigation Hidden[Navigation] `json:"navigation"`
}

func NewNavigationChoice() *NavigationChoice {
	return &NavigationChoice{PlayerEventBase: PlayerEventBase{EventBase: EventBase{Type: "NavigationChoice", Targets: TargetsServer()}}}
}

func (e *NavigationChoice) Concealed() Event {
	c := *e
	c.Observed = true
	c.Navigation = Unknown[Navigation]()
	return &c
}

// playerEventRegistry maps a discriminator to a factory returning a fresh
// instance with the variant's defaults set. Built once at definition time;
// a duplicate registration is a configuration bug and fails fast.
var playerEventRegistry = map[string]func() PlayerEvent{}

func registerPlayerEvent(name string, factory func() PlayerEvent) {
	if _, dup := playerEventRegistry[name]; dup {
		panic(fmt.Sprintf("player event %q registered twice", name))
	}
	playerEventRegistry[name] = factory
}

func init() {
	registerPlayerEvent("PlayerConnect", func() PlayerEvent { return NewPlayerConnect() })
	registerPlayerEvent("NameChange", func() PlayerEvent { return NewNameChange() })
	registerPlayerEvent("StartRequest", func() PlayerEvent { return NewStartRequest() })
	registerPlayerEvent("TakeSupply", func() PlayerEvent { return NewTakeSupply() })
	registerPlayerEvent("NavigationRequest", func() PlayerEvent { return NewNavigationRequest() })
	registerPlayerEvent("NavigationChoice", func() PlayerEvent { return NewNavigationChoice() })
}

// PlayerEventTypes lists the registered inbound discriminators.
func PlayerEventTypes() []string {
	types := make([]string, 0, len(playerEventRegistry))
	for name := range playerEventRegistry {
		types = append(types, name)
	}
	return types
}

// DecodePlayerEvent builds the typed event named by the wire message's
// discriminator and stamps the acting player's identity onto it. A missing
// or unrecognized discriminator is a decoding error.
func DecodePlayerEvent(data []byte, from string) (PlayerEvent, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, ErrDecoding("malformed event", err)
	}
	if envelope.Type == "" {
		return nil, ErrDecoding("event type not provided", nil)
	}
	factory, ok := playerEventRegistry[envelope.Type]
	if !ok {
		return nil, ErrDecoding(fmt.Sprintf("unknown event type %q", envelope.Type), nil)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, ErrDecoding(fmt.Sprintf("invalid %s payload", envelope.Type), err)
	}
	if event.EventTargets().IsZero() {
		return nil, ErrDecoding("event targets must not be empty", nil)
	}
	event.stampPlayer(from)
	return event, nil
}

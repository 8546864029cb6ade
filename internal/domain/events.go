package domain

import (
	"encoding/json"
	"fmt"
)

// Target sentinels. An event addressed to All goes verbatim to every player
// except its sender; Server means the event is consumed by the server only
// and nothing is forwarded directly.
const (
	TargetsAllSentinel    = "All"
	TargetsServerSentinel = "Server"
)

// Targets is an event's addressing: the All or Server sentinel, or an
// explicit non-empty recipient id set.
type Targets struct {
	Sentinel string
	IDs      []string
}

func TargetsAll() Targets    { return Targets{Sentinel: TargetsAllSentinel} }
func TargetsServer() Targets { return Targets{Sentinel: TargetsServerSentinel} }

// TargetsFor addresses an event at an explicit recipient set.
func TargetsFor(ids ...string) Targets { return Targets{IDs: ids} }

func (t Targets) IsAll() bool    { return t.Sentinel == TargetsAllSentinel }
func (t Targets) IsServer() bool { return t.Sentinel == TargetsServerSentinel }

// IsZero reports an unaddressed event (no sentinel, no ids), which takes
// the variant's default at decode time.
func (t Targets) IsZero() bool { return t.Sentinel == "" && len(t.IDs) == 0 }

func (t Targets) MarshalJSON() ([]byte, error) {
	if t.Sentinel != "" {
		return json.Marshal(t.Sentinel)
	}
	return json.Marshal(t.IDs)
}

func (t *Targets) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != TargetsAllSentinel && s != TargetsServerSentinel {
			return fmt.Errorf("unknown targets sentinel %q", s)
		}
		*t = Targets{Sentinel: s}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("targets must be %q, %q or an id list", TargetsAllSentinel, TargetsServerSentinel)
	}
	*t = Targets{IDs: ids}
	return nil
}

// Event is one tagged variant of the game event union. The type
// discriminator is fixed at construction and equals the variant's name.
type Event interface {
	EventType() string
	EventTargets() Targets
}

// EventBase carries the discriminator and addressing shared by every
// variant.
type EventBase struct {
	Type    string  `json:"type"`
	Targets Targets `json:"targets"`
}

func (b EventBase) EventType() string     { return b.Type }
func (b EventBase) EventTargets() Targets { return b.Targets }

// singleTarget builds the addressing of a TargetedEvent: exactly one
// recipient, validated at construction.
func singleTarget(id string) (Targets, error) {
	if id == "" {
		return Targets{}, ErrValidation("targeted event requires exactly one recipient id")
	}
	return TargetsFor(id), nil
}

// Server events: responses produced by event handlers.

// HostChange announces the new host of the game.
type HostChange struct {
	EventBase
	NewHost string `json:"new_host"`
}

func NewHostChange(newHost string) *HostChange {
	return &HostChange{
		EventBase: EventBase{Type: "HostChange", Targets: TargetsAll()},
		NewHost:   newHost,
	}
}

// GameStart announces the round start and the character each player was
// dealt. Characters are public information.
type GameStart struct {
	EventBase
	AssignedCharacters map[string]Character `json:"assigned_characters"`
}

func NewGameStart(assigned map[string]Character) *GameStart {
	return &GameStart{
		EventBase:          EventBase{Type: "GameStart", Targets: TargetsAll()},
		AssignedCharacters: assigned,
	}
}

// NewRelationships privately tells one player who their friend and enemy
// are. Targeted: exactly one recipient, nothing for anyone else.
type NewRelationships struct {
	EventBase
	Friend string `json:"friend"`
	Enemy  string `json:"enemy"`
}

func NewNewRelationships(target, friend, enemy string) (*NewRelationships, error) {
	targets, err := singleTarget(target)
	if err != nil {
		return nil, err
	}
	return &NewRelationships{
		EventBase: EventBase{Type: "NewRelationships", Targets: targets},
		Friend:    friend,
		Enemy:     enemy,
	}, nil
}

// NewSupplies tells a player which supply cards they received. Everyone
// else sees only how many.
type NewSupplies struct {
	ObservableBase
	EventBase
	Supplies []Hidden[Supply] `json:"supplies"`
}

func NewNewSupplies(target string, supplies []Supply) (*NewSupplies, error) {
	targets, err := singleTarget(target)
	if err != nil {
		return nil, err
	}
	return &NewSupplies{
		EventBase: EventBase{Type: "NewSupplies", Targets: targets},
		Supplies:  knownAll(supplies),
	}, nil
}

func (e *NewSupplies) Concealed() Event {
	c := *e
	c.Observed = true
	c.Supplies = concealAll(e.Supplies)
	return &c
}

// TurnChange announces whose turn it is now. An empty NewActivePlayer
// means the queue drained.
type TurnChange struct {
	EventBase
	NewActivePlayer string `json:"new_active_player"`
}

func NewTurnChange(newActive string) *TurnChange {
	return &TurnChange{
		EventBase:       EventBase{Type: "TurnChange", Targets: TargetsAll()},
		NewActivePlayer: newActive,
	}
}

// SupplyShowcase privately shows the active player the supply stash they
// draw from. Everyone else sees only the stash size.
type SupplyShowcase struct {
	ObservableBase
	EventBase
	Supplies []Hidden[Supply] `json:"supplies"`
}

func NewSupplyShowcase(target string, stash []Hidden[Supply]) (*SupplyShowcase, error) {
	targets, err := singleTarget(target)
	if err != nil {
		return nil, err
	}
	supplies := make([]Hidden[Supply], len(stash))
	copy(supplies, stash)
	return &SupplyShowcase{
		EventBase: EventBase{Type: "SupplyShowcase", Targets: targets},
		Supplies:  supplies,
	}, nil
}

func (e *SupplyShowcase) Concealed() Event {
	c := *e
	c.Observed = true
	c.Supplies = concealAll(e.Supplies)
	return &c
}

// PhaseChange announces a phase transition.
type PhaseChange struct {
	EventBase
	NewPhase Phase `json:"new_phase"`
}

func NewPhaseChange(phase Phase) *PhaseChange {
	return &PhaseChange{
		EventBase: EventBase{Type: "PhaseChange", Targets: TargetsAll()},
		NewPhase:  phase,
	}
}

// NavigationOffer privately shows the requesting player the course cards
// offered to them. Everyone else sees only that two cards were drawn.
type NavigationOffer struct {
	ObservableBase
	EventBase
	Navigations []Hidden[Navigation] `json:"navigations"`
}

func NewNavigationOffer(target string, offered []Hidden[Navigation]) (*NavigationOffer, error) {
	targets, err := singleTarget(target)
	if err != nil {
		return nil, err
	}
	navigations := make([]Hidden[Navigation], len(offered))
	copy(navigations, offered)
	return &NavigationOffer{
		EventBase:   EventBase{Type: "NavigationOffer", Targets: targets},
		Navigations: navigations,
	}, nil
}

func (e *NavigationOffer) Concealed() Event {
	c := *e
	c.Observed = true
	c.Navigations = concealAll(e.Navigations)
	return &c
}

package domain

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Phase is the round phase. It only advances forward through
// Lobby → Morning → Day → Evening; a new round resets it explicitly.
type Phase string

const (
	PhaseLobby   Phase = "Lobby"
	PhaseMorning Phase = "Morning"
	PhaseDay     Phase = "Day"
	PhaseEvening Phase = "Evening"
)

var phaseOrder = map[Phase]int{
	PhaseLobby:   0,
	PhaseMorning: 1,
	PhaseDay:     2,
	PhaseEvening: 3,
}

// Player is the per-participant state. Supplies and relationships are
// private: another player's view replaces them with placeholders.
type Player struct {
	ObservableBase
	Name          string           `json:"name,omitempty"`
	Character     *Character       `json:"character,omitempty"`
	Supplies      []Hidden[Supply] `json:"supplies"`
	Friend        string           `json:"friend,omitempty"`
	Enemy         string           `json:"enemy,omitempty"`
	RowedThisTurn bool             `json:"rowed_this_turn"`
}

// View returns the player as seen by a viewer. The subject sees themselves
// unchanged; anyone else gets the concealed projection.
func (p *Player) View(viewerIsSubject bool) *Player {
	if viewerIsSubject {
		return p
	}
	c := *p
	c.Observed = true
	c.Supplies = concealAll(p.Supplies)
	c.Friend = ""
	c.Enemy = ""
	return &c
}

// Game is the authoritative aggregate for one session. It is loaded and
// saved as a whole document; the rng field is runtime-only.
type Game struct {
	ObservableBase
	ID                 int64                `json:"id"`
	Phase              Phase                `json:"phase"`
	Players            map[string]*Player   `json:"players"`
	Host               string               `json:"host,omitempty"`
	ActivePlayer       string               `json:"active_player,omitempty"`
	TurnQueue          []string             `json:"player_turn_queue"`
	SupplyStash        []Hidden[Supply]     `json:"supply_stash"`
	NavigationStash    []Hidden[Navigation] `json:"navigation_stash"`
	OfferedNavigations []Hidden[Navigation] `json:"offered_navigations"`

	rng *rand.Rand
}

// NewGame creates an empty Lobby game.
func NewGame(id int64) *Game {
	return &Game{
		ID:      id,
		Phase:   PhaseLobby,
		Players: map[string]*Player{},
	}
}

// Started reports whether the round has left the lobby.
func (g *Game) Started() bool { return g.Phase != PhaseLobby }

// Seed replaces the game's random source. Tests use a fixed seed to make
// every draw reproducible.
func (g *Game) Seed(rng *rand.Rand) { g.rng = rng }

func (g *Game) rand() *rand.Rand {
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g.rng
}

// sortedPlayerIDs returns the player ids in sorted order. Every random
// draw iterates this, never the map, so a seeded source reproduces exactly.
func (g *Game) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(g.Players))
	for id := range g.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ApplyEvent mutates the aggregate according to the event variant's
// declared effect. It returns a StateError when the event is inapplicable
// to the current phase or state. Authorization (turn, host) is the
// caller's concern.
func (g *Game) ApplyEvent(event Event) error {
	switch e := event.(type) {
	case *PlayerConnect:
		if _, exists := g.Players[e.Player()]; exists {
			return ErrState("a player with this client id already exists in this game")
		}
		g.Players[e.Player()] = &Player{Supplies: []Hidden[Supply]{}}
		return nil

	case *NameChange:
		player, exists := g.Players[e.Player()]
		if !exists {
			return ErrState("cannot rename a player who is not in the game")
		}
		player.Name = e.NewName
		return nil

	case *HostChange:
		if _, exists := g.Players[e.NewHost]; !exists {
			return ErrState("host must be a player of this game")
		}
		g.Host = e.NewHost
		return nil

	case *PhaseChange:
		if phaseOrder[e.NewPhase] <= phaseOrder[g.Phase] {
			return ErrState(fmt.Sprintf("phase cannot move from %s to %s", g.Phase, e.NewPhase))
		}
		g.Phase = e.NewPhase
		for _, player := range g.Players {
			player.RowedThisTurn = false
		}
		return nil

	case *TakeSupply:
		if g.Phase != PhaseMorning {
			return ErrState(fmt.Sprintf("supplies are taken during %s, not %s", PhaseMorning, g.Phase))
		}
		supply, known := e.Supply.Value()
		if !known {
			return ErrState("take supply event names no supply")
		}
		idx := g.stashIndexOf(supply)
		if idx < 0 {
			return ErrState("chosen supply is not in the stash")
		}
		g.SupplyStash = append(g.SupplyStash[:idx], g.SupplyStash[idx+1:]...)
		player := g.Players[e.Player()]
		if player == nil {
			return ErrState("acting player is not in the game")
		}
		player.Supplies = append(player.Supplies, Known(supply))
		return nil

	case *NavigationRequest:
		if g.Phase != PhaseDay {
			return ErrState(fmt.Sprintf("navigations are requested during %s, not %s", PhaseDay, g.Phase))
		}
		if len(g.OfferedNavigations) > 0 {
			return ErrState("navigation cards are already offered")
		}
		g.OfferedNavigations = g.GenerateOfferedNavigations()
		return nil

	case *NavigationChoice:
		if g.Phase != PhaseDay {
			return ErrState(fmt.Sprintf("navigations are saved during %s, not %s", PhaseDay, g.Phase))
		}
		chosen, known := e.Navigation.Value()
		if !known {
			return ErrState("navigation choice names no card")
		}
		idx := g.offeredIndexOf(chosen)
		if idx < 0 {
			return ErrState("chosen navigation was not among those offered")
		}
		g.NavigationStash = append(g.NavigationStash, g.OfferedNavigations[idx])
		g.OfferedNavigations = nil
		player := g.Players[e.Player()]
		if player == nil {
			return ErrState("acting player is not in the game")
		}
		player.RowedThisTurn = true
		return nil
	}
	return ErrState(fmt.Sprintf("event %s has no defined effect on game state", event.EventType()))
}

func (g *Game) stashIndexOf(supply Supply) int {
	for i, h := range g.SupplyStash {
		if v, known := h.Value(); known && supplyEqual(v, supply) {
			return i
		}
	}
	return -1
}

func supplyEqual(a, b Supply) bool {
	if a.Type != b.Type || a.Points != b.Points {
		return false
	}
	if (a.Strength == nil) != (b.Strength == nil) {
		return false
	}
	return a.Strength == nil || *a.Strength == *b.Strength
}

func (g *Game) offeredIndexOf(nav Navigation) int {
	for i, h := range g.OfferedNavigations {
		if v, known := h.Value(); known && navigationEqual(v, nav) {
			return i
		}
	}
	return -1
}

func navigationEqual(a, b Navigation) bool {
	if a.Birds != b.Birds || a.ThirstTrigger != b.ThirstTrigger {
		return false
	}
	return stringsEqual(a.Overboard, b.Overboard) && stringsEqual(a.Thirsty, b.Thirsty)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ResetTurnOrder rebuilds the turn queue as all player ids sorted
// ascending by their character's seating order. Every player must already
// have a character.
func (g *Game) ResetTurnOrder() error {
	ids := g.sortedPlayerIDs()
	for _, id := range ids {
		if g.Players[id].Character == nil {
			return ErrState(fmt.Sprintf("player %s has no assigned character", id))
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Players[ids[i]].Character.Order < g.Players[ids[j]].Character.Order
	})
	g.TurnQueue = ids
	return nil
}

// ChangeTurn pops the queue head into the active player slot, or clears
// the slot when the queue is drained. This is the sole turn-advancement
// mechanism.
func (g *Game) ChangeTurn() {
	if len(g.TurnQueue) == 0 {
		g.ActivePlayer = ""
		return
	}
	g.ActivePlayer = g.TurnQueue[0]
	g.TurnQueue = g.TurnQueue[1:]
}

// AssignCharacters deals each player a distinct character drawn without
// replacement from the archetype pool and returns the assignment.
func (g *Game) AssignCharacters() (map[string]Character, error) {
	ids := g.sortedPlayerIDs()
	if len(ids) > len(CharacterArchetypes) {
		return nil, ErrState(fmt.Sprintf("cannot seat %d players with %d characters", len(ids), len(CharacterArchetypes)))
	}
	rng := g.rand()
	perm := rng.Perm(len(CharacterArchetypes))
	assigned := make(map[string]Character, len(ids))
	for i, id := range ids {
		character := CharacterArchetypes[perm[i]]
		g.Players[id].Character = &character
		assigned[id] = character
	}
	return assigned, nil
}

// Relationship is one player's randomly assigned friend and enemy.
type Relationship struct {
	Friend string
	Enemy  string
}

// AssignRelationships draws each player one random friend and one random
// enemy. Draws are independent over the full player set: a relation may be
// the player themselves and friend may coincide with enemy.
func (g *Game) AssignRelationships() map[string]Relationship {
	ids := g.sortedPlayerIDs()
	rng := g.rand()
	out := make(map[string]Relationship, len(ids))
	for _, id := range ids {
		rel := Relationship{
			Friend: ids[rng.Intn(len(ids))],
			Enemy:  ids[rng.Intn(len(ids))],
		}
		g.Players[id].Friend = rel.Friend
		g.Players[id].Enemy = rel.Enemy
		out[id] = rel
	}
	return out
}

// DealStartingSupplies gives each player one random supply card and
// returns what each received.
func (g *Game) DealStartingSupplies() map[string]Supply {
	ids := g.sortedPlayerIDs()
	rng := g.rand()
	out := make(map[string]Supply, len(ids))
	for _, id := range ids {
		supply := SupplyArchetypes[rng.Intn(len(SupplyArchetypes))]
		g.Players[id].Supplies = append(g.Players[id].Supplies, Known(supply))
		out[id] = supply
	}
	return out
}

// CreateSupplyStash draws one random supply archetype per player, sampling
// with replacement, into the stash.
func (g *Game) CreateSupplyStash() {
	rng := g.rand()
	stash := make([]Hidden[Supply], 0, len(g.Players))
	for range g.Players {
		stash = append(stash, Known(SupplyArchetypes[rng.Intn(len(SupplyArchetypes))]))
	}
	g.SupplyStash = stash
}

// GenerateOfferedNavigations produces exactly two candidate course cards
// using weighted draws over three independent axes.
func (g *Game) GenerateOfferedNavigations() []Hidden[Navigation] {
	ids := g.sortedPlayerIDs()
	rng := g.rand()
	return []Hidden[Navigation]{
		Known(rollNavigation(rng, ids)),
		Known(rollNavigation(rng, ids)),
	}
}

// ViewFor returns the game as seen by the given viewer id: the viewer's
// own player in full, everyone else concealed, stashes face down, and the
// offered cards visible only to the active player. A viewer who is not a
// player gets the spectator view.
func (g *Game) ViewFor(viewerID string) *Game {
	view := *g
	view.Observed = true
	view.Players = make(map[string]*Player, len(g.Players))
	for id, player := range g.Players {
		view.Players[id] = player.View(id == viewerID)
	}
	view.SupplyStash = concealAll(g.SupplyStash)
	view.NavigationStash = concealAll(g.NavigationStash)
	if viewerID != g.ActivePlayer || viewerID == "" {
		view.OfferedNavigations = concealAll(g.OfferedNavigations)
	}
	return &view
}

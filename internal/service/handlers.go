package service

import (
	"context"
	"sort"

	"github.com/overboard-game/server/internal/domain"
)

// handlePlayerConnect adds the player to the game. The first player to
// join an ownerless game becomes its host.
func handlePlayerConnect(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	if err := game.ApplyEvent(event); err != nil {
		return nil, err
	}
	if game.Host != "" {
		return nil, nil
	}
	hostChange := domain.NewHostChange(event.Player())
	if err := game.ApplyEvent(hostChange); err != nil {
		return nil, err
	}
	return []domain.Event{hostChange}, nil
}

func handleNameChange(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	return nil, game.ApplyEvent(event)
}

// handleStartRequest starts the round: host only. Deals characters,
// relationships and starting supplies, builds the stash, then opens
// Morning with the first turn.
func handleStartRequest(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	if game.Host != event.Player() {
		return nil, domain.ErrAuthorization("start request does not come from the game host")
	}
	if game.Started() {
		return nil, domain.ErrState("the game has already started")
	}

	assigned, err := game.AssignCharacters()
	if err != nil {
		return nil, err
	}
	relationships := game.AssignRelationships()
	dealt := game.DealStartingSupplies()
	game.CreateSupplyStash()

	if err := game.ApplyEvent(domain.NewPhaseChange(domain.PhaseMorning)); err != nil {
		return nil, err
	}
	if err := game.ResetTurnOrder(); err != nil {
		return nil, err
	}
	game.ChangeTurn()

	responses := []domain.Event{domain.NewGameStart(assigned)}
	for _, id := range sortedKeys(relationships) {
		rel := relationships[id]
		event, err := domain.NewNewRelationships(id, rel.Friend, rel.Enemy)
		if err != nil {
			return nil, err
		}
		responses = append(responses, event)
	}
	for _, id := range sortedKeys(dealt) {
		event, err := domain.NewNewSupplies(id, []domain.Supply{dealt[id]})
		if err != nil {
			return nil, err
		}
		responses = append(responses, event)
	}
	responses = append(responses, domain.NewTurnChange(game.ActivePlayer))
	showcase, err := domain.NewSupplyShowcase(game.ActivePlayer, game.SupplyStash)
	if err != nil {
		return nil, err
	}
	return append(responses, showcase), nil
}

// handleTakeSupply moves the chosen card from the stash to the active
// player's hand and advances the turn. Draining the Morning queue flips
// the phase to Day and seats a fresh turn order.
func handleTakeSupply(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	if event.Player() != game.ActivePlayer {
		return nil, domain.ErrAuthorization("it is not this player's turn")
	}
	if err := game.ApplyEvent(event); err != nil {
		return nil, err
	}

	game.ChangeTurn()
	if game.ActivePlayer != "" {
		showcase, err := domain.NewSupplyShowcase(game.ActivePlayer, game.SupplyStash)
		if err != nil {
			return nil, err
		}
		return []domain.Event{domain.NewTurnChange(game.ActivePlayer), showcase}, nil
	}

	phaseChange := domain.NewPhaseChange(domain.PhaseDay)
	if err := game.ApplyEvent(phaseChange); err != nil {
		return nil, err
	}
	if err := game.ResetTurnOrder(); err != nil {
		return nil, err
	}
	game.ChangeTurn()
	return []domain.Event{phaseChange, domain.NewTurnChange(game.ActivePlayer)}, nil
}

// handleNavigationRequest offers the active player two course cards.
func handleNavigationRequest(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	if event.Player() != game.ActivePlayer {
		return nil, domain.ErrAuthorization("it is not this player's turn")
	}
	if player := game.Players[event.Player()]; player != nil && player.RowedThisTurn {
		return nil, domain.ErrAuthorization("this player already rowed this turn")
	}
	if err := game.ApplyEvent(event); err != nil {
		return nil, err
	}
	offer, err := domain.NewNavigationOffer(event.Player(), game.OfferedNavigations)
	if err != nil {
		return nil, err
	}
	return []domain.Event{offer}, nil
}

// handleNavigationChoice saves the chosen card to the navigation stash
// and advances the turn. Draining the Day queue closes the phase into
// Evening.
func handleNavigationChoice(_ context.Context, game *domain.Game, event domain.PlayerEvent) ([]domain.Event, error) {
	if event.Player() != game.ActivePlayer {
		return nil, domain.ErrAuthorization("it is not this player's turn")
	}
	if err := game.ApplyEvent(event); err != nil {
		return nil, err
	}

	game.ChangeTurn()
	if game.ActivePlayer != "" {
		return []domain.Event{domain.NewTurnChange(game.ActivePlayer)}, nil
	}
	phaseChange := domain.NewPhaseChange(domain.PhaseEvening)
	if err := game.ApplyEvent(phaseChange); err != nil {
		return nil, err
	}
	return []domain.Event{phaseChange}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

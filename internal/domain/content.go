package domain

import "math/rand"

// Character is the immutable role card assigned to a player when the game
// starts. Order is the seating position that fixes the turn sequence.
type Character struct {
	Name          string `json:"name"`
	Attack        int    `json:"attack"`
	Health        int    `json:"health"`
	SurvivalBonus int    `json:"survival_bonus"`
	Order         int    `json:"order"`
}

// Supply is a provision card. Strength is nil for cards without a stat.
type Supply struct {
	Type     string `json:"type"`
	Strength *int   `json:"strength,omitempty"`
	Points   int    `json:"points"`
}

// ThirstTrigger names the action that makes the listed players thirsty.
type ThirstTrigger string

const (
	TriggerRowed  ThirstTrigger = "rowed"
	TriggerFought ThirstTrigger = "fought"
)

// Navigation is a face-down course card. Birds indicates land is near;
// Overboard lists players washed over the side; Thirsty lists players who
// become thirsty when they perform the trigger action.
type Navigation struct {
	Birds         bool          `json:"birds"`
	Overboard     []string      `json:"overboard,omitempty"`
	Thirsty       []string      `json:"thirsty,omitempty"`
	ThirstTrigger ThirstTrigger `json:"thirst_trigger,omitempty"`
}

// CharacterArchetypes is the pool characters are drawn from without
// replacement at game start. Orders are distinct so the turn sequence is a
// strict total order.
var CharacterArchetypes = []Character{
	{Name: "Captain", Attack: 6, Health: 6, SurvivalBonus: 6, Order: 1},
	{Name: "First Mate", Attack: 4, Health: 6, SurvivalBonus: 5, Order: 2},
	{Name: "Navigator", Attack: 5, Health: 5, SurvivalBonus: 4, Order: 3},
	{Name: "Old Salt", Attack: 7, Health: 4, SurvivalBonus: 3, Order: 4},
	{Name: "The Lady", Attack: 3, Health: 4, SurvivalBonus: 8, Order: 5},
	{Name: "The Kid", Attack: 2, Health: 5, SurvivalBonus: 7, Order: 6},
	{Name: "Stowaway", Attack: 5, Health: 3, SurvivalBonus: 5, Order: 7},
	{Name: "Cook", Attack: 6, Health: 5, SurvivalBonus: 2, Order: 8},
}

func intp(v int) *int { return &v }

// SupplyArchetypes is the pool supplies are drawn from with replacement.
var SupplyArchetypes = []Supply{
	{Type: "medkit", Points: 2},
	{Type: "water", Points: 1},
	{Type: "food", Points: 1},
	{Type: "oar", Strength: intp(2), Points: 1},
	{Type: "knife", Strength: intp(3), Points: 0},
	{Type: "compass", Points: 3},
	{Type: "flare_gun", Strength: intp(5), Points: 2},
	{Type: "rope", Strength: intp(1), Points: 1},
}

// Navigation generation weights. Design constants, not derived from state.
var (
	birdsWeights     = []int{25, 75} // true, false
	overboardWeights = []int{60, 30, 10}
	thirstyWeights   = []int{50, 35, 15}
	triggerChoices   = []ThirstTrigger{TriggerRowed, TriggerFought}
)

// weightedIndex picks an index with probability proportional to weights.
func weightedIndex(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rng.Intn(total)
	for i, w := range weights {
		if pick < w {
			return i
		}
		pick -= w
	}
	return len(weights) - 1
}

// samplePlayers draws n distinct ids from the sorted id list.
func samplePlayers(rng *rand.Rand, ids []string, n int) []string {
	if n >= len(ids) {
		n = len(ids)
	}
	perm := rng.Perm(len(ids))
	out := make([]string, 0, n)
	for _, i := range perm[:n] {
		out = append(out, ids[i])
	}
	return out
}

// rollNavigation produces one course card using the three independent axes.
func rollNavigation(rng *rand.Rand, ids []string) Navigation {
	nav := Navigation{Birds: weightedIndex(rng, birdsWeights) == 0}
	if n := weightedIndex(rng, overboardWeights); n > 0 {
		nav.Overboard = samplePlayers(rng, ids, n)
	}
	if n := weightedIndex(rng, thirstyWeights); n > 0 {
		nav.Thirsty = samplePlayers(rng, ids, n)
		nav.ThirstTrigger = triggerChoices[rng.Intn(len(triggerChoices))]
	}
	return nav
}

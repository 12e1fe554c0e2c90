package domain

import "github.com/marcward/homegame/cards"

// Player represents a seated participant. The ID is the owning connection's
// id; it is reassigned when the same person reconnects, everything else
// carries over.
type Player struct {
	ID         string
	Name       string
	Chips      int
	HoleCards  []cards.Card
	CurrentBet int
	Folded     bool
	Ready      bool
}

// NewPlayer creates a new player with the given ID and name
func NewPlayer(id string, name string, startingChips int) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Chips:     startingChips,
		HoleCards: make([]cards.Card, 0, 2),
	}
}

// ResetForNewHand resets the player's per-hand state. Chips persist across
// hands.
func (p *Player) ResetForNewHand() {
	p.HoleCards = p.HoleCards[:0]
	p.CurrentBet = 0
	p.Folded = false
}

// IsAllIn reports whether the player has no chips left behind their bet.
func (p *Player) IsAllIn() bool {
	return p.Chips == 0
}

package cards

import "math/rand"

// Deck is an ordered pile of cards. The card at index 0 is the top.
type Deck []Card

// NewDeck creates a standard deck of 52 cards in suit then rank order.
func NewDeck() Deck {
	deck := make(Deck, 0, 52)
	for _, suit := range Suits() {
		for _, rank := range Ranks() {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// Shuffled returns a shuffled copy of the deck using the given source of
// randomness, leaving the receiver untouched.
func (d Deck) Shuffled(rng *rand.Rand) Deck {
	shuffled := make(Deck, len(d))
	copy(shuffled, d)

	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled
}

// Draw removes and returns the top card of the deck. The second return value
// is false when the deck is empty.
func (d *Deck) Draw() (Card, bool) {
	if len(*d) == 0 {
		return Card{}, false
	}

	card := (*d)[0]
	*d = (*d)[1:]
	return card, true
}

// DrawN removes and returns up to n cards from the top of the deck.
func (d *Deck) DrawN(n int) []Card {
	if n > len(*d) {
		n = len(*d)
	}

	drawn := make([]Card, n)
	copy(drawn, (*d)[:n])
	*d = (*d)[n:]

	return drawn
}

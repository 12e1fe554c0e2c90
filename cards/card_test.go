package cards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardString(t *testing.T) {
	card := Card{Suit: Spades, Rank: Ace}
	assert.Equal(t, "A of spades", card.String())

	card = Card{Suit: Hearts, Rank: Ten}
	assert.Equal(t, "10 of hearts", card.String())
}

func TestCardEquals(t *testing.T) {
	a := Card{Suit: Clubs, Rank: Seven}
	b := Card{Suit: Clubs, Rank: Seven}
	c := Card{Suit: Diamonds, Rank: Seven}

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestCardJSON(t *testing.T) {
	card := Card{Suit: Diamonds, Rank: Queen}

	data, err := json.Marshal(card)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"suit":"diamonds","rank":"Q"}`, string(data))

	var decoded Card
	assert.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, card.Equals(decoded))
}

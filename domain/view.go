package domain

import "github.com/marcward/homegame/cards"

// TableView is a participant-specific redacted copy of the table state, safe
// to put on the wire. The deck is never included; other players' hole cards
// are replaced by null placeholders of the same length.
type TableView struct {
	Code           string       `json:"code"`
	Phase          TablePhase   `json:"phase"`
	Players        []PlayerView `json:"players"`
	CommunityCards []cards.Card `json:"communityCards"`
	Pot            int          `json:"pot"`
	CurrentBet     int          `json:"currentBet"`
	TurnID         string       `json:"turn,omitempty"`
	DealerID       string       `json:"dealer,omitempty"`
	YourTurn       bool         `json:"yourTurn"`
	LastResult     *HandResult  `json:"lastResult,omitempty"`
}

// PlayerView is one seat as seen by a particular viewer.
type PlayerView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Seat      int           `json:"seat"`
	Chips     int           `json:"chips"`
	Bet       int           `json:"bet"`
	Folded    bool          `json:"folded"`
	Ready     bool          `json:"ready"`
	IsDealer  bool          `json:"isDealer"`
	HoleCards []*cards.Card `json:"cards"` // null entries stand in for hidden cards
}

// ViewFor builds the view of this table for the given viewer. An unknown or
// empty viewer id yields a view with every hole card hidden.
func (t *Table) ViewFor(viewerID string) TableView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewForLocked(viewerID)
}

// viewForLocked deep-copies everything it exposes; no projection shares
// mutable state with the table or with another projection.
func (t *Table) viewForLocked(viewerID string) TableView {
	view := TableView{
		Code:           t.Code,
		Phase:          t.phase,
		Players:        make([]PlayerView, 0, len(t.seats)),
		CommunityCards: append([]cards.Card(nil), t.communityCards...),
		Pot:            t.pot,
		CurrentBet:     t.currentBet,
		TurnID:         t.turnID,
		DealerID:       t.dealerID,
		YourTurn:       t.turnID != "" && t.turnID == viewerID,
	}

	for i, p := range t.seats {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      i,
			Chips:     p.Chips,
			Bet:       p.CurrentBet,
			Folded:    p.Folded,
			Ready:     p.Ready,
			IsDealer:  p.ID == t.dealerID,
			HoleCards: make([]*cards.Card, len(p.HoleCards)),
		}

		if p.ID == viewerID {
			for j := range p.HoleCards {
				card := p.HoleCards[j]
				pv.HoleCards[j] = &card
			}
		}

		view.Players = append(view.Players, pv)
	}

	if t.lastResult != nil {
		result := *t.lastResult
		view.LastResult = &result
	}

	return view
}

// broadcastsLocked projects the table once per seated player. Each recipient
// gets their own copy.
func (t *Table) broadcastsLocked() []StateBroadcast {
	outs := make([]StateBroadcast, 0, len(t.seats))
	for _, p := range t.seats {
		outs = append(outs, StateBroadcast{PlayerID: p.ID, View: t.viewForLocked(p.ID)})
	}
	return outs
}

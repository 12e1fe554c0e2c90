package domain

import (
	"github.com/sanity-io/litter"

	"github.com/marcward/homegame/cards"
)

// Action is a betting move submitted by the player whose turn it is.
type Action string

const (
	ActionCheck Action = "check"
	ActionCall  Action = "call"
	ActionRaise Action = "raise"
	ActionFold  Action = "fold"
)

// startHandLocked deals a fresh hand: new shuffled deck, blinds posted, two
// hole cards per player, first-to-act selected. In a heads-up hand the dealer
// posts the small blind and acts first pre-flop; with three or more players
// the blinds sit directly after the dealer and the seat after the big blind
// opens the betting.
func (t *Table) startHandLocked() {
	t.phase = PhaseDealing
	t.deck = cards.NewDeck().Shuffled(t.rng)
	t.communityCards = t.communityCards[:0]
	t.pot = 0
	t.currentBet = 0
	t.acted = make(map[string]bool)
	t.lastResult = nil

	for _, p := range t.seats {
		p.ResetForNewHand()
	}

	order := t.seatOrderLocked()
	dealerIdx := indexOf(order, t.dealerID)
	if dealerIdx < 0 {
		// Dealer left between hands; fall back to the first seat.
		dealerIdx = 0
		t.dealerID = order[0]
	}

	headsUp := len(order) == 2

	var smallBlindIdx, bigBlindIdx int
	if headsUp {
		smallBlindIdx = dealerIdx
		bigBlindIdx = (dealerIdx + 1) % len(order)
	} else {
		smallBlindIdx = (dealerIdx + 1) % len(order)
		bigBlindIdx = (dealerIdx + 2) % len(order)
	}

	smallBlind := t.playerByID(order[smallBlindIdx])
	bigBlind := t.playerByID(order[bigBlindIdx])

	t.postBlindLocked(smallBlind, t.Rules.SmallBlind)
	t.postBlindLocked(bigBlind, t.Rules.BigBlind())
	t.currentBet = t.Rules.BigBlind()

	// Blinds count as having acted; they only act again if someone raises.
	t.acted[smallBlind.ID] = true
	t.acted[bigBlind.ID] = true

	for _, p := range t.seats {
		p.HoleCards = append(p.HoleCards, t.deck.DrawN(2)...)
	}

	if headsUp {
		t.turnID = t.dealerID
	} else {
		t.turnID = order[(bigBlindIdx+1)%len(order)]
	}

	t.phase = PhaseBetting

	t.logger.Info("hand started",
		"players", len(order),
		"dealer", t.dealerID,
		"smallBlind", smallBlind.Name,
		"bigBlind", bigBlind.Name,
		"firstToAct", t.turnID,
	)
}

// postBlindLocked moves a forced bet from the player's stack into the pot.
// A short stack posts whatever it has left.
func (t *Table) postBlindLocked(p *Player, amount int) {
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.CurrentBet += amount
	t.pot += amount
}

// applyActionLocked validates one action against the table state, mutates the
// pot and bet fields and then advances the turn or the phase. Rejections
// leave the table untouched.
func (t *Table) applyActionLocked(id string, action Action, amount int) error {
	player := t.playerByID(id)
	if player == nil {
		return ErrPlayerNotFound
	}
	if t.turnID != id {
		return ErrNotYourTurn
	}

	switch action {
	case ActionCheck:
		if t.currentBet > player.CurrentBet {
			return ErrCannotCheck
		}

	case ActionCall:
		shortfall := t.currentBet - player.CurrentBet
		if shortfall >= player.Chips {
			// Calling for more than the stack puts the player all-in for the
			// remainder instead of failing.
			t.pot += player.Chips
			player.CurrentBet += player.Chips
			player.Chips = 0
		} else {
			t.pot += shortfall
			player.Chips -= shortfall
			player.CurrentBet = t.currentBet
		}

	case ActionRaise:
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if amount <= t.currentBet {
			return ErrRaiseTooLow
		}
		if amount > player.Chips+player.CurrentBet {
			return ErrInsufficientChips
		}
		// A raise must at least double the current bet unless the player is
		// putting in their whole stack.
		if min := t.currentBet * 2; amount < min && amount < player.Chips+player.CurrentBet {
			return MinRaiseError(min)
		}

		delta := amount - player.CurrentBet
		t.pot += delta
		player.Chips -= delta
		player.CurrentBet = amount
		t.currentBet = amount

		// Everyone else has to respond to the raise.
		t.acted = map[string]bool{id: true}

	case ActionFold:
		player.Folded = true

	default:
		return ErrUnknownAction
	}

	t.acted[id] = true
	t.logger.Debug("action applied", "player", player.Name, "action", action, "amount", amount, "pot", t.pot)

	t.advanceLocked(id)
	return nil
}

// advanceLocked moves the hand forward after an action or a removal: ends the
// hand if one player remains, advances the phase when the betting round is
// complete, or passes the turn to the next eligible seat.
func (t *Table) advanceLocked(lastActorID string) {
	active := t.activePlayersLocked()
	if len(active) == 1 {
		t.endHandLocked(active[0].ID)
		return
	}
	if len(active) == 0 {
		return
	}

	if !t.roundCompleteLocked() {
		t.turnID = t.nextTurnLocked()
		return
	}

	switch t.phase {
	case PhaseBetting:
		t.dealCommunityLocked(3)
		t.phase = PhaseFlop
	case PhaseFlop:
		t.dealCommunityLocked(1)
		t.phase = PhaseTurn
	case PhaseTurn:
		t.dealCommunityLocked(1)
		t.phase = PhaseRiver
	case PhaseRiver:
		t.endHandLocked("")
		return
	default:
		return
	}

	t.resetBetsLocked()
	t.turnID = t.firstToActLocked(lastActorID)

	t.logger.Info("phase advanced", "phase", t.phase, "community", len(t.communityCards), "firstToAct", t.turnID)
}

// roundCompleteLocked reports whether every non-folded player has acted this
// round and either matched the current bet or is all-in.
func (t *Table) roundCompleteLocked() bool {
	for _, p := range t.seats {
		if p.Folded {
			continue
		}
		if !t.acted[p.ID] {
			return false
		}
		if p.CurrentBet != t.currentBet && p.Chips != 0 {
			return false
		}
	}
	return true
}

func (t *Table) dealCommunityLocked(n int) {
	t.communityCards = append(t.communityCards, t.deck.DrawN(n)...)
}

// resetBetsLocked clears per-round betting state between phases.
func (t *Table) resetBetsLocked() {
	t.currentBet = 0
	for _, p := range t.seats {
		p.CurrentBet = 0
	}
	t.acted = make(map[string]bool)
}

// firstToActLocked picks the opening seat of a new betting round. Heads-up
// the dealer opens, unless the dealer closed the previous round, in which
// case the other player opens so nobody acts twice in a row. With three or
// more players the first non-folded seat after the dealer opens.
func (t *Table) firstToActLocked(lastActorID string) string {
	order := t.seatOrderLocked()
	dealerIdx := indexOf(order, t.dealerID)
	if dealerIdx < 0 {
		dealerIdx = 0
	}

	if len(order) == 2 {
		nonDealer := order[(dealerIdx+1)%len(order)]
		if lastActorID == t.dealerID {
			return nonDealer
		}
		return t.dealerID
	}

	for i := 1; i <= len(order); i++ {
		candidate := t.playerByID(order[(dealerIdx+i)%len(order)])
		if candidate != nil && !candidate.Folded {
			return candidate.ID
		}
	}

	return order[dealerIdx]
}

// nextTurnLocked scans forward from the current turn seat, skipping players
// who folded or who are all-in with the bet already matched.
func (t *Table) nextTurnLocked() string {
	order := t.seatOrderLocked()
	current := indexOf(order, t.turnID)
	if current < 0 {
		current = 0
	}

	for i := 1; i <= len(order); i++ {
		candidate := t.playerByID(order[(current+i)%len(order)])
		if candidate == nil || candidate.Folded {
			continue
		}
		if candidate.Chips == 0 && candidate.CurrentBet >= t.currentBet {
			continue
		}
		return candidate.ID
	}

	// Nobody can act; fall back to the first non-folded seat.
	if active := t.activePlayersLocked(); len(active) > 0 {
		return active[0].ID
	}
	return ""
}

// endHandLocked resolves the hand and awards the pot. With a forced winner
// (everyone else folded) the pot goes to them outright. Otherwise the
// placeholder showdown rule applies: the strictly highest current bet wins,
// or a uniformly random survivor when all bets are equal. Real hand-strength
// evaluation is deliberately not implemented.
func (t *Table) endHandLocked(forcedWinnerID string) {
	result := &HandResult{Amount: t.pot}

	var winner *Player
	if forcedWinnerID != "" {
		winner = t.playerByID(forcedWinnerID)
		result.Reason = ReasonAllFolded
	} else {
		active := t.activePlayersLocked()
		if len(active) == 1 {
			winner = active[0]
			result.Reason = ReasonLastRemaining
		} else {
			winner = t.pickShowdownWinnerLocked(active)
			result.Reason = ReasonShowdown
		}
	}

	if winner == nil {
		// The forced winner is no longer seated; nobody can take the pot.
		t.abandonHandLocked()
		return
	}

	winner.Chips += t.pot
	result.WinnerID = winner.ID
	result.WinnerName = winner.Name

	t.lastResult = result
	t.pot = 0
	t.currentBet = 0
	t.turnID = ""
	t.phase = PhaseShowdown

	// Bets are already in the pot; zero them so an abandoned table cannot
	// refund chips twice.
	for _, p := range t.seats {
		p.CurrentBet = 0
		p.Ready = false
	}

	t.logger.Info("hand ended", "winner", winner.Name, "amount", result.Amount, "reason", result.Reason)
	t.logger.Debug("hand result", "result", litter.Sdump(result))
}

func (t *Table) pickShowdownWinnerLocked(active []*Player) *Player {
	allEqual := true
	highest := active[0]
	for _, p := range active[1:] {
		if p.CurrentBet != active[0].CurrentBet {
			allEqual = false
		}
		if p.CurrentBet > highest.CurrentBet {
			highest = p
		}
	}

	if allEqual {
		return active[t.rng.Intn(len(active))]
	}
	return highest
}

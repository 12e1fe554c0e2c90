package domain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/marcward/homegame/cards"
)

// TablePhase represents the current stage within a hand's progression.
type TablePhase string

const (
	PhaseWaiting  TablePhase = "waiting"
	PhaseDealing  TablePhase = "dealing"
	PhaseBetting  TablePhase = "betting"
	PhaseFlop     TablePhase = "flop"
	PhaseTurn     TablePhase = "turn"
	PhaseRiver    TablePhase = "river"
	PhaseShowdown TablePhase = "showdown"
)

// bettingPhases are the phases during which a turn pointer is live.
func (p TablePhase) isBetting() bool {
	switch p {
	case PhaseBetting, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// TableRules defines the fixed parameters of a table, taken from server
// configuration at creation time.
type TableRules struct {
	SmallBlind    int
	StartingChips int
	MaxPlayers    int
}

// BigBlind is always double the small blind.
func (r TableRules) BigBlind() int {
	return r.SmallBlind * 2
}

// HandResult records how the last hand ended. It survives until the next
// hand starts.
type HandResult struct {
	WinnerID   string `json:"winnerId"`
	WinnerName string `json:"winnerName"`
	Amount     int    `json:"amount"`
	Reason     string `json:"reason"`
}

// Winner reasons, surfaced verbatim to clients.
const (
	ReasonAllFolded     = "all others folded"
	ReasonLastRemaining = "last remaining"
	ReasonShowdown      = "resolved at showdown"
)

// StateBroadcast pairs a recipient with the redacted view they are allowed
// to see. One is produced per seated player after every mutation.
type StateBroadcast struct {
	PlayerID string
	View     TableView
}

// Table is the authoritative record of one game session. All mutations are
// serialized through its mutex; different tables are fully independent.
type Table struct {
	Code      string
	Rules     TableRules
	CreatedAt time.Time

	mu             sync.Mutex
	seats          []*Player // insertion order is seating order
	deck           cards.Deck
	communityCards []cards.Card
	pot            int
	currentBet     int
	phase          TablePhase
	turnID         string
	dealerID       string
	acted          map[string]bool
	lastResult     *HandResult
	emptySince     time.Time

	rng    *rand.Rand
	logger *log.Logger
}

// NewTable creates an empty table with the given code and rules.
func NewTable(code string, rules TableRules, rng *rand.Rand, logger *log.Logger, now time.Time) *Table {
	return &Table{
		Code:      code,
		Rules:     rules,
		CreatedAt: now,
		phase:     PhaseWaiting,
		acted:     make(map[string]bool),
		rng:       rng,
		logger:    logger.WithPrefix("table." + code),
	}
}

// Join seats a new player. The first player to join becomes the dealer.
func (t *Table) Join(id string, name string) (*Player, []StateBroadcast, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seats) >= t.Rules.MaxPlayers {
		return nil, nil, TableFullError(t.Rules.MaxPlayers)
	}
	if t.playerByID(id) != nil {
		return nil, nil, ErrAlreadySeated
	}

	player := NewPlayer(id, name, t.Rules.StartingChips)
	if t.phase.isBetting() || t.phase == PhaseDealing {
		// Joining mid-hand: sit out until the next deal.
		player.Folded = true
	}
	t.seats = append(t.seats, player)
	t.emptySince = time.Time{}

	if len(t.seats) == 1 {
		t.dealerID = id
	}

	t.logger.Info("player joined", "player", name, "id", id, "seats", len(t.seats))

	return player, t.broadcastsLocked(), nil
}

// Reseat puts a previously disconnected player back at the table under a new
// connection id. Their chips, name and any live-hand state carry over.
func (t *Table) Reseat(player *Player, newID string) ([]StateBroadcast, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seats) >= t.Rules.MaxPlayers {
		return nil, TableFullError(t.Rules.MaxPlayers)
	}

	player.ID = newID
	t.seats = append(t.seats, player)
	t.emptySince = time.Time{}

	if len(t.seats) == 1 {
		t.dealerID = newID
	}

	t.logger.Info("player reconnected", "player", player.Name, "id", newID)

	return t.broadcastsLocked(), nil
}

// MarkReady flags a player as ready for the next hand and starts it once
// every seated player (at least two) is ready.
func (t *Table) MarkReady(id string) ([]StateBroadcast, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	player := t.playerByID(id)
	if player == nil {
		return nil, ErrPlayerNotFound
	}
	player.Ready = true

	var outs []StateBroadcast

	switch {
	case t.phase == PhaseShowdown && t.allReadyLocked():
		// Between hands: clear transient state, rotate the dealer and pass
		// through waiting so clients see the reset before the new deal.
		t.communityCards = t.communityCards[:0]
		for _, p := range t.seats {
			p.ResetForNewHand()
		}
		t.rotateDealerLocked()
		t.phase = PhaseWaiting
		outs = append(outs, t.broadcastsLocked()...)
		t.startHandLocked()

	case t.phase == PhaseWaiting && t.allReadyLocked():
		t.startHandLocked()
	}

	return append(outs, t.broadcastsLocked()...), nil
}

// HandleAction validates and applies one betting action from the player whose
// turn it is, then advances the turn or the phase.
func (t *Table) HandleAction(id string, action Action, amount int) ([]StateBroadcast, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.applyActionLocked(id, action, amount); err != nil {
		return nil, err
	}

	return t.broadcastsLocked(), nil
}

// RemovePlayer unseats a player, repairing the dealer and turn pointers and
// abandoning the hand if fewer than two players remain mid-hand. It returns
// the removed player for possible reconnection.
func (t *Table) RemovePlayer(id string, now time.Time) (*Player, []StateBroadcast) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.seatIndex(id)
	if idx < 0 {
		return nil, nil
	}

	player := t.seats[idx]
	t.seats = append(t.seats[:idx], t.seats[idx+1:]...)
	delete(t.acted, id)

	if len(t.seats) == 0 {
		t.turnID = ""
		t.dealerID = ""
		t.emptySince = now
		return player, nil
	}

	if t.dealerID == id {
		t.dealerID = t.seats[0].ID
	}

	if t.turnID == id {
		t.advanceLocked(id)
	}

	if len(t.seats) < 2 && t.phase != PhaseWaiting {
		t.abandonHandLocked()
	}

	t.logger.Info("player left", "player", player.Name, "seats", len(t.seats))

	return player, t.broadcastsLocked()
}

// EmptySince returns when the table last lost its final player, or the zero
// time while it is occupied.
func (t *Table) EmptySince() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emptySince
}

// PlayerCount returns the number of seated players.
func (t *Table) PlayerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seats)
}

// Phase returns the table's current phase.
func (t *Table) Phase() TablePhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// abandonHandLocked ends a hand that can no longer continue: uncommitted bets
// go back to their owners, the pot is forfeited and the table returns to
// waiting for a fresh ready-up.
func (t *Table) abandonHandLocked() {
	for _, p := range t.seats {
		p.Chips += p.CurrentBet
		p.CurrentBet = 0
		p.Folded = false
		p.Ready = false
	}
	t.pot = 0
	t.currentBet = 0
	t.turnID = ""
	t.communityCards = t.communityCards[:0]
	t.acted = make(map[string]bool)
	t.phase = PhaseWaiting

	t.logger.Info("hand abandoned, not enough players to continue")
}

func (t *Table) allReadyLocked() bool {
	if len(t.seats) < 2 {
		return false
	}
	for _, p := range t.seats {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (t *Table) rotateDealerLocked() {
	order := t.seatOrderLocked()
	if len(order) == 0 {
		t.dealerID = ""
		return
	}

	idx := indexOf(order, t.dealerID)
	t.dealerID = order[(idx+1)%len(order)]
}

// seatOrderLocked captures the seating order as a snapshot of player ids.
// Rotation math always runs against a snapshot taken at the moment of use so
// that removals cannot leave a stale index behind.
func (t *Table) seatOrderLocked() []string {
	order := make([]string, len(t.seats))
	for i, p := range t.seats {
		order[i] = p.ID
	}
	return order
}

func (t *Table) playerByID(id string) *Player {
	for _, p := range t.seats {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (t *Table) seatIndex(id string) int {
	for i, p := range t.seats {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// activePlayersLocked returns the non-folded players in seating order.
func (t *Table) activePlayersLocked() []*Player {
	active := make([]*Player, 0, len(t.seats))
	for _, p := range t.seats {
		if !p.Folded {
			active = append(active, p)
		}
	}
	return active
}

func indexOf(order []string, id string) int {
	for i, candidate := range order {
		if candidate == id {
			return i
		}
	}
	return -1
}

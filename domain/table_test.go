package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSeatsPlayersInOrder(t *testing.T) {
	table := newTestTable(1)

	alice, broadcasts, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1000, alice.Chips)
	assert.Equal(t, alice.ID, table.dealerID, "first player becomes the dealer")
	assert.Len(t, broadcasts, 1)

	bob, broadcasts, err := table.Join("conn-2", "Bob")
	require.NoError(t, err)
	assert.Len(t, broadcasts, 2)

	assert.Equal(t, []string{alice.ID, bob.ID}, table.seatOrderLocked())
	assert.Equal(t, PhaseWaiting, table.Phase())
}

func TestJoinRejectsDuplicateID(t *testing.T) {
	table := newTestTable(1)
	seatPlayers(t, table, "Alice")

	_, _, err := table.Join("conn-1", "Impostor")
	assert.ErrorIs(t, err, ErrAlreadySeated)
}

func TestJoinRejectsWhenFull(t *testing.T) {
	rules := TableRules{SmallBlind: 10, StartingChips: 1000, MaxPlayers: 2}
	table := NewTable("FULL01", rules, rand.New(rand.NewSource(1)), testLogger(), time.Now())
	seatPlayers(t, table, "Alice", "Bob")

	_, _, err := table.Join("conn-3", "Carol")
	require.Error(t, err)
	assert.Equal(t, CodeCapacity, CodeOf(err))
	assert.Equal(t, 2, table.PlayerCount())
}

func TestJoinDuringHandSitsOut(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice", "Bob")
	readyAll(t, table)
	require.Equal(t, PhaseBetting, table.Phase())

	carol, _, err := table.Join("conn-3", "Carol")
	require.NoError(t, err)
	assert.True(t, carol.Folded, "mid-hand joiners wait for the next deal")
	assert.Empty(t, carol.HoleCards)

	// The live hand still completes between the original two.
	_, err = table.HandleAction(players[0].ID, ActionFold, 0)
	require.NoError(t, err)
	assert.Equal(t, PhaseShowdown, table.Phase())
	assert.Equal(t, players[1].ID, table.lastResult.WinnerID)
}

func TestRemoveLastPlayerMarksTableEmpty(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice")

	now := time.Now()
	removed, broadcasts := table.RemovePlayer(players[0].ID, now)
	require.NotNil(t, removed)
	assert.Nil(t, broadcasts)
	assert.Equal(t, now, table.EmptySince())
	assert.Empty(t, table.dealerID)
}

func TestRemoveUnknownPlayerIsNoOp(t *testing.T) {
	table := newTestTable(1)
	seatPlayers(t, table, "Alice", "Bob")

	removed, broadcasts := table.RemovePlayer("nobody", time.Now())
	assert.Nil(t, removed)
	assert.Nil(t, broadcasts)
	assert.Equal(t, 2, table.PlayerCount())
}

func TestRemoveDealerReassignsToFirstSeat(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice", "Bob", "Carol")

	table.RemovePlayer(players[0].ID, time.Now())
	assert.Equal(t, players[1].ID, table.dealerID)
}

func TestReseatRestoresPlayerUnderNewID(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice", "Bob", "Carol")

	removed, _ := table.RemovePlayer(players[2].ID, time.Now())
	require.NotNil(t, removed)
	removed.Chips = 730 // whatever they had when the connection dropped

	broadcasts, err := table.Reseat(removed, "conn-9")
	require.NoError(t, err)
	assert.Len(t, broadcasts, 3)

	reseated := table.playerByID("conn-9")
	require.NotNil(t, reseated)
	assert.Equal(t, "Carol", reseated.Name)
	assert.Equal(t, 730, reseated.Chips)
	assert.Nil(t, table.playerByID(players[2].ID))
}

func TestJoinClearsEmptySince(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice")
	table.RemovePlayer(players[0].ID, time.Now())
	require.False(t, table.EmptySince().IsZero())

	seatPlayers(t, table, "Bob")
	assert.True(t, table.EmptySince().IsZero())
}

func TestMarkReadyStartsHandOnlyWhenAllReady(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice", "Bob")

	_, err := table.MarkReady(players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, table.Phase(), "one ready player is not enough")

	_, err = table.MarkReady(players[1].ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseBetting, table.Phase())
}

func TestMarkReadyAloneNeverStartsHand(t *testing.T) {
	table := newTestTable(1)
	players := seatPlayers(t, table, "Alice")

	_, err := table.MarkReady(players[0].ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, table.Phase())

	_, err = table.MarkReady("nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

package domain

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLobby(clock quartz.Clock) *Lobby {
	cfg := LobbyConfig{
		Rules:           TableRules{SmallBlind: 10, StartingChips: 1000, MaxPlayers: 8},
		ReconnectWindow: 10 * time.Minute,
		IdleWindow:      5 * time.Minute,
		MaxTableAge:     3 * time.Hour,
		SweepInterval:   15 * time.Minute,
	}
	return NewLobby(cfg, clock, testLogger())
}

func TestCreateTableCodes(t *testing.T) {
	lobby := newTestLobby(nil)

	codePattern := regexp.MustCompile(`^[0-9A-F]{6}$`)
	seen := make(map[string]bool)

	for i := 0; i < 20; i++ {
		table := lobby.CreateTable()
		assert.Regexp(t, codePattern, table.Code)
		assert.False(t, seen[table.Code], "codes must be unique")
		seen[table.Code] = true

		found, err := lobby.Lookup(table.Code)
		require.NoError(t, err)
		assert.Same(t, table, found)
	}

	assert.Len(t, lobby.Tables(), 20)
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	lobby := newTestLobby(nil)
	table := lobby.CreateTable()

	found, err := lobby.Lookup(strings.ToLower(table.Code))
	require.NoError(t, err)
	assert.Same(t, table, found)
}

func TestLookupUnknownCode(t *testing.T) {
	lobby := newTestLobby(nil)

	_, err := lobby.Lookup("ZZZZZZ")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestDisconnectedPlayerCanReconnect(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)
	table := lobby.CreateTable()

	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	bob, _, err := table.Join("conn-2", "Bob")
	require.NoError(t, err)
	bob.Chips = 730

	lobby.HandleDisconnect(table.Code, "conn-2")
	assert.Equal(t, 1, table.PlayerCount())

	back, broadcasts, err := lobby.Reconnect(table.Code, "Bob", "conn-9")
	require.NoError(t, err)
	assert.Equal(t, "conn-9", back.ID)
	assert.Equal(t, "Bob", back.Name)
	assert.Equal(t, 730, back.Chips)
	assert.Equal(t, 2, table.PlayerCount())
	assert.Len(t, broadcasts, 2)

	// The record is consumed: a second claim must fail.
	_, _, err = lobby.Reconnect(table.Code, "Bob", "conn-10")
	assert.ErrorIs(t, err, ErrNoPreviousSession)
}

func TestReconnectRequiresMatchingName(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)
	table := lobby.CreateTable()

	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	_, _, err = table.Join("conn-2", "Bob")
	require.NoError(t, err)

	lobby.HandleDisconnect(table.Code, "conn-2")

	_, _, err = lobby.Reconnect(table.Code, "Mallory", "conn-9")
	assert.ErrorIs(t, err, ErrNoPreviousSession)
}

func TestReconnectAfterWindowExpires(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)
	table := lobby.CreateTable()

	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	_, _, err = table.Join("conn-2", "Bob")
	require.NoError(t, err)

	lobby.HandleDisconnect(table.Code, "conn-2")

	mock.Advance(10*time.Minute + time.Second)

	_, _, err = lobby.Reconnect(table.Code, "Bob", "conn-9")
	assert.ErrorIs(t, err, ErrNoPreviousSession)
}

func TestSweepExpiresDisconnectedRecords(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)
	table := lobby.CreateTable()

	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	_, _, err = table.Join("conn-2", "Bob")
	require.NoError(t, err)

	lobby.HandleDisconnect(table.Code, "conn-2")

	lobby.Sweep(mock.Now().Add(11 * time.Minute))

	// Even though the lobby clock has not moved, the record is gone.
	_, _, err = lobby.Reconnect(table.Code, "Bob", "conn-9")
	assert.ErrorIs(t, err, ErrNoPreviousSession)
}

func TestSweepRemovesIdleEmptyTables(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)

	empty := lobby.CreateTable()
	occupied := lobby.CreateTable()

	_, _, err := empty.Join("conn-1", "Alice")
	require.NoError(t, err)
	_, _, err = occupied.Join("conn-2", "Bob")
	require.NoError(t, err)

	lobby.HandleDisconnect(empty.Code, "conn-1")

	lobby.Sweep(mock.Now().Add(6 * time.Minute))

	_, err = lobby.Lookup(empty.Code)
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = lobby.Lookup(occupied.Code)
	assert.NoError(t, err)
}

func TestSweepRemovesTablesPastMaxAge(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)

	table := lobby.CreateTable()
	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)

	// Occupancy does not save a table past its absolute age limit.
	lobby.Sweep(mock.Now().Add(3*time.Hour + time.Minute))

	_, err = lobby.Lookup(table.Code)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestSweepKeepsFreshState(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)
	table := lobby.CreateTable()

	_, _, err := table.Join("conn-1", "Alice")
	require.NoError(t, err)
	_, _, err = table.Join("conn-2", "Bob")
	require.NoError(t, err)

	lobby.HandleDisconnect(table.Code, "conn-2")

	lobby.Sweep(mock.Now().Add(time.Minute))

	_, err = lobby.Lookup(table.Code)
	require.NoError(t, err)
	_, _, err = lobby.Reconnect(table.Code, "Bob", "conn-9")
	assert.NoError(t, err)
}

func TestRunSweeperStopsOnCancel(t *testing.T) {
	mock := quartz.NewMock(t)
	lobby := newTestLobby(mock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lobby.RunSweeper(ctx) }()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

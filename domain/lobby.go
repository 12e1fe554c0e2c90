package domain

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// LobbyConfig carries the lifecycle windows and table rules shared by every
// table the lobby creates. The windows are configuration, not protocol.
type LobbyConfig struct {
	Rules           TableRules
	ReconnectWindow time.Duration
	IdleWindow      time.Duration
	MaxTableAge     time.Duration
	SweepInterval   time.Duration
}

// Lobby owns every live table, keyed by its shareable code, plus the ledger
// of recently disconnected players. It is the only process-wide registry;
// everything in it has an explicit lifecycle ended by Sweep.
type Lobby struct {
	cfg      LobbyConfig
	clock    quartz.Clock
	logger   *log.Logger
	recovery IdentityRecoveryPolicy

	mu           sync.RWMutex
	tables       map[string]*Table
	disconnected map[string]*disconnectedPlayer // keyed by stale connection id
}

type disconnectedPlayer struct {
	player    *Player
	tableCode string
	at        time.Time
}

// NewLobby creates an empty lobby. A nil clock means the real one.
func NewLobby(cfg LobbyConfig, clock quartz.Clock, logger *log.Logger) *Lobby {
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Lobby{
		cfg:          cfg,
		clock:        clock,
		logger:       logger.WithPrefix("lobby"),
		recovery:     NameMatchPolicy{Window: cfg.ReconnectWindow},
		tables:       make(map[string]*Table),
		disconnected: make(map[string]*disconnectedPlayer),
	}
}

// SetRecoveryPolicy replaces the reconnection matching policy.
func (l *Lobby) SetRecoveryPolicy(policy IdentityRecoveryPolicy) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recovery = policy
}

// CreateTable creates a new empty table under a fresh shareable code.
func (l *Lobby) CreateTable() *Table {
	l.mu.Lock()
	defer l.mu.Unlock()

	code := l.newCodeLocked()
	now := l.clock.Now()
	rng := rand.New(rand.NewSource(now.UnixNano()))

	table := NewTable(code, l.cfg.Rules, rng, l.logger, now)
	l.tables[code] = table

	l.logger.Info("table created", "code", code)

	return table
}

// newCodeLocked derives a short human-shareable code, retrying until it is
// unique among live tables.
func (l *Lobby) newCodeLocked() string {
	for {
		code := strings.ToUpper(uuid.NewString()[:6])
		if _, taken := l.tables[code]; !taken {
			return code
		}
	}
}

// Lookup finds a live table by its code, case-insensitively.
func (l *Lobby) Lookup(code string) (*Table, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	table, exists := l.tables[strings.ToUpper(code)]
	if !exists {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// Tables returns all live tables.
func (l *Lobby) Tables() []*Table {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tables := make([]*Table, 0, len(l.tables))
	for _, table := range l.tables {
		tables = append(tables, table)
	}
	return tables
}

// HandleDisconnect removes the player from their table and holds their seat
// data for the reconnect window.
func (l *Lobby) HandleDisconnect(code string, playerID string) []StateBroadcast {
	table, err := l.Lookup(code)
	if err != nil {
		return nil
	}

	now := l.clock.Now()
	removed, broadcasts := table.RemovePlayer(playerID, now)
	if removed == nil {
		return nil
	}

	l.mu.Lock()
	l.disconnected[playerID] = &disconnectedPlayer{
		player:    removed,
		tableCode: table.Code,
		at:        now,
	}
	l.mu.Unlock()

	l.logger.Info("player disconnected", "table", table.Code, "player", removed.Name)

	return broadcasts
}

// Leave removes a player who quit on purpose. Unlike a disconnect, no seat
// data is held for them.
func (l *Lobby) Leave(code string, playerID string) []StateBroadcast {
	table, err := l.Lookup(code)
	if err != nil {
		return nil
	}

	removed, broadcasts := table.RemovePlayer(playerID, l.clock.Now())
	if removed != nil {
		l.logger.Info("player left", "table", table.Code, "player", removed.Name)
	}
	return broadcasts
}

// Reconnect reseats a recently disconnected player under a new connection id
// when the recovery policy finds a match.
func (l *Lobby) Reconnect(code string, displayName string, newID string) (*Player, []StateBroadcast, error) {
	table, err := l.Lookup(code)
	if err != nil {
		return nil, nil, err
	}

	now := l.clock.Now()

	l.mu.Lock()
	candidates := make([]DisconnectedIdentity, 0, len(l.disconnected))
	for staleID, d := range l.disconnected {
		candidates = append(candidates, DisconnectedIdentity{
			StaleID:   staleID,
			TableCode: d.tableCode,
			Name:      d.player.Name,
			At:        d.at,
		})
	}

	staleID, ok := l.recovery.Match(candidates, table.Code, displayName, now)
	if !ok {
		l.mu.Unlock()
		return nil, nil, ErrNoPreviousSession
	}

	record := l.disconnected[staleID]
	delete(l.disconnected, staleID)
	l.mu.Unlock()

	broadcasts, err := table.Reseat(record.player, newID)
	if err != nil {
		return nil, nil, err
	}

	return record.player, broadcasts, nil
}

// Sweep drops expired state: disconnected players past the reconnect window,
// tables empty past the idle window, and tables past the absolute max age.
func (l *Lobby) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for staleID, d := range l.disconnected {
		if now.Sub(d.at) > l.cfg.ReconnectWindow {
			delete(l.disconnected, staleID)
		}
	}

	for code, table := range l.tables {
		if emptySince := table.EmptySince(); !emptySince.IsZero() && now.Sub(emptySince) > l.cfg.IdleWindow {
			delete(l.tables, code)
			l.logger.Info("table deleted after idling empty", "code", code)
			continue
		}
		if now.Sub(table.CreatedAt) > l.cfg.MaxTableAge {
			delete(l.tables, code)
			l.logger.Info("table deleted after reaching max age", "code", code)
		}
	}
}

// RunSweeper periodically sweeps until the context is cancelled.
func (l *Lobby) RunSweeper(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

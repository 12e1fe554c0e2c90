package events

import (
	"encoding/json"

	"github.com/charmbracelet/log"

	"github.com/marcward/homegame/domain"
	"github.com/marcward/homegame/server/connection"
)

// Server-to-client event names.
const (
	EventTableJoined    = "TABLE_JOINED"
	EventGameState      = "GAME_STATE"
	EventActionRejected = "ACTION_REJECTED"
)

// Envelope wraps an event with its name for client consumption.
type Envelope struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// TableJoined tells a client which table they are on and which id is theirs
// inside subsequent state frames.
type TableJoined struct {
	TableCode string `json:"tableCode"`
	PlayerID  string `json:"playerId"`
}

// ActionRejected reports a refused command back to its sender only.
type ActionRejected struct {
	Code    domain.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Dispatcher serializes outgoing events and routes each one to exactly the
// clients allowed to see it.
type Dispatcher struct {
	connMgr *connection.Manager
	logger  *log.Logger
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(connMgr *connection.Manager, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		connMgr: connMgr,
		logger:  logger.WithPrefix("events"),
	}
}

// SendJoined confirms a join or rejoin to the new client.
func (d *Dispatcher) SendJoined(clientID string, tableCode string) {
	d.send(clientID, EventTableJoined, TableJoined{TableCode: tableCode, PlayerID: clientID})
}

// SendRejection reports a refused command to the offending client. Nothing is
// sent to anyone else.
func (d *Dispatcher) SendRejection(clientID string, err error) {
	d.send(clientID, EventActionRejected, ActionRejected{
		Code:    domain.CodeOf(err),
		Message: err.Error(),
	})
}

// BroadcastState delivers each redacted view to its recipient. Recipients who
// disconnected since the views were computed are skipped.
func (d *Dispatcher) BroadcastState(broadcasts []domain.StateBroadcast) {
	for _, b := range broadcasts {
		d.send(b.PlayerID, EventGameState, b.View)
	}
}

func (d *Dispatcher) send(clientID string, name string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to marshal event payload", "event", name, "err", err)
		return
	}

	data, err := json.Marshal(Envelope{Name: name, Payload: body})
	if err != nil {
		d.logger.Error("failed to marshal event envelope", "event", name, "err", err)
		return
	}

	d.connMgr.SendToClient(clientID, data)
}

package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/marcward/homegame/domain"
	"github.com/marcward/homegame/server/commands"
	"github.com/marcward/homegame/server/connection"
	"github.com/marcward/homegame/server/events"
)

// CommandRouter decodes incoming messages and routes them to the lobby and
// tables. Rejections go back to the sender only; accepted commands fan out a
// fresh state frame to every player at the table.
type CommandRouter struct {
	lobby      *domain.Lobby
	dispatcher *events.Dispatcher
	logger     *log.Logger
}

// NewCommandRouter creates a new command router.
func NewCommandRouter(lobby *domain.Lobby, dispatcher *events.Dispatcher, logger *log.Logger) *CommandRouter {
	return &CommandRouter{
		lobby:      lobby,
		dispatcher: dispatcher,
		logger:     logger.WithPrefix("commands"),
	}
}

// HandleCommand processes one raw message from a client. Game rejections are
// reported to the sender and swallowed; only transport-level failures
// propagate to the caller.
func (r *CommandRouter) HandleCommand(client *connection.Client, message []byte) error {
	err := r.dispatch(client, message)
	if err == nil {
		return nil
	}

	var gameErr *domain.GameError
	if errors.As(err, &gameErr) {
		r.logger.Debug("command rejected", "client", client.ID, "code", gameErr.Code, "reason", gameErr.Message)
		r.dispatcher.SendRejection(client.ID, err)
		return nil
	}
	return err
}

func (r *CommandRouter) dispatch(client *connection.Client, message []byte) error {
	var baseCmd struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(message, &baseCmd); err != nil {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "malformed command"}
	}

	switch baseCmd.Name {
	case commands.JoinTable{}.Name():
		var cmd commands.JoinTable
		if err := json.Unmarshal(message, &cmd); err != nil {
			return &domain.GameError{Code: domain.CodeProtocolError, Message: "malformed command"}
		}
		return r.handleJoinTable(client, cmd)

	case commands.RejoinTable{}.Name():
		var cmd commands.RejoinTable
		if err := json.Unmarshal(message, &cmd); err != nil {
			return &domain.GameError{Code: domain.CodeProtocolError, Message: "malformed command"}
		}
		return r.handleRejoinTable(client, cmd)

	case commands.Ready{}.Name():
		return r.handleReady(client)

	case commands.PlayerAction{}.Name():
		var cmd commands.PlayerAction
		if err := json.Unmarshal(message, &cmd); err != nil {
			return &domain.GameError{Code: domain.CodeProtocolError, Message: "malformed command"}
		}
		return r.handlePlayerAction(client, cmd)

	case commands.LeaveTable{}.Name():
		return r.handleLeaveTable(client)

	default:
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "unknown command: " + baseCmd.Name}
	}
}

func (r *CommandRouter) handleJoinTable(client *connection.Client, cmd commands.JoinTable) error {
	if client.TableCode != "" {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "already at a table"}
	}

	name := strings.TrimSpace(cmd.PlayerName)
	if name == "" {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "display name is required"}
	}

	table, err := r.lobby.Lookup(cmd.TableCode)
	if err != nil {
		return err
	}

	player, broadcasts, err := table.Join(client.ID, name)
	if err != nil {
		return err
	}

	client.Name = player.Name
	client.TableCode = table.Code

	r.dispatcher.SendJoined(client.ID, table.Code)
	r.dispatcher.BroadcastState(broadcasts)
	return nil
}

func (r *CommandRouter) handleRejoinTable(client *connection.Client, cmd commands.RejoinTable) error {
	if client.TableCode != "" {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "already at a table"}
	}

	name := strings.TrimSpace(cmd.PlayerName)
	if name == "" {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "display name is required"}
	}

	player, broadcasts, err := r.lobby.Reconnect(cmd.TableCode, name, client.ID)
	if err != nil {
		return err
	}

	client.Name = player.Name
	client.TableCode = strings.ToUpper(strings.TrimSpace(cmd.TableCode))

	r.dispatcher.SendJoined(client.ID, client.TableCode)
	r.dispatcher.BroadcastState(broadcasts)
	return nil
}

func (r *CommandRouter) handleReady(client *connection.Client) error {
	table, err := r.requireTable(client)
	if err != nil {
		return err
	}

	broadcasts, err := table.MarkReady(client.ID)
	if err != nil {
		return err
	}

	r.dispatcher.BroadcastState(broadcasts)
	return nil
}

func (r *CommandRouter) handlePlayerAction(client *connection.Client, cmd commands.PlayerAction) error {
	table, err := r.requireTable(client)
	if err != nil {
		return err
	}

	broadcasts, err := table.HandleAction(client.ID, domain.Action(cmd.Action), cmd.Amount)
	if err != nil {
		return err
	}

	r.dispatcher.BroadcastState(broadcasts)
	return nil
}

func (r *CommandRouter) handleLeaveTable(client *connection.Client) error {
	if client.TableCode == "" {
		return &domain.GameError{Code: domain.CodeProtocolError, Message: "not at a table"}
	}

	broadcasts := r.lobby.Leave(client.TableCode, client.ID)
	client.TableCode = ""
	client.Name = ""

	r.dispatcher.BroadcastState(broadcasts)
	return nil
}

// HandleDisconnect is called when a client's websocket drops. Their seat is
// held for the reconnect window.
func (r *CommandRouter) HandleDisconnect(client *connection.Client) {
	if client.TableCode == "" {
		return
	}

	broadcasts := r.lobby.HandleDisconnect(client.TableCode, client.ID)
	r.dispatcher.BroadcastState(broadcasts)
}

func (r *CommandRouter) requireTable(client *connection.Client) (*domain.Table, error) {
	if client.TableCode == "" {
		return nil, &domain.GameError{Code: domain.CodeProtocolError, Message: "not at a table"}
	}
	return r.lobby.Lookup(client.TableCode)
}

package commands

// Command is any client-to-server message. Commands arrive as JSON with a
// "name" discriminator matching the Name() of one of the types below.
type Command interface {
	Name() string
}

type JoinTable struct {
	TableCode  string `json:"tableCode"`
	PlayerName string `json:"playerName"`
}

func (j JoinTable) Name() string { return "JOIN_TABLE" }

// RejoinTable claims the seat of a recently disconnected player on the same
// table under the same display name.
type RejoinTable struct {
	TableCode  string `json:"tableCode"`
	PlayerName string `json:"playerName"`
}

func (r RejoinTable) Name() string { return "REJOIN_TABLE" }

type Ready struct{}

func (r Ready) Name() string { return "READY" }

type PlayerAction struct {
	Action string `json:"action"`
	Amount int    `json:"amount,omitempty"`
}

func (p PlayerAction) Name() string { return "PLAYER_ACTION" }

type LeaveTable struct{}

func (l LeaveTable) Name() string { return "LEAVE_TABLE" }

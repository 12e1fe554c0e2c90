package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a rejection so the client can distinguish protocol
// mistakes from rule violations without parsing messages.
type ErrorCode string

const (
	CodeProtocolError ErrorCode = "protocol_error"
	CodeRuleViolation ErrorCode = "rule_violation"
	CodeNotFound      ErrorCode = "not_found"
	CodeCapacity      ErrorCode = "capacity"
)

// GameError is a recoverable rejection reported back to the offending player.
// Every validator path returns one of these instead of mutating state.
type GameError struct {
	Code    ErrorCode
	Message string
}

func (e *GameError) Error() string { return e.Message }

func protocolError(msg string) *GameError {
	return &GameError{Code: CodeProtocolError, Message: msg}
}

func ruleViolation(msg string) *GameError {
	return &GameError{Code: CodeRuleViolation, Message: msg}
}

func notFound(msg string) *GameError {
	return &GameError{Code: CodeNotFound, Message: msg}
}

var (
	ErrNotYourTurn       = protocolError("not your turn")
	ErrUnknownAction     = protocolError("invalid action")
	ErrAlreadySeated     = protocolError("player already at table")
	ErrCannotCheck       = ruleViolation("cannot check, must call or fold")
	ErrInvalidAmount     = ruleViolation("invalid bet amount")
	ErrRaiseTooLow       = ruleViolation("raise must be higher than current bet")
	ErrInsufficientChips = ruleViolation("not enough chips")
	ErrTableNotFound     = notFound("table not found")
	ErrPlayerNotFound    = notFound("player not found at table")
	ErrNoPreviousSession = notFound("no previous session found")
)

// MinRaiseError reports the minimum a raise must reach.
func MinRaiseError(min int) *GameError {
	return ruleViolation(fmt.Sprintf("minimum raise is %d", min))
}

// TableFullError reports that the table is at capacity.
func TableFullError(max int) *GameError {
	return &GameError{
		Code:    CodeCapacity,
		Message: fmt.Sprintf("table is full (maximum %d players)", max),
	}
}

// CodeOf extracts the rejection code from an error, defaulting to
// protocol_error for anything that is not a GameError.
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return CodeProtocolError
}

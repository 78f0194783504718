package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code is a machine-readable rejection kind. Presentation text is left to
// whoever renders the error for a player.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Lifecycle
	CodeMatchAlreadyExists          Code = "MATCH_ALREADY_EXISTS"
	CodeNoMatchInChannel            Code = "NO_MATCH_IN_CHANNEL"
	CodeMatchAlreadyStarted         Code = "MATCH_ALREADY_STARTED"
	CodeMatchNotStarted             Code = "MATCH_NOT_STARTED"
	CodePlayerAlreadyInAnotherMatch Code = "PLAYER_ALREADY_IN_ANOTHER_MATCH"
	CodeInsufficientFighters        Code = "INSUFFICIENT_FIGHTERS"
	CodeNotInitiator                Code = "NOT_INITIATOR"
	CodeRosterFull                  Code = "ROSTER_FULL"
	CodeNotInMatch                  Code = "NOT_IN_MATCH"
	CodeNotAdministrator            Code = "NOT_ADMINISTRATOR"
	CodeBoardFull                   Code = "BOARD_FULL"

	// Turn and movement
	CodeNotPlayerTurn      Code = "NOT_PLAYER_TURN"
	CodeMoveBudgetExceeded Code = "MOVE_BUDGET_EXCEEDED"
	CodeBlockedByFighter   Code = "BLOCKED_BY_FIGHTER"

	// Argument shape
	CodeInvalidNumericArgument Code = "INVALID_NUMERIC_ARGUMENT"
	CodeInvalidDirection       Code = "INVALID_DIRECTION"
	CodeMissingArgument        Code = "MISSING_ARGUMENT"
	CodeUnknownCommand         Code = "UNKNOWN_COMMAND"

	// Combat
	CodeNoTargetInDirection Code = "NO_TARGET_IN_DIRECTION"
	CodeWrongWeaponEquipped Code = "WRONG_WEAPON_EQUIPPED"
	CodeTargetNotFound      Code = "TARGET_NOT_FOUND"
	CodeTargetOutOfRange    Code = "TARGET_OUT_OF_RANGE"
)

// Error is a rejected command. State is never changed by a command that
// returns one.
type Error struct {
	Code     Code
	Metadata map[string]string
}

// NewError creates an error with optional key/value metadata pairs.
func NewError(code Code, kv ...string) *Error {
	e := &Error{Code: code}
	if len(kv) > 1 {
		e.Metadata = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Metadata[kv[i]] = kv[i+1]
		}
	}
	return e
}

func (e *Error) Error() string {
	if len(e.Metadata) == 0 {
		return string(e.Code)
	}
	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Metadata[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Code, strings.Join(parts, ", "))
}

// GetCode extracts the code from any error, or CodeUnknown.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error carries the given code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetMetadata returns the error metadata, or nil for non-domain errors.
func GetMetadata(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Metadata
	}
	return nil
}

package game

import (
	"errors"
	"fmt"
)

// Error is a client-facing failure. Its text is sent back verbatim.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrMissingPlayerID   Error = "missing playerId"
	ErrInvalidBalance    Error = "invalid balance"
	ErrNotAuthenticated  Error = "not authenticated"
	ErrAlreadyInGame     Error = "already in a game"
	ErrInvalidStake      Error = "invalid bet amount"
	ErrInsufficientFunds Error = "insufficient funds"
	ErrInvalidBet        Error = "invalid bet (heads/tails)"

	// ErrNoActiveRoom is never reported to the client.
	ErrNoActiveRoom Error = "no active room"
)

// StakeRangeError rejects a stake outside the configured bounds. It matches
// ErrInvalidStake under errors.Is.
type StakeRangeError struct {
	Min, Max int64
}

func (e StakeRangeError) Error() string {
	return fmt.Sprintf("%s (%d-%d)", ErrInvalidStake, e.Min, e.Max)
}

func (e StakeRangeError) Is(target error) bool {
	return target == ErrInvalidStake
}

// IsStructural reports whether err should be dropped instead of answered.
func IsStructural(err error) bool {
	return errors.Is(err, ErrNoActiveRoom)
}

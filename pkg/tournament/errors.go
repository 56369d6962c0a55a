package tournament

import (
	"errors"
	"fmt"

	"github.com/pashagolub/chessclub/pkg/data"
)

// Sentinel errors for errors.Is checks
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrRoundIndex        = errors.New("round index out of range")
	ErrMatchIndex        = errors.New("match index out of range")
	ErrNotEnoughPlayers  = errors.New("at least two players are required")

	// ErrPlayerNotFound is shared with the player store so either source matches
	ErrPlayerNotFound = data.ErrPlayerNotFound
	ErrInvalidResult  = data.ErrInvalidResult
)

// InvalidStateTransitionError reports an operation attempted in the wrong
// tournament or round state. The tournament is left unchanged.
type InvalidStateTransitionError struct {
	Op     string // Operation that was refused
	State  string // State the tournament or round was in
	Reason string // Optional detail
}

func (e *InvalidStateTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s: %s", e.Op, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is makes errors.Is(err, ErrInvalidTransition) succeed
func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func transitionError(op string, status data.TournamentStatus) error {
	return &InvalidStateTransitionError{Op: op, State: "tournament is " + status.String()}
}

// LookupError reports a player id missing from the registry or the player store
type LookupError struct {
	PlayerID string
	Where    string // "registry" or "player store"
	Err      error  // Underlying store error, if any
}

func (e *LookupError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, data.ErrPlayerNotFound) {
		return fmt.Sprintf("player %s: %s lookup failed: %v", e.PlayerID, e.Where, e.Err)
	}
	return fmt.Sprintf("player %s not found in %s", e.PlayerID, e.Where)
}

// Is makes errors.Is(err, ErrPlayerNotFound) succeed
func (e *LookupError) Is(target error) bool {
	return target == ErrPlayerNotFound
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

package app

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected, per-request recoverable conditions.
// The gateway maps these to client-visible error kinds.
var (
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrAlreadyInRoom   = errors.New("already in a room")
	ErrNoRoomJoined    = errors.New("no room joined")

	// ErrCodeSpaceExhausted means the create retry cap was hit without
	// finding a free code. With ~2x10^9 possible codes this indicates
	// something badly wrong, not bad luck.
	ErrCodeSpaceExhausted = errors.New("could not allocate an unused room code")
)

// IntegrityError reports stored state violating an invariant the
// operation relies on. The caller cannot fix it by retrying; it
// indicates a bug elsewhere in the system.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s", e.Reason)
}

func integrityf(format string, args ...any) *IntegrityError {
	return &IntegrityError{Reason: fmt.Sprintf(format, args...)}
}

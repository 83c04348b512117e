package dispatch

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a cycle the caller aborted. Cancellation commits
// nothing beyond the initiating user turn.
var ErrCancelled = errors.New("dispatch cancelled")

// BlockedError reports a command the safety policy refused outright.
type BlockedError struct {
	Command string
	Reason  string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("command %q blocked: %s", e.Command, e.Reason)
}

// Blocked marks policy rejections so callers can branch on behavior.
func (e *BlockedError) Blocked() bool {
	return true
}

// DeniedError reports a command the user declined at the confirmation gate.
type DeniedError struct {
	Command string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("command %q denied by user", e.Command)
}

func (e *DeniedError) Denied() bool {
	return true
}

package rootcanvas

import (
	"errors"
	"fmt"
)

// State is the facade lifecycle phase. Transitions:
// Closed → Opening → Ready ⇄ Drawing → Committing → Ready,
// Ready → Reconfiguring → Ready, and any state → Closed.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateReady
	StateDrawing
	StateCommitting
	StateReconfiguring
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	case StateDrawing:
		return "drawing"
	case StateCommitting:
		return "committing"
	case StateReconfiguring:
		return "reconfiguring"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrDrawInProgress means Draw was called while a Frame was already
	// outstanding. The existing Frame stays valid. Programmer error.
	ErrDrawInProgress = errors.New("rootcanvas: draw already in progress")

	// ErrNoFrame means Commit was called without an outstanding Frame.
	// Programmer error.
	ErrNoFrame = errors.New("rootcanvas: no frame to commit")
)

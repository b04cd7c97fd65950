package x11

import "errors"

// Session lifecycle failures. Callers match these with errors.Is; wrapped
// messages carry the concrete cause.
var (
	// ErrDisplayUnavailable means no X server answered on the requested display.
	ErrDisplayUnavailable = errors.New("x11: display unavailable")

	// ErrSetupRejected means a server answered but its connection setup was
	// unusable (no screens, default screen out of range).
	ErrSetupRejected = errors.New("x11: connection setup rejected")

	// ErrSessionClosed means the operation used a handle derived from a
	// session that has been closed.
	ErrSessionClosed = errors.New("x11: session closed")
)

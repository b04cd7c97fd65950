package compositor

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/rootcanvas/rootcanvas/x11"
)

// State reports whether a compositing manager owns the screen's compositor
// selection, and through which window. The install strategy branches on it:
// with a compositor present the root window is never repainted directly.
type State struct {
	Owner xproto.Window
}

// Present reports whether a compositor owns the selection.
func (s State) Present() bool { return s.Owner != xproto.WindowNone }

func (s State) String() string {
	if !s.Present() {
		return "absent"
	}
	return fmt.Sprintf("present(owner %d)", s.Owner)
}

// SelectionName returns the compositing manager selection atom name for a
// screen, _NET_WM_CM_S<n> per the EWMH convention.
func SelectionName(screen int) string {
	return fmt.Sprintf("_NET_WM_CM_S%d", screen)
}

// Detect checks selection ownership. Read-only: the server is queried, never
// mutated.
func Detect(sess *x11.Session, screen int) (State, error) {
	if err := sess.Err(); err != nil {
		return State{}, err
	}
	atom, err := selectionAtom(sess, screen)
	if err != nil {
		return State{}, err
	}
	reply, err := xproto.GetSelectionOwner(sess.Conn(), atom).Reply()
	if err != nil {
		return State{}, fmt.Errorf("failed to get selection owner: %w", err)
	}
	return State{Owner: reply.Owner}, nil
}

func selectionAtom(sess *x11.Session, screen int) (xproto.Atom, error) {
	name := SelectionName(screen)
	atom, err := xprop.Atm(sess.XUtil(), name)
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return atom, nil
}

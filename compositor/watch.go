package compositor

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"

	"github.com/rootcanvas/rootcanvas/x11"
)

// ErrWatchUnavailable means the server lacks XFixes, so selection ownership
// changes cannot be streamed; callers fall back to on-demand Detect.
var ErrWatchUnavailable = errors.New("compositor: ownership events unavailable without xfixes")

// ChangeEvent reports a compositor arriving or leaving.
type ChangeEvent struct {
	State State
}

// Watcher is a pull stream of ownership changes, lazy, unbounded, and
// restartable like the topology stream.
type Watcher struct {
	sess *x11.Session
}

// Watch subscribes to ownership notifies for the screen's compositor
// selection.
func Watch(sess *x11.Session, screen int) (*Watcher, error) {
	if err := sess.Err(); err != nil {
		return nil, err
	}
	if !sess.HasXFixes() {
		return nil, ErrWatchUnavailable
	}
	root, err := sess.Root(screen)
	if err != nil {
		return nil, err
	}
	atom, err := selectionAtom(sess, screen)
	if err != nil {
		return nil, err
	}

	mask := uint32(xfixes.SelectionEventMaskSetSelectionOwner |
		xfixes.SelectionEventMaskSelectionWindowDestroy |
		xfixes.SelectionEventMaskSelectionClientClose)
	if err := xfixes.SelectSelectionInputChecked(sess.Conn(), root, atom, mask).Check(); err != nil {
		return nil, fmt.Errorf("failed to select selection input: %w", err)
	}

	return &Watcher{sess: sess}, nil
}

// Next blocks until ownership changes and returns the new state.
func (w *Watcher) Next() (ChangeEvent, error) {
	for {
		ev, err := w.sess.NextSelectionEvent()
		if err != nil {
			return ChangeEvent{}, err
		}
		if ce, ok := DecodeEvent(ev); ok {
			return ce, nil
		}
	}
}

// DecodeEvent maps a raw X event to a compositor change, if it is one.
func DecodeEvent(ev xgb.Event) (ChangeEvent, bool) {
	se, ok := ev.(xfixes.SelectionNotifyEvent)
	if !ok {
		return ChangeEvent{}, false
	}
	return ChangeEvent{State: stateFromNotify(se)}, true
}

// stateFromNotify maps a selection notify to a State without a server round
// trip: a set-owner notify names the new owner, destroy and client-close
// notifies mean the selection is now unowned.
func stateFromNotify(ev xfixes.SelectionNotifyEvent) State {
	if ev.Subtype == xfixes.SelectionEventSetSelectionOwner {
		return State{Owner: ev.Owner}
	}
	return State{}
}

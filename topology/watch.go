package topology

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/rootcanvas/rootcanvas/x11"
)

// ErrWatchUnavailable means the server lacks RandR, so output changes cannot
// be streamed. Callers fall back to resolving on their own schedule.
var ErrWatchUnavailable = errors.New("topology: change events unavailable without randr")

// ChangeKind labels which aspect of the output configuration moved.
type ChangeKind int

const (
	ScreenChange ChangeKind = iota
	CrtcChange
	OutputChange
	OutputPropertyChange
)

func (k ChangeKind) String() string {
	switch k {
	case ScreenChange:
		return "screen-change"
	case CrtcChange:
		return "crtc-change"
	case OutputChange:
		return "output-change"
	case OutputPropertyChange:
		return "output-property"
	}
	return fmt.Sprintf("change(%d)", int(k))
}

// ChangeEvent is one configuration-change notify. It carries only the change
// class and server timestamp; the caller re-resolves the topology in
// response.
type ChangeEvent struct {
	Kind ChangeKind
	Time xproto.Timestamp
}

// Watcher is a pull stream of ChangeEvents: lazy (nothing is read until
// Next), unbounded (the session buffers whatever arrives between pulls), and
// restartable (a new Watcher keeps consuming the same armed subscription).
type Watcher struct {
	sess *x11.Session
}

// Watch subscribes the session to configuration notifies on the screen's
// root window and returns the event stream.
func Watch(sess *x11.Session, screen int) (*Watcher, error) {
	if err := sess.Err(); err != nil {
		return nil, err
	}
	if !sess.HasRandR() {
		return nil, ErrWatchUnavailable
	}
	root, err := sess.Root(screen)
	if err != nil {
		return nil, err
	}

	mask := randr.NotifyMaskScreenChange |
		randr.NotifyMaskCrtcChange |
		randr.NotifyMaskOutputChange |
		randr.NotifyMaskOutputProperty
	if err := randr.SelectInputChecked(sess.Conn(), root, uint16(mask)).Check(); err != nil {
		return nil, fmt.Errorf("failed to select randr input: %w", err)
	}

	return &Watcher{sess: sess}, nil
}

// Next blocks until the server reports a configuration change.
func (w *Watcher) Next() (ChangeEvent, error) {
	for {
		ev, err := w.sess.NextOutputEvent()
		if err != nil {
			return ChangeEvent{}, err
		}
		if ce, ok := DecodeEvent(ev); ok {
			return ce, nil
		}
	}
}

// DecodeEvent maps a raw X event to a topology change, if it is one.
// Notify subcodes outside the subscribed set (providers, leases) map to
// nothing.
func DecodeEvent(ev xgb.Event) (ChangeEvent, bool) {
	switch e := ev.(type) {
	case randr.ScreenChangeNotifyEvent:
		return ChangeEvent{Kind: ScreenChange, Time: e.Timestamp}, true
	case randr.NotifyEvent:
		switch e.SubCode {
		case randr.NotifyCrtcChange:
			return ChangeEvent{Kind: CrtcChange, Time: e.U.Cc.Timestamp}, true
		case randr.NotifyOutputChange:
			return ChangeEvent{Kind: OutputChange, Time: e.U.Oc.Timestamp}, true
		case randr.NotifyOutputProperty:
			return ChangeEvent{Kind: OutputPropertyChange, Time: e.U.Op.Timestamp}, true
		}
	}
	return ChangeEvent{}, false
}

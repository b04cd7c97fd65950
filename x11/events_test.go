package x11

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
)

type fakeError struct{}

func (fakeError) SequenceId() uint16 { return 0 }
func (fakeError) BadId() uint32      { return 0 }
func (fakeError) Error() string      { return "fake protocol error" }

// scriptedWait replays a fixed sequence, then reports the connection closed.
func scriptedWait(script []any) func() (xgb.Event, xgb.Error) {
	i := 0
	return func() (xgb.Event, xgb.Error) {
		if i >= len(script) {
			return nil, nil
		}
		item := script[i]
		i++
		switch v := item.(type) {
		case xgb.Event:
			return v, nil
		case xgb.Error:
			return nil, v
		}
		return nil, nil
	}
}

func TestDemuxDeliversByClass(t *testing.T) {
	d := newDemux(scriptedWait([]any{
		randr.ScreenChangeNotifyEvent{Timestamp: 1},
		xfixes.SelectionNotifyEvent{Owner: 7},
	}))

	// Pulling the selection class pumps past the randr event and queues it.
	ev, err := d.next(classSelection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(xfixes.SelectionNotifyEvent); !ok {
		t.Fatalf("expected selection notify, got %T", ev)
	}

	// The buffered randr event is returned without touching the connection.
	ev, err = d.next(classOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(randr.ScreenChangeNotifyEvent); !ok {
		t.Fatalf("expected screen change notify, got %T", ev)
	}
}

func TestDemuxMergedPull(t *testing.T) {
	d := newDemux(scriptedWait([]any{
		xfixes.SelectionNotifyEvent{Owner: 3},
		randr.ScreenChangeNotifyEvent{Timestamp: 2},
	}))

	// A consumer asking for either class takes events in arrival order.
	ev, err := d.next(classOutput, classSelection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(xfixes.SelectionNotifyEvent); !ok {
		t.Fatalf("expected selection notify first, got %T", ev)
	}
	ev, err = d.next(classOutput, classSelection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(randr.ScreenChangeNotifyEvent); !ok {
		t.Fatalf("expected screen change notify second, got %T", ev)
	}
}

func TestDemuxClosedConnectionIsSticky(t *testing.T) {
	d := newDemux(scriptedWait(nil))

	if _, err := d.next(classOutput); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	// Once terminal, every pull fails the same way.
	if _, err := d.next(classSelection); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected sticky ErrSessionClosed, got %v", err)
	}
}

func TestDemuxQueuedEventsSurviveClose(t *testing.T) {
	d := newDemux(scriptedWait([]any{
		randr.ScreenChangeNotifyEvent{Timestamp: 9},
	}))

	// Drain to the terminal state from the selection stream; the randr event
	// gets buffered on the way.
	if _, err := d.next(classSelection); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	// The buffered event is still delivered before the output stream fails.
	ev, err := d.next(classOutput)
	if err != nil {
		t.Fatalf("expected buffered event before failure, got %v", err)
	}
	if _, ok := ev.(randr.ScreenChangeNotifyEvent); !ok {
		t.Fatalf("expected screen change notify, got %T", ev)
	}
	if _, err := d.next(classOutput); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed after drain, got %v", err)
	}
}

func TestDemuxProtocolErrorHook(t *testing.T) {
	var seen []xgb.Error
	d := newDemux(scriptedWait([]any{
		xgb.Error(fakeError{}),
		randr.ScreenChangeNotifyEvent{Timestamp: 4},
	}))
	d.onProtoError = func(e xgb.Error) { seen = append(seen, e) }

	ev, err := d.next(classOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(randr.ScreenChangeNotifyEvent); !ok {
		t.Fatalf("expected screen change notify, got %T", ev)
	}
	if len(seen) != 1 {
		t.Fatalf("expected 1 protocol error observed, got %d", len(seen))
	}
}

func TestDemuxDropsUnclassifiedEvents(t *testing.T) {
	d := newDemux(scriptedWait([]any{
		xfixes.CursorNotifyEvent{},
		randr.ScreenChangeNotifyEvent{Timestamp: 6},
	}))
	ev, err := d.next(classOutput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ev.(randr.ScreenChangeNotifyEvent); !ok {
		t.Fatalf("expected screen change notify, got %T", ev)
	}
}

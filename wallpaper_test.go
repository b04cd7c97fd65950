package rootcanvas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/rootcanvas/rootcanvas/surface"
	"github.com/rootcanvas/rootcanvas/topology"
	"github.com/rootcanvas/rootcanvas/x11"
)

// The facade paths that do not reach the server are driven directly off the
// state field; everything touching a live connection is exercised against a
// real display instead.

func TestDrawWhileDrawingFails(t *testing.T) {
	existing := &Frame{target: surface.NewDrawTarget(10, 10)}
	w := &Wallpaper{state: StateDrawing, frame: existing}

	f, err := w.Draw()
	if !errors.Is(err, ErrDrawInProgress) {
		t.Fatalf("expected ErrDrawInProgress, got %v", err)
	}
	if f != nil {
		t.Fatalf("expected no new frame")
	}
	// The outstanding frame is untouched.
	if w.frame != existing {
		t.Fatalf("expected existing frame to survive the failed Draw")
	}
}

func TestDrawAfterCloseFails(t *testing.T) {
	w := &Wallpaper{state: StateClosed}
	if _, err := w.Draw(); !errors.Is(err, x11.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestCommitWithoutFrameFails(t *testing.T) {
	w := &Wallpaper{state: StateReady}
	if err := w.Commit(); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("expected ErrNoFrame, got %v", err)
	}
}

func TestCommitAfterCloseFails(t *testing.T) {
	w := &Wallpaper{state: StateClosed}
	if err := w.Commit(); !errors.Is(err, x11.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestReconfigureWhileDrawingQueuesOnce(t *testing.T) {
	w := &Wallpaper{state: StateDrawing}
	if err := w.Reconfigure(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.pendingReconfigure {
		t.Fatalf("expected reconfiguration queued")
	}
	// A second request while still drawing collapses into the same pending
	// slot; at most one reconfiguration runs after Commit.
	if err := w.Reconfigure(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.pendingReconfigure {
		t.Fatalf("expected reconfiguration still queued")
	}
}

func TestReconfigureAfterCloseFails(t *testing.T) {
	w := &Wallpaper{state: StateClosed}
	if err := w.Reconfigure(); !errors.Is(err, x11.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestCloseIdempotentWhenClosed(t *testing.T) {
	w := &Wallpaper{state: StateClosed}
	if err := w.Close(); err != nil {
		t.Fatalf("expected nil from Close on closed wallpaper, got %v", err)
	}
	if w.State() != StateClosed {
		t.Fatalf("expected state closed, got %s", w.State())
	}
}

func TestFailMarksSessionLossClosed(t *testing.T) {
	w := &Wallpaper{state: StateCommitting}
	err := w.fail(x11.ErrSessionClosed)
	if !errors.Is(err, x11.ErrSessionClosed) {
		t.Fatalf("expected error passed through, got %v", err)
	}
	if w.state != StateClosed {
		t.Fatalf("expected session loss to close the facade, got %s", w.state)
	}
	// Other errors leave the state alone.
	w = &Wallpaper{state: StateCommitting}
	if w.fail(errors.New("transient")); w.state != StateCommitting {
		t.Fatalf("expected non-fatal error to keep state, got %s", w.state)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateClosed, "closed"},
		{StateOpening, "opening"},
		{StateReady, "ready"},
		{StateDrawing, "drawing"},
		{StateCommitting, "committing"},
		{StateReconfiguring, "reconfiguring"},
	}
	for _, c := range tests {
		if got := c.s.String(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

func TestFrameCombinedOnly(t *testing.T) {
	topo := topology.Topology{Monitors: []topology.Monitor{
		{ID: 1, X: 0, Y: 0, Width: 100, Height: 50},
	}}
	f := newFrame(surface.NewDrawTarget(100, 50), topo, false)
	if f.Canvas() == nil {
		t.Fatalf("expected combined canvas")
	}
	if len(f.Monitors()) != 0 {
		t.Fatalf("expected no viewports without per-monitor mode")
	}
}

func TestFramePerMonitorViewports(t *testing.T) {
	// Two side-by-side monitors on a negative-origin arrangement; bounds are
	// (-100,0) 200x50, so monitor offsets inside the canvas are 0 and 100.
	topo := topology.Topology{Monitors: []topology.Monitor{
		{ID: 1, X: -100, Y: 0, Width: 100, Height: 50},
		{ID: 2, X: 0, Y: 0, Width: 100, Height: 50},
	}}
	target := surface.NewDrawTarget(200, 50)
	f := newFrame(target, topo, true)

	views := f.Monitors()
	if len(views) != 2 {
		t.Fatalf("expected 2 viewports, got %d", len(views))
	}

	red := color.RGBA{R: 0xff, A: 0xff}
	green := color.RGBA{G: 0xff, A: 0xff}
	views[0].Target.Set(0, 0, red)
	views[1].Target.Set(0, 0, green)

	// Monitor 1 starts at canvas x=0, monitor 2 at canvas x=100.
	if got := target.Image().RGBAAt(0, 0); got != red {
		t.Fatalf("expected red at canvas (0,0), got %v", got)
	}
	if got := target.Image().RGBAAt(100, 0); got != green {
		t.Fatalf("expected green at canvas (100,0), got %v", got)
	}

	for _, v := range views {
		if b := v.Target.Bounds(); b != image.Rect(0, 0, 100, 50) {
			t.Fatalf("expected local viewport bounds 100x50, got %v", b)
		}
	}
}

func TestChangeKindString(t *testing.T) {
	if TopologyChanged.String() != "topology" || CompositorChanged.String() != "compositor" {
		t.Fatalf("unexpected change kind strings: %s, %s",
			TopologyChanged, CompositorChanged)
	}
}

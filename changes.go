package rootcanvas

import (
	"github.com/rootcanvas/rootcanvas/compositor"
	"github.com/rootcanvas/rootcanvas/topology"
)

// ChangeKind labels a merged change event.
type ChangeKind int

const (
	// TopologyChanged means the monitor arrangement moved; the caller
	// usually responds with Reconfigure.
	TopologyChanged ChangeKind = iota
	// CompositorChanged means a compositor started or stopped; the next
	// Commit or Reconfigure switches install strategy.
	CompositorChanged
)

func (k ChangeKind) String() string {
	switch k {
	case TopologyChanged:
		return "topology"
	case CompositorChanged:
		return "compositor"
	}
	return "unknown"
}

// Change is one event from the merged stream. Exactly one of the detail
// fields matching Kind is set.
type Change struct {
	Kind       ChangeKind
	Topology   *topology.ChangeEvent
	Compositor *compositor.ChangeEvent
}

// Changes is the merged pull stream of topology and compositor events: lazy,
// unbounded, restartable. The caller loops Next from its own loop (or a
// dedicated goroutine) and decides when to Reconfigure; the library spawns
// nothing.
type Changes struct {
	w *Wallpaper
}

// Next blocks until a change event arrives. After Close it returns
// x11.ErrSessionClosed.
func (c *Changes) Next() (Change, error) {
	for {
		ev, err := c.w.sess.NextChangeEvent()
		if err != nil {
			return Change{}, err
		}
		if te, ok := topology.DecodeEvent(ev); ok {
			return Change{Kind: TopologyChanged, Topology: &te}, nil
		}
		if ce, ok := compositor.DecodeEvent(ev); ok {
			return Change{Kind: CompositorChanged, Compositor: &ce}, nil
		}
		logger.Debug("unhandled change event", "event", ev)
	}
}

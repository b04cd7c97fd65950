package rootcanvas

import (
	"image"

	"github.com/rootcanvas/rootcanvas/surface"
	"github.com/rootcanvas/rootcanvas/topology"
)

// Frame is one draw pass: a staging canvas the caller paints and then
// commits. It borrows the back-buffer surface; only one Frame is outstanding
// at a time, and Commit consumes it.
type Frame struct {
	target    *surface.DrawTarget
	viewports []MonitorView
}

// MonitorView pairs a monitor with a draw target covering exactly its
// rectangle. Writes land in the shared frame canvas; coordinates are local to
// the monitor, with (0,0) its top-left corner.
type MonitorView struct {
	Monitor topology.Monitor
	Target  *surface.DrawTarget
}

// newFrame builds the frame for the current topology. Viewports are cut only
// in per-monitor mode; dead zones between monitors stay black.
func newFrame(target *surface.DrawTarget, topo topology.Topology, perMonitor bool) *Frame {
	f := &Frame{target: target}
	if !perMonitor {
		return f
	}
	b := topo.Bounds()
	for _, m := range topo.Monitors {
		r := image.Rect(m.X-b.X, m.Y-b.Y, m.X-b.X+m.Width, m.Y-b.Y+m.Height)
		f.viewports = append(f.viewports, MonitorView{
			Monitor: m,
			Target:  target.Viewport(r),
		})
	}
	return f
}

// Canvas is the combined draw target covering the full topology bounds.
func (f *Frame) Canvas() *surface.DrawTarget { return f.target }

// Monitors returns the per-monitor viewports, one per active monitor.
// Empty unless the Wallpaper was opened with Options.PerMonitor.
func (f *Frame) Monitors() []MonitorView { return f.viewports }

// Image exposes the staging pixels directly, for callers that render with
// image/draw or x/image against the whole canvas.
func (f *Frame) Image() *image.RGBA { return f.target.Image() }

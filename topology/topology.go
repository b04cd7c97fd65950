package topology

import (
	"fmt"
	"sort"
)

// Monitor is one active output: a rectangle in root-window coordinates plus
// the server-assigned identifier it was discovered under.
type Monitor struct {
	ID     uint32
	Name   string
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether the point lies inside the monitor rectangle.
func (m Monitor) Contains(x, y int) bool {
	return x >= m.X && x < m.X+m.Width && y >= m.Y && y < m.Y+m.Height
}

func (m Monitor) String() string {
	return fmt.Sprintf("%s: %dx%d+%d+%d", m.Name, m.Width, m.Height, m.X, m.Y)
}

// Source records which query produced a topology.
type Source int

const (
	SourceRandR Source = iota
	SourceXinerama
	SourceRootGeometry
)

func (s Source) String() string {
	switch s {
	case SourceRandR:
		return "randr"
	case SourceXinerama:
		return "xinerama"
	case SourceRootGeometry:
		return "root-geometry"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// Rect is a screen-space rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Topology is one resolved monitor arrangement. Monitors are ordered by ID so
// repeated resolves of an unchanged layout compare equal; rectangles may
// overlap when outputs mirror each other.
type Topology struct {
	Monitors []Monitor
	Source   Source
}

// Bounds computes the minimal rectangle containing every monitor.
func (t Topology) Bounds() Rect {
	if len(t.Monitors) == 0 {
		return Rect{}
	}
	first := t.Monitors[0]
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, m := range t.Monitors[1:] {
		minX = min(minX, m.X)
		minY = min(minY, m.Y)
		maxX = max(maxX, m.X+m.Width)
		maxY = max(maxY, m.Y+m.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Equal reports whether two topologies describe the same arrangement.
func (t Topology) Equal(other Topology) bool {
	if len(t.Monitors) != len(other.Monitors) {
		return false
	}
	for i := range t.Monitors {
		if t.Monitors[i] != other.Monitors[i] {
			return false
		}
	}
	return true
}

func (t Topology) String() string {
	return fmt.Sprintf("%d monitor(s) via %s, bounds %s", len(t.Monitors), t.Source, t.Bounds())
}

func sortMonitors(ms []Monitor) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}

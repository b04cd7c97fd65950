package rootcanvas

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/charmbracelet/log"
	xdraw "golang.org/x/image/draw"

	"github.com/rootcanvas/rootcanvas/compositor"
	"github.com/rootcanvas/rootcanvas/install"
	"github.com/rootcanvas/rootcanvas/surface"
	"github.com/rootcanvas/rootcanvas/topology"
	"github.com/rootcanvas/rootcanvas/x11"
)

// Wallpaper is the session facade: one live X connection driving one screen's
// background. All mutating operations serialize on its mutex — the single
// mutual-exclusion point the X protocol and the resource bookkeeping require.
type Wallpaper struct {
	mu sync.Mutex

	opts   Options
	sess   *x11.Session
	screen int

	state State
	topo  topology.Topology
	comp  compositor.State

	// front is the installed surface, back the one being drawn. Double
	// buffering: back is installed on Commit, then front is freed and the
	// roles swap, so a partially drawn surface is never visible.
	front     *surface.Surface
	back      *surface.Surface
	frame     *Frame
	installed *install.Installed
	lastFrame *image.RGBA

	pendingReconfigure bool
}

// Open connects, resolves the monitor topology, detects the compositor and
// allocates the initial surface. Nothing is installed until the first Commit.
// Auxiliary capabilities that fail (RandR, Xinerama, XFixes) degrade with a
// warning; only connection and allocation failures are errors.
func Open(opts *Options) (*Wallpaper, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		if lvl, err := log.ParseLevel(opts.LogLevel); err == nil {
			logger.SetLevel(lvl)
		}
	}

	sess, err := x11.Open(opts.Display)
	if err != nil {
		return nil, err
	}
	sess.SetLogger(logger)
	sess.HandleProtocolErrors(func(xerr xgb.Error) {
		logger.Debug("x protocol error", "err", xerr)
	})

	w := &Wallpaper{opts: *opts, sess: sess, state: StateOpening}

	screen := opts.Screen
	if screen < 0 {
		screen = sess.DefaultScreen()
	}
	w.screen = screen

	topo, err := topology.Resolve(sess, screen)
	if err != nil {
		sess.Close()
		return nil, err
	}
	if topo.Source != topology.SourceRandR {
		logger.Warn("monitor topology degraded", "source", topo.Source)
	}
	w.topo = topo

	if opts.ForceNoCompositor {
		logger.Debug("compositor detection skipped by option")
	} else {
		st, err := compositor.Detect(sess, screen)
		if err != nil {
			logger.Warn("compositor detection failed, assuming absent", "err", err)
		} else {
			w.comp = st
		}
	}

	b := topo.Bounds()
	back, err := surface.Allocate(sess, screen, b.Width, b.Height)
	if err != nil {
		sess.Close()
		return nil, err
	}
	w.back = back

	// Arm the change subscriptions now so events accumulate even before the
	// caller pulls the stream. Missing extensions degrade to warnings.
	if _, err := topology.Watch(sess, screen); err != nil {
		logger.Warn("monitor change events unavailable", "err", err)
	}
	if !opts.ForceNoCompositor {
		if _, err := compositor.Watch(sess, screen); err != nil {
			logger.Warn("compositor change events unavailable", "err", err)
		}
	}

	w.state = StateReady
	logger.Info("wallpaper session open",
		"display", sess.Display(), "screen", screen,
		"topology", topo.String(), "compositor", w.comp.String())
	return w, nil
}

// Draw starts a frame: Ready → Drawing. The returned Frame stays valid until
// Commit. A second Draw while one Frame is outstanding fails with
// ErrDrawInProgress and leaves the existing Frame untouched.
func (w *Wallpaper) Draw() (*Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateClosed:
		return nil, x11.ErrSessionClosed
	case StateDrawing:
		return nil, ErrDrawInProgress
	case StateReady:
	default:
		return nil, fmt.Errorf("rootcanvas: cannot draw in state %s", w.state)
	}

	if w.back == nil {
		b := w.topo.Bounds()
		back, err := surface.Allocate(w.sess, w.screen, b.Width, b.Height)
		if err != nil {
			return nil, w.fail(err)
		}
		w.back = back
	}
	w.frame = newFrame(w.back.NewTarget(), w.topo, w.opts.PerMonitor)
	w.state = StateDrawing
	return w.frame, nil
}

// Commit finishes the outstanding frame: Drawing → Committing → Ready. The
// staging pixels are uploaded to the back surface, the surface is installed
// (first time) or supersedes the previous one, and only after the server
// confirms the switch is the previous surface freed. At most one queued
// reconfiguration is applied afterwards.
func (w *Wallpaper) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return x11.ErrSessionClosed
	}
	if w.state != StateDrawing || w.frame == nil {
		return ErrNoFrame
	}
	w.state = StateCommitting

	img := w.frame.Image()
	if err := w.back.Upload(img); err != nil {
		// The frame stays committable; the caller may retry.
		w.state = StateDrawing
		return w.fail(err)
	}

	var next *install.Installed
	var err error
	if w.installed == nil {
		next, err = install.Install(w.sess, w.screen, w.back.Pixmap(), w.comp)
	} else {
		next, err = w.installed.Supersede(w.back.Pixmap(), w.comp)
	}
	if err != nil {
		w.state = StateDrawing
		return w.fail(err)
	}
	w.installed = next

	// Confirmed: the server now references the new pixmap only.
	if w.front != nil {
		if err := w.front.Free(); err != nil {
			logger.Warn("failed to free superseded surface", "err", err)
		}
	}
	w.front = w.back
	w.back = nil
	w.lastFrame = img
	w.frame = nil
	w.state = StateReady

	if w.pendingReconfigure {
		w.pendingReconfigure = false
		return w.reconfigureLocked()
	}
	return nil
}

// Reconfigure re-resolves the topology and compositor and re-installs the
// background on a correctly sized surface: Ready → Reconfiguring → Ready.
// Called while a Frame is outstanding it queues at most one pending
// reconfiguration, applied after Commit, and returns nil.
func (w *Wallpaper) Reconfigure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateClosed:
		return x11.ErrSessionClosed
	case StateDrawing:
		w.pendingReconfigure = true
		return nil
	case StateReady:
		return w.reconfigureLocked()
	}
	return fmt.Errorf("rootcanvas: cannot reconfigure in state %s", w.state)
}

func (w *Wallpaper) reconfigureLocked() error {
	w.state = StateReconfiguring
	defer func() {
		if w.state == StateReconfiguring {
			w.state = StateReady
		}
	}()

	topo, err := topology.Resolve(w.sess, w.screen)
	if err != nil {
		return w.fail(err)
	}
	if !topo.Equal(w.topo) {
		logger.Info("topology changed", "from", w.topo.String(), "to", topo.String())
	}
	w.topo = topo

	if !w.opts.ForceNoCompositor {
		if st, err := compositor.Detect(w.sess, w.screen); err != nil {
			logger.Warn("compositor re-detection failed, keeping previous state", "err", err)
		} else {
			w.comp = st
		}
	}

	b := topo.Bounds()

	// A back buffer allocated before the change has the wrong size now.
	if w.back != nil && (w.back.Width() != b.Width || w.back.Height() != b.Height) {
		if err := w.back.Free(); err != nil {
			logger.Warn("failed to free stale back buffer", "err", err)
		}
		w.back = nil
	}

	if w.installed == nil {
		// Nothing committed yet; the next Draw allocates at the new size.
		return nil
	}

	next, err := surface.Allocate(w.sess, w.screen, b.Width, b.Height)
	if err != nil {
		return w.fail(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	if w.opts.policy() == PolicyScale && w.lastFrame != nil {
		xdraw.CatmullRom.Scale(img, img.Bounds(), w.lastFrame, w.lastFrame.Bounds(), xdraw.Src, nil)
	}
	if err := next.Upload(img); err != nil {
		next.Free()
		return w.fail(err)
	}

	installed, err := w.installed.Supersede(next.Pixmap(), w.comp)
	if err != nil {
		next.Free()
		return w.fail(err)
	}
	w.installed = installed
	if w.front != nil {
		if err := w.front.Free(); err != nil {
			logger.Warn("failed to free superseded surface", "err", err)
		}
	}
	w.front = next
	w.lastFrame = img
	return nil
}

// Changes returns the merged pull stream of topology and compositor events.
func (w *Wallpaper) Changes() *Changes { return &Changes{w: w} }

// Close releases the connection: any state → Closed, idempotent. The
// never-installed back buffer is freed; the installed pixmap is retained
// server-side so the wallpaper outlives the process. After a lost connection
// no frees are attempted — the server already reclaimed everything.
func (w *Wallpaper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	if w.back != nil {
		if err := w.back.Free(); err != nil {
			logger.Debug("failed to free back buffer at close", "err", err)
		}
		w.back = nil
	}
	w.frame = nil
	w.state = StateClosed
	w.sess.Close()
	return nil
}

// State reports the current lifecycle phase.
func (w *Wallpaper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Topology reports the monitor arrangement of the last resolve.
func (w *Wallpaper) Topology() topology.Topology {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.topo
}

// Compositor reports the compositor state of the last detection.
func (w *Wallpaper) Compositor() compositor.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.comp
}

// Session exposes the underlying connection for callers that need direct
// protocol access alongside the facade.
func (w *Wallpaper) Session() *x11.Session { return w.sess }

// fail marks the facade closed when the session died underneath an
// operation; other errors pass through for the caller to handle.
func (w *Wallpaper) fail(err error) error {
	if errors.Is(err, x11.ErrSessionClosed) {
		w.state = StateClosed
		w.frame = nil
		w.back = nil
		w.front = nil
	}
	return err
}

// Package install makes a pixmap the visible wallpaper by writing the root
// window properties tools and compositors agree on, branching the repaint
// strategy on compositor presence.
package install

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/rootcanvas/rootcanvas/compositor"
	"github.com/rootcanvas/rootcanvas/x11"
)

// ErrPropertyRejected means the server refused a root property write.
// Reported, never retried internally; the caller may retry after a
// reconfiguration.
var ErrPropertyRejected = errors.New("install: root property write rejected")

// Installed is the live committed background of one screen: the pixmap the
// root properties currently reference. Exactly one exists per screen;
// Supersede replaces it and confirms the rewrite before returning, so the
// caller knows the previous pixmap is safe to free.
type Installed struct {
	sess   *x11.Session
	screen int
	root   xproto.Window
	pixmap xproto.Pixmap
}

// Pixmap reports the installed pixmap id.
func (in *Installed) Pixmap() xproto.Pixmap { return in.pixmap }

// Screen reports the screen the background is installed on.
func (in *Installed) Screen() int { return in.screen }

// Install performs the first installation on a screen. Any retained pixmaps a
// previous wallpaper tool left behind (referenced by the classic properties)
// are reclaimed by killing their owner, then both properties are rewritten to
// the new pixmap, the repaint plan for the compositor state is applied, and
// the close-down mode is set to RetainPermanent so the wallpaper survives
// this client's exit.
func Install(sess *x11.Session, screen int, pix xproto.Pixmap, st compositor.State) (*Installed, error) {
	if err := sess.Err(); err != nil {
		return nil, err
	}
	root, err := sess.Root(screen)
	if err != nil {
		return nil, err
	}

	reclaimForeign(sess, root)

	if err := apply(sess, root, pix, st); err != nil {
		return nil, err
	}

	// The installed pixmap must outlive this connection.
	if err := xproto.SetCloseDownModeChecked(sess.Conn(), xproto.CloseDownRetainPermanent).Check(); err != nil {
		return nil, fmt.Errorf("failed to set close-down mode: %w", err)
	}

	return &Installed{sess: sess, screen: screen, root: root, pixmap: pix}, nil
}

// Supersede atomically rewrites the root properties to the next pixmap and
// applies the repaint plan for the current compositor state. It returns only
// after a confirming round trip, so on return the server no longer references
// the previous pixmap and the caller may free it. Supersede never frees
// anything itself.
func (in *Installed) Supersede(pix xproto.Pixmap, st compositor.State) (*Installed, error) {
	if err := in.sess.Err(); err != nil {
		return nil, err
	}
	if err := apply(in.sess, in.root, pix, st); err != nil {
		return nil, err
	}
	return &Installed{sess: in.sess, screen: in.screen, root: in.root, pixmap: pix}, nil
}

// apply writes both properties (checked) and executes the plan for the
// compositor state. The final checked request doubles as the confirming round
// trip: when it returns, the server has processed everything before it.
func apply(sess *x11.Session, root xproto.Window, pix xproto.Pixmap, st compositor.State) error {
	xu := sess.XUtil()
	for _, prop := range []string{RootPixmapProp, ESetRootProp} {
		if err := xprop.ChangeProp32(xu, root, prop, pixmapPropType, uint(pix)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrPropertyRejected, prop, err)
		}
	}

	plan := PlanFor(st.Present())
	conn := sess.Conn()
	if plan.SetRootAttribute {
		if err := xproto.ChangeWindowAttributesChecked(conn, root,
			xproto.CwBackPixmap, []uint32{uint32(pix)}).Check(); err != nil {
			return fmt.Errorf("failed to set root background attribute: %w", err)
		}
	}
	if plan.RepaintRoot {
		// Width/height 0 clears to the root's full extent.
		if err := xproto.ClearAreaChecked(conn, false, root, 0, 0, 0, 0).Check(); err != nil {
			return fmt.Errorf("failed to repaint root: %w", err)
		}
	}
	if !plan.SetRootAttribute && !plan.RepaintRoot {
		// Property writes alone still need a confirmation round trip before
		// the previous pixmap may be freed.
		if _, err := xproto.GetInputFocus(conn).Reply(); err != nil {
			return fmt.Errorf("failed to confirm property write: %w", err)
		}
	}
	return nil
}

// reclaimForeign reads both classic properties and kills the owners of any
// pixmap ids a previous wallpaper tool retained. Ids created by this session
// are skipped. Failures are logged and ignored: the owner may already be
// gone, and a stale id must not block installation.
func reclaimForeign(sess *x11.Session, root xproto.Window) {
	ids := []uint32{
		readPixmapProp(sess, root, RootPixmapProp),
		readPixmapProp(sess, root, ESetRootProp),
	}
	for _, id := range KillCandidates(ids, sess.OwnsResource) {
		if err := xproto.KillClientChecked(sess.Conn(), id).Check(); err != nil {
			sess.Logger().Debug("could not reclaim previous wallpaper pixmap",
				"id", id, "err", err)
		}
	}
}

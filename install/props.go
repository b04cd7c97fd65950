package install

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/rootcanvas/rootcanvas/x11"
)

// The two classic root-pixmap properties. Every root-setting tool since
// Esetroot writes both, and compositors and pseudo-transparent terminals read
// either, so they are the externally visible contract of an install.
const (
	RootPixmapProp    = "_XROOTPMAP_ID"
	ESetRootProp      = "ESETROOT_PMAP_ID"
	pixmapPropType    = "PIXMAP"
	pixmapPropWordLen = 32
)

// Plan describes the server mutations one install performs for a given
// compositor state. Kept as plain data so the branch is testable without a
// server.
type Plan struct {
	// SetRootAttribute sets the root window's CwBackPixmap attribute so the
	// server itself repaints exposed root areas from the pixmap.
	SetRootAttribute bool
	// RepaintRoot forces an immediate full-root repaint (ClearArea).
	RepaintRoot bool
}

// PlanFor computes the mutation plan for a compositor state: without a
// compositor the server must be told to repaint from the pixmap; with one,
// the properties alone suffice and the compositor owns final compositing.
func PlanFor(compositorPresent bool) Plan {
	if compositorPresent {
		return Plan{}
	}
	return Plan{SetRootAttribute: true, RepaintRoot: true}
}

// KillCandidates filters previously installed pixmap ids down to the ones a
// first install should reclaim with KillClient: deduplicated, zero ids
// dropped, and ids created by this session excluded (killing an id of our own
// would kill our own connection).
func KillCandidates(ids []uint32, ownedBySession func(uint32) bool) []uint32 {
	var out []uint32
	seen := make(map[uint32]bool)
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		if ownedBySession != nil && ownedBySession(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// readPixmapProp reads one of the root pixmap properties, interning the atom
// only if it already exists. Returns 0 when the property is absent, malformed
// or not of type PIXMAP — all normal on a fresh server.
func readPixmapProp(sess *x11.Session, root xproto.Window, name string) uint32 {
	atom, err := xprop.Atom(sess.XUtil(), name, true)
	if err != nil || atom == xproto.AtomNone {
		return 0
	}
	reply, err := xproto.GetProperty(sess.Conn(), false, root, atom,
		xproto.GetPropertyTypeAny, 0, 1).Reply()
	if err != nil || reply.Type != xproto.AtomPixmap ||
		reply.Format != pixmapPropWordLen || len(reply.Value) < 4 {
		return 0
	}
	return xgb.Get32(reply.Value)
}

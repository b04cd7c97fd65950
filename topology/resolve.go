package topology

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/rootcanvas/rootcanvas/x11"
)

// Resolve queries the current monitor arrangement for one screen. RandR is
// preferred; Xinerama and finally the bare root geometry serve as fallbacks,
// so the only hard failure is a connection that cannot answer at all. The
// Source field tells the caller which path produced the result.
func Resolve(sess *x11.Session, screen int) (Topology, error) {
	if err := sess.Err(); err != nil {
		return Topology{}, err
	}
	root, err := sess.Root(screen)
	if err != nil {
		return Topology{}, err
	}

	if sess.HasRandR() {
		t, err := resolveRandR(sess, root)
		switch {
		case err != nil:
			sess.Logger().Warn("randr topology query failed, falling back", "err", err)
		case len(t.Monitors) == 0:
			sess.Logger().Warn("randr reported no active outputs, falling back")
		default:
			return t, nil
		}
	}

	if sess.HasXinerama() {
		t, err := resolveXinerama(sess)
		switch {
		case err != nil:
			sess.Logger().Warn("xinerama query failed, falling back", "err", err)
		case len(t.Monitors) == 0:
			sess.Logger().Warn("xinerama reported no screens, falling back")
		default:
			return t, nil
		}
	}

	return resolveRootGeometry(sess, screen, root)
}

// resolveRandR walks the screen's CRTCs. Disabled CRTCs report zero size and
// no outputs; the first output on an active CRTC supplies the monitor's
// identity, so mirrored outputs sharing a CRTC collapse into one monitor.
func resolveRandR(sess *x11.Session, root xproto.Window) (Topology, error) {
	conn := sess.Conn()
	resources, err := randr.GetScreenResources(conn, root).Reply()
	if err != nil {
		return Topology{}, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for _, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		output := info.Outputs[0]
		name := fmt.Sprintf("Output%d", uint32(output))
		if oi, err := randr.GetOutputInfo(conn, output, resources.ConfigTimestamp).Reply(); err == nil {
			name = string(oi.Name)
		}

		monitors = append(monitors, Monitor{
			ID:     uint32(output),
			Name:   name,
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		})
	}

	sortMonitors(monitors)
	return Topology{Monitors: monitors, Source: SourceRandR}, nil
}

func resolveXinerama(sess *x11.Session) (Topology, error) {
	reply, err := xinerama.QueryScreens(sess.Conn()).Reply()
	if err != nil {
		return Topology{}, fmt.Errorf("failed to query xinerama screens: %w", err)
	}

	var monitors []Monitor
	for i, si := range reply.ScreenInfo {
		if si.Width == 0 || si.Height == 0 {
			continue
		}
		monitors = append(monitors, Monitor{
			ID:     uint32(i),
			Name:   fmt.Sprintf("Xinerama%d", i),
			X:      int(si.XOrg),
			Y:      int(si.YOrg),
			Width:  int(si.Width),
			Height: int(si.Height),
		})
	}
	return Topology{Monitors: monitors, Source: SourceXinerama}, nil
}

// resolveRootGeometry synthesizes a single monitor covering the root window,
// the degraded mode for servers without an output extension.
func resolveRootGeometry(sess *x11.Session, screen int, root xproto.Window) (Topology, error) {
	geom, err := xproto.GetGeometry(sess.Conn(), xproto.Drawable(root)).Reply()
	if err != nil {
		return Topology{}, fmt.Errorf("failed to get root geometry: %w", err)
	}
	m := Monitor{
		ID:     0,
		Name:   fmt.Sprintf("Screen%d", screen),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}
	return Topology{Monitors: []Monitor{m}, Source: SourceRootGeometry}, nil
}

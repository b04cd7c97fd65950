// Package rootcanvas turns caller-supplied pixels into a live X11 desktop
// background. It owns the server connection, the off-screen pixmaps holding
// the wallpaper, and the root-window property protocol that makes a pixmap
// the visible background, across any monitor topology and with or without a
// compositor.
//
// The caller drives one Wallpaper through a simple lifecycle: Open, Draw into
// the returned Frame, Commit, and repeat for animation; pull Changes() and
// call Reconfigure when monitors or the compositor come and go; Close when
// done. The committed wallpaper is retained server-side, so it survives the
// process.
//
// The component packages (x11, topology, compositor, surface, install) are
// public so callers can match their error kinds with errors.Is, or drive the
// protocol directly when the facade's policy does not fit.
package rootcanvas

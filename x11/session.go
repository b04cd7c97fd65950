package x11

import (
	"fmt"
	"os"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/charmbracelet/log"
)

// Session owns the connection to one X display and the setup information the
// server reported during the handshake. Every server-side resource the other
// packages create is scoped to a Session; closing it invalidates them all.
type Session struct {
	xu    *xgbutil.XUtil
	setup *xproto.SetupInfo

	display string
	logger  *log.Logger

	hasRandR    bool
	hasXinerama bool
	hasXFixes   bool

	events *demux

	mu        sync.Mutex
	closed    bool
	resources map[uint32]bool
}

// Open connects to the X server on the named display; empty means $DISPLAY.
// Extension initialization is attempted once here — a failure clears the
// matching capability flag and degrades the features built on it, it never
// fails the open.
func Open(display string) (*Session, error) {
	name := display
	if name == "" {
		name = os.Getenv("DISPLAY")
	}

	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to display %q: %w: %w", name, ErrDisplayUnavailable, err)
	}

	conn := xu.Conn()
	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		conn.Close()
		return nil, fmt.Errorf("display %q: %w: server reported no screens", name, ErrSetupRejected)
	}
	if conn.DefaultScreen < 0 || conn.DefaultScreen >= len(setup.Roots) {
		conn.Close()
		return nil, fmt.Errorf("display %q: %w: default screen %d out of range",
			name, ErrSetupRejected, conn.DefaultScreen)
	}

	s := &Session{
		xu:      xu,
		setup:   setup,
		display: name,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "rootcanvas",
			Level:  log.WarnLevel,
		}),
		resources: make(map[uint32]bool),
	}
	s.events = newDemux(conn.WaitForEvent)

	if err := randr.Init(conn); err == nil {
		s.hasRandR = true
	}
	if err := xinerama.Init(conn); err == nil {
		s.hasXinerama = true
	}
	if err := xfixes.Init(conn); err == nil {
		// XFixes demands a version handshake before any other request.
		if _, err := xfixes.QueryVersion(conn, 5, 0).Reply(); err == nil {
			s.hasXFixes = true
		}
	}

	return s, nil
}

// Conn exposes the raw protocol connection.
func (s *Session) Conn() *xgb.Conn { return s.xu.Conn() }

// XUtil exposes the xgbutil handle used for atom and property helpers.
func (s *Session) XUtil() *xgbutil.XUtil { return s.xu }

// Display reports the display name the session connected to.
func (s *Session) Display() string { return s.display }

// Logger returns the session's diagnostic logger.
func (s *Session) Logger() *log.Logger { return s.logger }

// SetLogger replaces the session's diagnostic logger.
func (s *Session) SetLogger(l *log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// DefaultScreen reports the screen index selected at connect time.
func (s *Session) DefaultScreen() int { return s.xu.Conn().DefaultScreen }

// ScreenCount reports how many screens the display exposes.
func (s *Session) ScreenCount() int { return len(s.setup.Roots) }

// Screen returns the setup descriptor for one screen.
func (s *Session) Screen(screen int) (*xproto.ScreenInfo, error) {
	if err := s.Err(); err != nil {
		return nil, err
	}
	if screen < 0 || screen >= len(s.setup.Roots) {
		return nil, fmt.Errorf("screen %d out of range (display has %d)", screen, len(s.setup.Roots))
	}
	return &s.setup.Roots[screen], nil
}

// Root returns the root window of one screen.
func (s *Session) Root(screen int) (xproto.Window, error) {
	info, err := s.Screen(screen)
	if err != nil {
		return 0, err
	}
	return info.Root, nil
}

// Setup returns the raw connection setup block.
func (s *Session) Setup() *xproto.SetupInfo { return s.setup }

// HasRandR reports whether the RandR extension initialized.
func (s *Session) HasRandR() bool { return s.hasRandR }

// HasXinerama reports whether the Xinerama extension initialized.
func (s *Session) HasXinerama() bool { return s.hasXinerama }

// HasXFixes reports whether the XFixes extension initialized.
func (s *Session) HasXFixes() bool { return s.hasXFixes }

// TrackResource records a server-side id created through this session.
func (s *Session) TrackResource(id uint32) {
	s.mu.Lock()
	s.resources[id] = true
	s.mu.Unlock()
}

// UntrackResource forgets a released id.
func (s *Session) UntrackResource(id uint32) {
	s.mu.Lock()
	delete(s.resources, id)
	s.mu.Unlock()
}

// OwnsResource reports whether the id was created through this session.
func (s *Session) OwnsResource(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resources[id]
}

// Err reports ErrSessionClosed once Close has run, nil before.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Close releases the connection. Idempotent; every handle derived from the
// session fails with ErrSessionClosed afterwards, and blocked event pulls
// unblock with the same error.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.xu.Conn().Close()
}

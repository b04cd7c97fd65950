package surface

import (
	"errors"
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/rootcanvas/rootcanvas/x11"
)

var (
	// ErrAllocationDenied means the server refused to create the pixmap,
	// typically resource exhaustion. Never retried automatically.
	ErrAllocationDenied = errors.New("surface: pixmap allocation denied")

	// ErrUnsupportedDepth means the screen's root depth has no 32-bit
	// ZPixmap format to upload through.
	ErrUnsupportedDepth = errors.New("surface: no usable pixmap format for screen depth")

	// ErrFreed means the surface's server resources were already released.
	ErrFreed = errors.New("surface: already freed")
)

// Surface is one server-side pixmap plus the graphics context used to write
// into it. Dimensions and depth are fixed at allocation; a topology change
// allocates a new Surface instead of resizing. Mutating calls are not safe
// for concurrent use; the facade serializes them.
type Surface struct {
	sess *x11.Session

	pixmap xproto.Pixmap
	gc     xproto.Gcontext
	width  int
	height int
	depth  byte

	scanlinePad int
	msbFirst    bool
	maxReqBytes int

	freed bool
}

// Allocate creates a width×height pixmap at the screen's root depth, the
// only depth a root background pixmap may have.
func Allocate(sess *x11.Session, screen, width, height int) (*Surface, error) {
	if err := sess.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: invalid dimensions %dx%d", width, height)
	}
	scr, err := sess.Screen(screen)
	if err != nil {
		return nil, err
	}

	format, ok := formatForDepth(sess.Setup(), scr.RootDepth)
	if !ok || format.BitsPerPixel != 32 {
		return nil, fmt.Errorf("%w: depth %d", ErrUnsupportedDepth, scr.RootDepth)
	}

	conn := sess.Conn()
	pid, err := xproto.NewPixmapId(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pixmap id: %w", err)
	}
	if err := xproto.CreatePixmapChecked(conn, scr.RootDepth, pid,
		xproto.Drawable(scr.Root), uint16(width), uint16(height)).Check(); err != nil {
		return nil, fmt.Errorf("%w: %dx%d at depth %d: %w", ErrAllocationDenied, width, height, scr.RootDepth, err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.FreePixmap(conn, pid)
		return nil, fmt.Errorf("failed to allocate gcontext id: %w", err)
	}
	// GraphicsExposures off: uploads and copies must not flood the event
	// queue with NoExpose.
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(pid),
		xproto.GcGraphicsExposures, []uint32{0}).Check(); err != nil {
		xproto.FreePixmap(conn, pid)
		return nil, fmt.Errorf("failed to create gc: %w", err)
	}

	sess.TrackResource(uint32(pid))

	return &Surface{
		sess:        sess,
		pixmap:      pid,
		gc:          gc,
		width:       width,
		height:      height,
		depth:       scr.RootDepth,
		scanlinePad: int(format.ScanlinePad),
		msbFirst:    sess.Setup().ImageByteOrder == xproto.ImageOrderMSBFirst,
		maxReqBytes: int(sess.Setup().MaximumRequestLength) * 4,
	}, nil
}

// Pixmap reports the server-side pixmap id.
func (s *Surface) Pixmap() xproto.Pixmap { return s.pixmap }

// Width reports the fixed pixel width.
func (s *Surface) Width() int { return s.width }

// Height reports the fixed pixel height.
func (s *Surface) Height() int { return s.height }

// Depth reports the pixmap depth.
func (s *Surface) Depth() byte { return s.depth }

// Freed reports whether the server resources were released.
func (s *Surface) Freed() bool { return s.freed }

// NewTarget returns a staging canvas matching the surface dimensions.
func (s *Surface) NewTarget() *DrawTarget {
	return NewDrawTarget(s.width, s.height)
}

// Upload writes the staging image into the pixmap as ZPixmap rows, split
// into as many PutImage requests as the server's maximum request length
// demands. The requests are pipelined and checked afterwards; the first
// rejection is returned.
func (s *Surface) Upload(img *image.RGBA) error {
	if err := s.sess.Err(); err != nil {
		return err
	}
	if s.freed {
		return ErrFreed
	}
	b := img.Bounds()
	if b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("surface: image %dx%d does not match surface %dx%d",
			b.Dx(), b.Dy(), s.width, s.height)
	}

	rowBytes := zPixmapStride(s.width, s.scanlinePad)
	data := convertRGBA(img, rowBytes, s.msbFirst)
	rowsPerReq := putImageRows(s.maxReqBytes, rowBytes)
	conn := s.sess.Conn()

	type chunk struct {
		cookie xproto.PutImageCookie
		y      int
	}
	var sent []chunk
	for y := 0; y < s.height; y += rowsPerReq {
		rows := min(rowsPerReq, s.height-y)
		ck := xproto.PutImageChecked(conn, xproto.ImageFormatZPixmap,
			xproto.Drawable(s.pixmap), s.gc,
			uint16(s.width), uint16(rows), 0, int16(y),
			0, s.depth, data[y*rowBytes:(y+rows)*rowBytes])
		sent = append(sent, chunk{cookie: ck, y: y})
	}
	for _, c := range sent {
		if err := c.cookie.Check(); err != nil {
			return fmt.Errorf("failed to upload rows at y=%d: %w", c.y, err)
		}
	}
	return nil
}

// Free releases the pixmap and GC. Callers free a surface only once it is no
// longer installed (or never was). Freeing twice is a no-op; after a lost
// session the server has already reclaimed everything, so Free degrades to
// local bookkeeping.
func (s *Surface) Free() error {
	if s.freed {
		return nil
	}
	s.freed = true
	s.sess.UntrackResource(uint32(s.pixmap))
	if s.sess.Err() != nil {
		return nil
	}

	conn := s.sess.Conn()
	xproto.FreeGC(conn, s.gc)
	if err := xproto.FreePixmapChecked(conn, s.pixmap).Check(); err != nil {
		return fmt.Errorf("failed to free pixmap %d: %w", s.pixmap, err)
	}
	return nil
}

// formatForDepth finds the server's pixmap format for a depth.
func formatForDepth(setup *xproto.SetupInfo, depth byte) (xproto.Format, bool) {
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			return f, true
		}
	}
	return xproto.Format{}, false
}

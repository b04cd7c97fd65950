package surface

import (
	"image"
	"image/color"
	"testing"
)

func TestZPixmapStride(t *testing.T) {
	tests := []struct {
		width, padBits, want int
	}{
		// 32-bit pad: 4 bytes/pixel rows are already aligned.
		{1920, 32, 7680},
		{1, 32, 4},
		{3, 32, 12},
		// 64-bit pad rounds odd widths up.
		{1, 64, 8},
		{2, 64, 8},
		{3, 64, 16},
	}
	for _, c := range tests {
		if got := zPixmapStride(c.width, c.padBits); got != c.want {
			t.Errorf("stride(%d, %d): expected %d, got %d", c.width, c.padBits, c.want, got)
		}
	}
}

func TestPutImageRows(t *testing.T) {
	// 262144-byte max request, 7680-byte rows: (262144-24)/7680 = 34 rows.
	if got := putImageRows(262144, 7680); got != 34 {
		t.Fatalf("expected 34 rows per request, got %d", got)
	}
	// A row wider than the request limit still attempts one row.
	if got := putImageRows(1024, 7680); got != 1 {
		t.Fatalf("expected minimum of 1 row, got %d", got)
	}
}

func TestConvertRGBALittleEndian(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})
	img.SetRGBA(1, 0, color.RGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 0xff})

	data := convertRGBA(img, zPixmapStride(2, 32), false)
	want := []byte{
		0x33, 0x22, 0x11, 0xff, // pixel 0: B G R x
		0xcc, 0xbb, 0xaa, 0xff, // pixel 1
	}
	if len(data) != len(want) {
		t.Fatalf("expected %d bytes, got %d", len(want), len(data))
	}
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, want[i], data[i])
		}
	}
}

func TestConvertRGBABigEndian(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff})

	data := convertRGBA(img, zPixmapStride(1, 32), true)
	want := []byte{0xff, 0x11, 0x22, 0x33} // x R G B
	for i := range want {
		if data[i] != want[i] {
			t.Fatalf("byte %d: expected %#x, got %#x", i, want[i], data[i])
		}
	}
}

func TestConvertRGBARowPadding(t *testing.T) {
	// Width 1 with a 64-bit pad leaves 4 trailing zero bytes per row.
	img := image.NewRGBA(image.Rect(0, 0, 1, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 0xff, A: 0xff})
	img.SetRGBA(0, 1, color.RGBA{B: 0xff, A: 0xff})

	rowBytes := zPixmapStride(1, 64)
	data := convertRGBA(img, rowBytes, false)
	if len(data) != 2*rowBytes {
		t.Fatalf("expected %d bytes, got %d", 2*rowBytes, len(data))
	}
	if data[2] != 0xff {
		t.Fatalf("expected red in row 0, got % x", data[:4])
	}
	if data[rowBytes] != 0xff {
		t.Fatalf("expected blue at start of row 1, got % x", data[rowBytes:rowBytes+4])
	}
	for _, i := range []int{4, 5, 6, 7} {
		if data[i] != 0 {
			t.Fatalf("expected zero padding at byte %d, got %#x", i, data[i])
		}
	}
}

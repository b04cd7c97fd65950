package surface

import "image"

// putImageHeaderBytes is the fixed size of a PutImage request before the
// pixel payload.
const putImageHeaderBytes = 24

// zPixmapStride computes the byte length of one ZPixmap row for a 32-bpp
// format: four bytes per pixel, padded to the server's scanline pad (given in
// bits).
func zPixmapStride(width, scanlinePadBits int) int {
	pad := scanlinePadBits / 8
	if pad < 1 {
		pad = 1
	}
	return (width*4 + pad - 1) &^ (pad - 1)
}

// putImageRows computes how many rows fit in one PutImage request under the
// server's maximum request length. At least one row is always attempted; a
// row wider than the server accepts will be rejected by the server itself.
func putImageRows(maxReqBytes, rowBytes int) int {
	rows := (maxReqBytes - putImageHeaderBytes) / rowBytes
	if rows < 1 {
		return 1
	}
	return rows
}

// convertRGBA repacks an RGBA staging image into ZPixmap rows for a 32-bpp
// direct-color visual: B, G, R, pad for LSB-first servers, the reverse for
// MSB-first. Rows are padded to rowBytes.
func convertRGBA(img *image.RGBA, rowBytes int, msbFirst bool) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, h*rowBytes)
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := data[y*rowBytes:]
		for x := 0; x < w; x++ {
			r, g, bb := src[x*4], src[x*4+1], src[x*4+2]
			if msbFirst {
				dst[x*4] = 0xff
				dst[x*4+1] = r
				dst[x*4+2] = g
				dst[x*4+3] = bb
			} else {
				dst[x*4] = bb
				dst[x*4+1] = g
				dst[x*4+2] = r
				dst[x*4+3] = 0xff
			}
		}
	}
	return data
}

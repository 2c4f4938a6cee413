package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// JPEGEncoder encodes preview frames as JPEG, downscaling anything wider
// than maxWidth.
type JPEGEncoder struct {
	quality  atomic.Int32
	maxWidth int

	scratch *image.RGBA
}

// NewJPEGEncoder creates a JPEG encoder with the given quality (1-100).
// maxWidth <= 0 disables scaling.
func NewJPEGEncoder(quality, maxWidth int) *JPEGEncoder {
	e := &JPEGEncoder{maxWidth: maxWidth}
	e.SetQuality(quality)
	return e
}

func (e *JPEGEncoder) SetQuality(quality int) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	e.quality.Store(int32(quality))
}

func (e *JPEGEncoder) Quality() int {
	return int(e.quality.Load())
}

func (e *JPEGEncoder) Encode(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(64 * 1024)
	err := jpeg.Encode(&buf, e.scale(img), &jpeg.Options{Quality: e.Quality()})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeRGB encodes a tightly packed RGB24 buffer. Not safe for concurrent
// use; the RGBA scratch image is reused between calls.
func (e *JPEGEncoder) EncodeRGB(pix []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 || len(pix) < width*height*3 {
		return nil, fmt.Errorf("encode %dx%d from %d bytes: short buffer", width, height, len(pix))
	}
	if e.scratch == nil || e.scratch.Rect.Dx() != width || e.scratch.Rect.Dy() != height {
		e.scratch = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	dst := e.scratch.Pix
	for i, j := 0, 0; i < width*height*3; i, j = i+3, j+4 {
		dst[j] = pix[i]
		dst[j+1] = pix[i+1]
		dst[j+2] = pix[i+2]
		dst[j+3] = 0xff
	}
	return e.Encode(e.scratch)
}

func (e *JPEGEncoder) scale(img *image.RGBA) image.Image {
	b := img.Bounds()
	if e.maxWidth <= 0 || b.Dx() <= e.maxWidth {
		return img
	}
	h := b.Dy() * e.maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, e.maxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

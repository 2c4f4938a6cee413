// Package encoder turns presented frames into preview thumbnails.
package encoder

import "image"

// Encoder compresses frames for the preview channel. EncodeRGB takes the
// packed RGB24 buffers the pump uploads.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
	EncodeRGB(pix []byte, width, height int) ([]byte, error)
	SetQuality(quality int)
}

var _ Encoder = (*JPEGEncoder)(nil)

package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// JPEGDecoder turns preview thumbnails back into *image.RGBA with the
// origin at zero, ready for a texture upload.
type JPEGDecoder struct{}

func NewJPEGDecoder() *JPEGDecoder {
	return &JPEGDecoder{}
}

func (d *JPEGDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode thumbnail: %w", err)
	}
	return toRGBA(img), nil
}

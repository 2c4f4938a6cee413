package decoder

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/samber/mo"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/junsooki/vitrine/internal/filesystem"
	"github.com/junsooki/vitrine/internal/log"
)

// Image is a packed RGB24 still.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// DecodeFileRGB reads and decodes an image file into three channels.
func DecodeFileRGB(path string) (*Image, error) {
	f, err := filesystem.API().Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return ToRGB(img), nil
}

// DecodeToRGB is DecodeFileRGB with failures logged and reported as None.
func DecodeToRGB(path string) mo.Option[*Image] {
	img, err := DecodeFileRGB(path)
	if err != nil {
		log.For("decoder").WithError(err).Warn("image decode failed")
		return mo.None[*Image]()
	}
	return mo.Some(img)
}

// ToRGB drops alpha and packs any image into RGB24.
func ToRGB(img image.Image) *Image {
	rgba := toRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	out := &Image{Pix: make([]byte, w*h*3), Width: w, Height: h}
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := out.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

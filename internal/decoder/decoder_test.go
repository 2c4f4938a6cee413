package decoder

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/junsooki/vitrine/internal/filesystem"
)

func TestSample(t *testing.T) {
	Convey("Sample release", t, func() {
		calls := 0
		s := NewSample([]byte{1, 2, 3}, 1, 1, func() { calls++ })
		s.Release()
		s.Release()
		So(calls, ShouldEqual, 1)
		So(s.Pix, ShouldBeNil)
	})
}

func TestDecodeToRGB(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("DecodeToRGB", t, func() {
		img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.NRGBA{R: 255, A: 255})
		img.Set(1, 0, color.NRGBA{G: 255, A: 128})
		img.Set(0, 1, color.NRGBA{B: 255, A: 255})
		img.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

		var buf bytes.Buffer
		So(png.Encode(&buf, img), ShouldBeNil)
		So(filesystem.API().WriteFile("/still.png", buf.Bytes(), 0o644), ShouldBeNil)

		Convey("packs three channels row by row", func() {
			out, ok := DecodeToRGB("/still.png").Get()
			So(ok, ShouldBeTrue)
			So(out.Width, ShouldEqual, 2)
			So(out.Height, ShouldEqual, 2)
			So(len(out.Pix), ShouldEqual, 12)
			So(out.Pix[0:3], ShouldResemble, []byte{255, 0, 0})
			So(out.Pix[6:9], ShouldResemble, []byte{0, 0, 255})
			So(out.Pix[9:12], ShouldResemble, []byte{10, 20, 30})
		})

		Convey("reports a missing file as none", func() {
			So(DecodeToRGB("/missing.png").IsAbsent(), ShouldBeTrue)
		})

		Convey("reports garbage as none", func() {
			So(filesystem.API().WriteFile("/junk.png", []byte("not an image"), 0o644), ShouldBeNil)
			So(DecodeToRGB("/junk.png").IsAbsent(), ShouldBeTrue)

			_, err := DecodeFileRGB("/junk.png")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestJPEGDecoder(t *testing.T) {
	Convey("JPEG decoder", t, func() {
		src := image.NewRGBA(image.Rect(0, 0, 16, 8))
		for i := range src.Pix {
			src.Pix[i] = 0x80
		}
		var buf bytes.Buffer
		So(jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}), ShouldBeNil)

		out, err := NewJPEGDecoder().Decode(buf.Bytes())
		So(err, ShouldBeNil)
		So(out.Bounds().Dx(), ShouldEqual, 16)
		So(out.Bounds().Dy(), ShouldEqual, 8)

		_, err = NewJPEGDecoder().Decode([]byte{0, 1, 2})
		So(err, ShouldNotBeNil)
	})
}

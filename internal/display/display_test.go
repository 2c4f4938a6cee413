package display

import (
	"errors"
	"image"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/image/math/f64"
)

func TestDescriptor(t *testing.T) {
	Convey("Descriptor label", t, func() {
		d := Descriptor{Index: 1, Name: "HDMI-1", Bounds: image.Rect(1920, 0, 3840, 1080)}
		So(d.Label(), ShouldEqual, "1: HDMI-1 (1920x1080)")

		d.Name = ""
		So(d.Label(), ShouldEqual, "1: Unknown (1920x1080)")
	})
}

func TestQuad(t *testing.T) {
	Convey("Full screen quad", t, func() {
		v := FullScreenQuad.Map(image.Rect(0, 0, 800, 600), 4, 2)

		Convey("covers the viewport", func() {
			So(v[0].DstX, ShouldEqual, 0)
			So(v[0].DstY, ShouldEqual, 600)
			So(v[2].DstX, ShouldEqual, 800)
			So(v[2].DstY, ShouldEqual, 0)
		})

		Convey("maps the first buffer row to the top", func() {
			So(v[3].DstY, ShouldEqual, 0)
			So(v[3].SrcY, ShouldEqual, 0)
			So(v[0].SrcY, ShouldEqual, 2)
			So(FullScreenQuad.FlipsVertically(), ShouldBeFalse)
			So(FullScreenQuad.FlipsHorizontally(), ShouldBeFalse)
		})

		Convey("offsets by the viewport origin", func() {
			v := FullScreenQuad.Map(image.Rect(10, 20, 110, 70), 1, 1)
			So(v[3].DstX, ShouldEqual, 10)
			So(v[3].DstY, ShouldEqual, 20)
			So(v[1].DstX, ShouldEqual, 110)
			So(v[1].DstY, ShouldEqual, 70)
		})

		Convey("detects a flipped quad", func() {
			q := FullScreenQuad
			for i := range q {
				q[i].V = 1 - q[i].V
			}
			So(q.FlipsVertically(), ShouldBeTrue)
		})
	})
}

func TestAspectFit(t *testing.T) {
	Convey("AspectFit", t, func() {
		Convey("pillarboxes a 4:3 frame in a 16:9 view", func() {
			scale, x, y := AspectFit(1920, 1080, 640, 480)
			So(scale, ShouldAlmostEqual, 2.25)
			So(x, ShouldAlmostEqual, 240)
			So(y, ShouldAlmostEqual, 0)
		})

		Convey("letterboxes a wide frame in a square view", func() {
			scale, x, y := AspectFit(500, 500, 1000, 250)
			So(scale, ShouldAlmostEqual, 0.5)
			So(x, ShouldAlmostEqual, 0)
			So(y, ShouldAlmostEqual, 187.5)
		})

		Convey("leaves an empty frame alone", func() {
			scale, _, _ := AspectFit(500, 500, 0, 0)
			So(scale, ShouldEqual, 1)
		})
	})
}

func TestCheckUpload(t *testing.T) {
	Convey("Upload size check", t, func() {
		So(CheckUpload(2, 2, make([]byte, 12)), ShouldBeNil)
		So(CheckUpload(2, 2, make([]byte, 16)), ShouldNotBeNil)
	})
}

func TestPlaybackSurface(t *testing.T) {
	Convey("PlaybackSurface", t, func() {
		h := NewHeadless(HeadlessOptions{Width: 64, Height: 48})
		p := NewPlaybackSurface(h, "test")

		Convey("creates lazily and only once", func() {
			_, ok := p.current()
			So(ok, ShouldBeFalse)

			s1, err := p.EnsureCreated(Descriptor{Bounds: image.Rect(0, 0, 64, 48)})
			So(err, ShouldBeNil)
			s2, err := p.EnsureCreated(Descriptor{Index: 1, Bounds: image.Rect(0, 0, 10, 10)})
			So(err, ShouldBeNil)
			So(s2, ShouldEqual, s1)
			So(h.Stats().Opened, ShouldEqual, 1)
			So(h.Target().Index, ShouldEqual, 0)

			w, ht := s2.Size()
			So(w, ShouldEqual, 64)
			So(ht, ShouldEqual, 48)
		})

		Convey("does not cache a failed attempt", func() {
			h.SetFailOpen(true)
			_, err := p.EnsureCreated(Descriptor{Bounds: image.Rect(0, 0, 64, 48)})
			var initErr *SurfaceInitError
			So(errors.As(err, &initErr), ShouldBeTrue)
			_, ok := p.current()
			So(ok, ShouldBeFalse)

			h.SetFailOpen(false)
			_, err = p.EnsureCreated(Descriptor{Bounds: image.Rect(0, 0, 64, 48)})
			So(err, ShouldBeNil)
			So(h.Stats().Opened, ShouldEqual, 1)
		})

		Convey("wraps plain backend errors", func() {
			p := NewPlaybackSurface(brokenBackend{h}, "test")
			_, err := p.EnsureCreated(Descriptor{Bounds: image.Rect(0, 0, 1, 1)})
			var initErr *SurfaceInitError
			So(errors.As(err, &initErr), ShouldBeTrue)
			So(initErr.Op, ShouldEqual, "open")
		})

		Convey("closes and forgets the surface", func() {
			_, err := p.EnsureCreated(Descriptor{Bounds: image.Rect(0, 0, 64, 48)})
			So(err, ShouldBeNil)
			So(p.Close(), ShouldBeNil)
			_, ok := p.current()
			So(ok, ShouldBeFalse)
			So(p.Close(), ShouldBeNil)
		})
	})
}

func TestQuadTransform(t *testing.T) {
	Convey("Quad transform", t, func() {
		m, ok := quadTransform(FullScreenQuad.Map(image.Rect(0, 0, 8, 4), 1, 2))
		So(ok, ShouldBeTrue)
		So(m, ShouldResemble, f64.Aff3{8, 0, 0, 0, 2, 0})

		_, ok = quadTransform(FullScreenQuad.Map(image.Rect(0, 0, 8, 4), 0, 0))
		So(ok, ShouldBeFalse)
	})
}

func TestHeadless(t *testing.T) {
	Convey("Headless surface", t, func() {
		h := NewHeadless(HeadlessOptions{Width: 8, Height: 4, Windowed: image.Rect(0, 0, 4, 2)})
		s, err := h.Open(Descriptor{}, "test")
		So(err, ShouldBeNil)

		Convey("draws the first buffer row at the top", func() {
			tex, err := s.NewTexture(1, 2)
			So(err, ShouldBeNil)
			So(tex.Upload([]byte{255, 0, 0, 0, 0, 255}), ShouldBeNil)

			w, ht := s.Size()
			So(s.Present(tex, image.Rect(0, 0, w, ht), FullScreenQuad), ShouldBeNil)
			tex.Release()

			f := h.Frame()
			top := f.RGBAAt(3, 0)
			bottom := f.RGBAAt(3, 3)
			So(top.R, ShouldEqual, 255)
			So(top.B, ShouldEqual, 0)
			So(bottom.R, ShouldEqual, 0)
			So(bottom.B, ShouldEqual, 255)

			st := h.Stats()
			So(st.TexturesAllocated, ShouldEqual, 1)
			So(st.TexturesReleased, ShouldEqual, 1)
			So(st.Uploads, ShouldEqual, 1)
			So(st.Presents, ShouldEqual, 1)
		})

		Convey("mirrors through a quad with swapped columns", func() {
			mirrored := Quad{
				{X: -1, Y: -1, U: 1, V: 1},
				{X: 1, Y: -1, U: 0, V: 1},
				{X: 1, Y: 1, U: 0, V: 0},
				{X: -1, Y: 1, U: 1, V: 0},
			}
			So(mirrored.FlipsHorizontally(), ShouldBeTrue)

			tex, err := s.NewTexture(2, 1)
			So(err, ShouldBeNil)
			So(tex.Upload([]byte{255, 0, 0, 0, 255, 0}), ShouldBeNil)
			So(s.Present(tex, image.Rect(0, 0, 8, 4), mirrored), ShouldBeNil)

			f := h.Frame()
			So(f.RGBAAt(0, 2).G, ShouldEqual, 255)
			So(f.RGBAAt(7, 2).R, ShouldEqual, 255)
		})

		Convey("keeps pixels outside the viewport black", func() {
			tex, err := s.NewTexture(1, 1)
			So(err, ShouldBeNil)
			So(tex.Upload([]byte{9, 9, 9}), ShouldBeNil)
			So(s.Present(tex, image.Rect(2, 0, 6, 4), FullScreenQuad), ShouldBeNil)

			f := h.Frame()
			So(f.RGBAAt(1, 1).R, ShouldEqual, 0)
			So(f.RGBAAt(2, 1).R, ShouldEqual, 9)
			So(f.RGBAAt(5, 1).R, ShouldEqual, 9)
			So(f.RGBAAt(6, 1).R, ShouldEqual, 0)
		})

		Convey("rejects a short upload", func() {
			tex, err := s.NewTexture(2, 2)
			So(err, ShouldBeNil)
			So(tex.Upload(make([]byte, 3)), ShouldNotBeNil)
		})

		Convey("toggles to the windowed geometry and back", func() {
			s.ToggleFullscreen()
			w, ht := s.Size()
			So(w, ShouldEqual, 4)
			So(ht, ShouldEqual, 2)
			So(h.Fullscreen(), ShouldBeFalse)

			s.ToggleFullscreen()
			w, ht = s.Size()
			So(w, ShouldEqual, 8)
			So(ht, ShouldEqual, 4)
		})

		Convey("drains injected events in order", func() {
			h.Inject(EventToggleFullscreen)
			h.Inject(EventQuit)
			e, ok := s.PollEvent()
			So(ok, ShouldBeTrue)
			So(e, ShouldEqual, EventToggleFullscreen)
			e, ok = s.PollEvent()
			So(ok, ShouldBeTrue)
			So(e, ShouldEqual, EventQuit)
			_, ok = s.PollEvent()
			So(ok, ShouldBeFalse)
		})
	})
}

type brokenBackend struct {
	*Headless
}

func (brokenBackend) Open(Descriptor, string) (Surface, error) {
	return nil, errors.New("no display")
}

package pump

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/junsooki/vitrine/internal/decoder/decodertest"
	"github.com/junsooki/vitrine/internal/display"
)

func openHeadless(w, h int) (*display.Headless, display.Surface) {
	hs := display.NewHeadless(display.HeadlessOptions{Width: w, Height: h, Windowed: image.Rect(0, 0, w/2, h/2)})
	s, err := hs.Open(display.Descriptor{}, "test")
	if err != nil {
		panic(err)
	}
	return hs, s
}

func TestSignal(t *testing.T) {
	Convey("Signal", t, func() {
		s := NewSignal()
		So(s.Raised(), ShouldBeFalse)
		So(s.Reason(), ShouldEqual, Reason(0))

		So(s.Raise(StopQuit), ShouldBeTrue)
		So(s.Raise(StopRequested), ShouldBeFalse)
		So(s.Raised(), ShouldBeTrue)
		So(s.Reason(), ShouldEqual, StopQuit)

		closed := false
		select {
		case <-s.Done():
			closed = true
		default:
		}
		So(closed, ShouldBeTrue)
	})
}

func TestPump(t *testing.T) {
	Convey("Pump", t, func() {
		hs, surface := openHeadless(8, 4)
		var sleeps []time.Duration
		opts := Options{
			PullTimeout: 5 * time.Millisecond,
			Backoff:     time.Millisecond,
			Sleep:       func(d time.Duration) { sleeps = append(sleeps, d) },
		}

		Convey("presents every frame until end of stream", func() {
			dec := decodertest.New(
				decodertest.Frame(2, 2, 255, 0, 0),
				decodertest.Frame(2, 2, 0, 255, 0),
				decodertest.Frame(2, 2, 0, 0, 255),
				decodertest.EOS(),
			)
			res := New(dec, surface, NewSignal(), opts).Run()

			So(res.Reason, ShouldEqual, EndOfStream)
			So(res.Frames, ShouldEqual, 3)

			st := hs.Stats()
			So(st.TexturesAllocated, ShouldEqual, 1)
			So(st.TexturesReleased, ShouldEqual, 1)
			So(st.Uploads, ShouldEqual, 3)
			So(st.Presents, ShouldEqual, 3)
			So(dec.Closed(), ShouldBeTrue)
			So(dec.Outstanding(), ShouldEqual, 0)

			So(hs.Frame().RGBAAt(0, 0).B, ShouldEqual, 255)
		})

		Convey("maps the first buffer row to the top of the window", func() {
			pix := []byte{255, 0, 0, 255, 0, 0, 0, 0, 255, 0, 0, 255}
			dec := decodertest.New(decodertest.Step{Frame: pix, Width: 2, Height: 2}, decodertest.EOS())
			New(dec, surface, NewSignal(), opts).Run()

			f := hs.Frame()
			So(f.RGBAAt(4, 0).R, ShouldEqual, 255)
			So(f.RGBAAt(4, 3).B, ShouldEqual, 255)
		})

		Convey("backs off on misses and pull errors", func() {
			dec := decodertest.New(
				decodertest.Step{},
				decodertest.Step{Err: errors.New("bus error")},
				decodertest.Frame(2, 2, 1, 2, 3),
				decodertest.EOS(),
			)
			res := New(dec, surface, NewSignal(), opts).Run()

			So(res.Frames, ShouldEqual, 1)
			So(sleeps, ShouldResemble, []time.Duration{time.Millisecond, time.Millisecond})
		})

		Convey("drops frames whose size differs from the texture", func() {
			dec := decodertest.New(
				decodertest.Frame(2, 2, 1, 1, 1),
				decodertest.Frame(4, 4, 2, 2, 2),
				decodertest.Frame(2, 2, 3, 3, 3),
				decodertest.EOS(),
			)
			res := New(dec, surface, NewSignal(), opts).Run()

			So(res.Frames, ShouldEqual, 2)
			So(res.Dropped, ShouldEqual, 1)
			So(hs.Stats().TexturesAllocated, ShouldEqual, 1)
			So(dec.Outstanding(), ShouldEqual, 0)
		})

		Convey("stops on a window quit without pulling", func() {
			hs.Inject(display.EventQuit)
			dec := decodertest.New(decodertest.Frame(2, 2, 1, 1, 1))
			signal := NewSignal()
			res := New(dec, surface, signal, opts).Run()

			So(res.Reason, ShouldEqual, StopQuit)
			So(signal.Reason(), ShouldEqual, StopQuit)
			So(dec.Pulls(), ShouldEqual, 0)
			So(dec.Closed(), ShouldBeTrue)
		})

		Convey("toggles fullscreen and keeps going", func() {
			hs.Inject(display.EventToggleFullscreen)
			dec := decodertest.New(decodertest.Frame(2, 2, 9, 9, 9), decodertest.EOS())
			res := New(dec, surface, NewSignal(), opts).Run()

			So(res.Frames, ShouldEqual, 1)
			So(hs.Fullscreen(), ShouldBeFalse)
			w, h := surface.Size()
			So(w, ShouldEqual, 4)
			So(h, ShouldEqual, 2)
		})

		Convey("hands uploaded frames to the tap", func() {
			var seen [][3]int
			opts.Tap = func(pix []byte, w, h int) {
				seen = append(seen, [3]int{int(pix[0]), w, h})
			}
			dec := decodertest.New(decodertest.Frame(2, 2, 7, 0, 0), decodertest.Frame(2, 2, 8, 0, 0), decodertest.EOS())
			New(dec, surface, NewSignal(), opts).Run()

			So(seen, ShouldResemble, [][3]int{{7, 2, 2}, {8, 2, 2}})
		})

		Convey("releases the texture when stopped mid-stream", func() {
			dec := decodertest.New(decodertest.Frame(2, 2, 1, 1, 1))
			signal := NewSignal()
			opts.Sleep = func(time.Duration) { signal.Raise(StopRequested) }
			res := New(dec, surface, signal, opts).Run()

			So(res.Reason, ShouldEqual, StopRequested)
			So(res.Frames, ShouldEqual, 1)
			So(hs.Stats().TexturesReleased, ShouldEqual, 1)
			So(dec.Closed(), ShouldBeTrue)
		})
	})
}

func TestPumpStopLatency(t *testing.T) {
	Convey("A raised signal ends a blocked pump within one pull and backoff", t, func() {
		_, surface := openHeadless(8, 4)
		dec := decodertest.New()
		dec.Block = true

		signal := NewSignal()
		p := New(dec, surface, signal, Options{PullTimeout: 20 * time.Millisecond, Backoff: 5 * time.Millisecond})

		var wg sync.WaitGroup
		var res Result
		wg.Add(1)
		go func() {
			defer wg.Done()
			res = p.Run()
		}()

		time.Sleep(30 * time.Millisecond)
		raised := time.Now()
		signal.Raise(StopRequested)
		wg.Wait()

		So(time.Since(raised), ShouldBeLessThan, 150*time.Millisecond)
		So(res.Reason, ShouldEqual, StopRequested)
		So(res.Frames, ShouldEqual, 0)
		So(dec.Closed(), ShouldBeTrue)
	})
}

package preview

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/junsooki/vitrine/internal/encoder"
	"github.com/junsooki/vitrine/internal/peer"
	"github.com/junsooki/vitrine/internal/transport"
)

type fakeSink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *fakeSink) SendFrame(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append([]byte(nil), data...))
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func frame(w, h int, v byte) []byte {
	pix := make([]byte, w*h*3)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func TestBroadcaster(t *testing.T) {
	Convey("Broadcaster", t, func() {
		clock := time.Unix(1000, 0)
		b := NewBroadcaster(encoder.NewJPEGEncoder(80, 0), 5)
		b.now = func() time.Time { return clock }
		sink := &fakeSink{}

		Convey("ignores frames while nobody watches", func() {
			b.Tap(frame(4, 4, 10), 4, 4)
			b.Add("a", sink)
			So(b.flush(), ShouldEqual, 0)
		})

		Convey("sends the captured frame once", func() {
			b.Add("a", sink)
			b.Tap(frame(8, 4, 200), 8, 4)

			So(b.flush(), ShouldEqual, 1)
			So(b.flush(), ShouldEqual, 0)
			So(sink.count(), ShouldEqual, 1)

			cfg, err := jpeg.DecodeConfig(bytes.NewReader(sink.frames[0]))
			So(err, ShouldBeNil)
			So(cfg.Width, ShouldEqual, 8)
			So(cfg.Height, ShouldEqual, 4)
		})

		Convey("keeps at most one frame per interval", func() {
			b.Add("a", sink)
			b.Tap(frame(2, 2, 10), 2, 2)
			clock = clock.Add(50 * time.Millisecond)
			b.Tap(frame(2, 2, 250), 2, 2)
			So(b.pix[0], ShouldEqual, 10)

			clock = clock.Add(200 * time.Millisecond)
			b.Tap(frame(2, 2, 250), 2, 2)
			So(b.pix[0], ShouldEqual, 250)
		})

		Convey("skips sinks that are not open and removed sinks", func() {
			closed := &fakeSink{err: transport.ErrNotOpen}
			broken := &fakeSink{err: errors.New("sctp gone")}
			b.Add("a", sink)
			b.Add("b", closed)
			b.Add("c", broken)
			b.Tap(frame(2, 2, 1), 2, 2)
			So(b.flush(), ShouldEqual, 1)

			b.Remove("a")
			So(b.Len(), ShouldEqual, 2)
		})

		Convey("ignores short buffers", func() {
			b.Add("a", sink)
			b.Tap(make([]byte, 3), 2, 2)
			So(b.flush(), ShouldEqual, 0)
		})
	})
}

type recordingSignaler struct {
	mu     sync.Mutex
	offer  json.RawMessage
	answer json.RawMessage
}

func (s *recordingSignaler) SendOffer(p json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offer = p
	return nil
}

func (s *recordingSignaler) SendAnswer(p json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answer = p
	return nil
}

func TestService(t *testing.T) {
	Convey("Service", t, func() {
		b := NewBroadcaster(encoder.NewJPEGEncoder(70, 0), 5)
		svc := NewService(nil, b)
		defer svc.Close()

		viewerSig := &recordingSignaler{}
		viewer, err := peer.NewViewer(nil, viewerSig)
		So(err, ShouldBeNil)
		defer viewer.Close()
		So(viewer.Connect(), ShouldBeNil)

		playerSig := &recordingSignaler{}
		So(svc.HandleOffer("conn-1", playerSig, viewerSig.offer), ShouldBeNil)
		So(playerSig.answer, ShouldNotBeEmpty)
		So(svc.Viewers(), ShouldEqual, 1)
		So(b.Len(), ShouldEqual, 1)

		Convey("drops the peer with its connection", func() {
			svc.Drop("conn-1")
			So(svc.Viewers(), ShouldEqual, 0)
			So(b.Len(), ShouldEqual, 0)
		})

		Convey("rejects candidates for unknown connections", func() {
			So(svc.HandleICECandidate("conn-2", json.RawMessage(`{}`)), ShouldNotBeNil)
		})

		Convey("rejects a malformed offer", func() {
			So(svc.HandleOffer("conn-3", playerSig, json.RawMessage(`nope`)), ShouldNotBeNil)
			So(svc.Viewers(), ShouldEqual, 1)
		})
	})
}

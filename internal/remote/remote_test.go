package remote

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/decoder/decodertest"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/peer"
	"github.com/junsooki/vitrine/internal/playback"
	"github.com/junsooki/vitrine/internal/pump"
)

var (
	_ peer.OfferSender  = (*Client)(nil)
	_ peer.AnswerSender = (*conn)(nil)
)

func newPlayer() *playback.Controller {
	hs := display.NewHeadless(display.HeadlessOptions{Width: 8, Height: 4})
	displays, _ := hs.Displays()
	return playback.New(playback.Options{
		Surface:  display.NewPlaybackSurface(hs, "test"),
		Displays: displays,
		Open: func(string) (decoder.Decoder, error) {
			dec := decodertest.New()
			dec.Block = true
			return dec, nil
		},
		Pump: pump.Options{PullTimeout: 10 * time.Millisecond, Backoff: 2 * time.Millisecond},
	})
}

type inbox struct {
	statuses chan StatusInfo
	displays chan []DisplayInfo
	errors   chan string
}

func newInbox() *inbox {
	return &inbox{
		statuses: make(chan StatusInfo, 32),
		displays: make(chan []DisplayInfo, 4),
		errors:   make(chan string, 4),
	}
}

func (in *inbox) handler() Handler {
	return Handler{
		OnStatus:   func(st StatusInfo) { in.statuses <- st },
		OnDisplays: func(list []DisplayInfo) { in.displays <- list },
		OnError:    func(msg string) { in.errors <- msg },
	}
}

// waitStatus returns the first status matching pred.
func (in *inbox) waitStatus(pred func(StatusInfo) bool) (StatusInfo, bool) {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st := <-in.statuses:
			if pred(st) {
				return st, true
			}
		case <-timeout:
			return StatusInfo{}, false
		}
	}
}

func (in *inbox) waitError() string {
	select {
	case msg := <-in.errors:
		return msg
	case <-time.After(2 * time.Second):
		return ""
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestControlChannel(t *testing.T) {
	Convey("Control channel", t, func() {
		player := newPlayer()
		defer player.Close()
		srv := httptest.NewServer(NewServer(player, nil))
		defer srv.Close()

		in := newInbox()
		client := NewClient(wsURL(srv), in.handler())
		So(client.Connect(), ShouldBeNil)
		defer client.Close()

		_, ok := in.waitStatus(func(st StatusInfo) bool { return !st.Active })
		So(ok, ShouldBeTrue)

		Convey("lists displays", func() {
			So(client.RequestDisplays(), ShouldBeNil)
			var list []DisplayInfo
			select {
			case list = <-in.displays:
			case <-time.After(2 * time.Second):
			}
			So(list, ShouldHaveLength, 1)
			So(list[0].Name, ShouldEqual, "headless")
			So(list[0].Label, ShouldStartWith, "0: headless")
		})

		Convey("starts and stops a session", func() {
			So(client.Start("/media/loop.mp4", 0, ""), ShouldBeNil)
			st, ok := in.waitStatus(func(st StatusInfo) bool { return st.Active })
			So(ok, ShouldBeTrue)
			So(st.File, ShouldEqual, "/media/loop.mp4")
			So(st.SessionID, ShouldNotBeEmpty)

			So(client.Stop(), ShouldBeNil)
			st, ok = in.waitStatus(func(st StatusInfo) bool { return !st.Active })
			So(ok, ShouldBeTrue)
			So(st.Reason, ShouldEqual, pump.StopRequested.String())
			So(player.Active(), ShouldBeFalse)
		})

		Convey("reports invalid requests as errors", func() {
			So(client.Start("", 0, ""), ShouldBeNil)
			So(in.waitError(), ShouldContainSubstring, "invalid playback request")
			So(player.Active(), ShouldBeFalse)
		})

		Convey("refuses a second session", func() {
			So(client.Start("/media/a.mp4", 0, ""), ShouldBeNil)
			_, ok := in.waitStatus(func(st StatusInfo) bool { return st.Active })
			So(ok, ShouldBeTrue)

			So(client.Start("/media/b.mp4", 0, ""), ShouldBeNil)
			So(in.waitError(), ShouldContainSubstring, "already active")
			So(player.Status().Request.File, ShouldEqual, "/media/a.mp4")
		})

		Convey("rejects preview offers when preview is off", func() {
			So(client.SendOffer([]byte(`{}`)), ShouldBeNil)
			So(in.waitError(), ShouldEqual, errPreviewDisabled.Error())
		})
	})
}

func TestRawProtocol(t *testing.T) {
	Convey("Raw websocket clients", t, func() {
		player := newPlayer()
		defer player.Close()
		server := NewServer(player, nil)
		srv := httptest.NewServer(server)
		defer srv.Close()

		ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		So(err, ShouldBeNil)
		defer ws.Close()

		var hello Message
		So(ws.ReadJSON(&hello), ShouldBeNil)
		So(hello.Type, ShouldEqual, TypeStatus)
		So(server.connections(), ShouldEqual, 1)

		Convey("get a pong with the request id", func() {
			So(ws.WriteJSON(Message{Type: TypePing, ID: "p1"}), ShouldBeNil)
			var reply Message
			So(ws.ReadJSON(&reply), ShouldBeNil)
			So(reply.Type, ShouldEqual, TypePong)
			So(reply.ID, ShouldEqual, "p1")
			So(reply.Timestamp, ShouldBeGreaterThan, 0)
		})

		Convey("get an error for unknown types", func() {
			So(ws.WriteJSON(Message{Type: "rewind", ID: "r1"}), ShouldBeNil)
			var reply Message
			So(ws.ReadJSON(&reply), ShouldBeNil)
			So(reply.Type, ShouldEqual, TypeError)
			So(reply.ID, ShouldEqual, "r1")
			So(reply.Msg, ShouldContainSubstring, "rewind")
		})

		Convey("leave the client count when they hang up", func() {
			So(ws.Close(), ShouldBeNil)
			deadline := time.Now().Add(2 * time.Second)
			for server.connections() > 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			So(server.connections(), ShouldEqual, 0)
		})
	})
}

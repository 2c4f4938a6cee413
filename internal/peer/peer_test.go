package peer

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSignaler struct {
	mu      sync.Mutex
	offers  []json.RawMessage
	answers []json.RawMessage
}

func (s *recordingSignaler) SendOffer(p json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = append(s.offers, p)
	return nil
}

func (s *recordingSignaler) SendAnswer(p json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, p)
	return nil
}

func sdpOf(raw json.RawMessage) webrtc.SessionDescription {
	var sd webrtc.SessionDescription
	if err := json.Unmarshal(raw, &sd); err != nil {
		panic(err)
	}
	return sd
}

func TestOfferAnswer(t *testing.T) {
	Convey("Viewer and player negotiate the frames channel", t, func() {
		viewerSig := &recordingSignaler{}
		playerSig := &recordingSignaler{}

		viewer, err := NewViewer(nil, viewerSig)
		So(err, ShouldBeNil)
		defer viewer.Close()
		player, err := NewPlayer(nil, playerSig)
		So(err, ShouldBeNil)

		So(viewer.Connect(), ShouldBeNil)
		So(viewerSig.offers, ShouldHaveLength, 1)

		offer := sdpOf(viewerSig.offers[0])
		So(offer.Type, ShouldEqual, webrtc.SDPTypeOffer)
		So(strings.Contains(offer.SDP, "m=application"), ShouldBeTrue)

		So(player.HandleOffer(viewerSig.offers[0]), ShouldBeNil)
		So(playerSig.answers, ShouldHaveLength, 1)
		answer := sdpOf(playerSig.answers[0])
		So(answer.Type, ShouldEqual, webrtc.SDPTypeAnswer)

		So(viewer.HandleAnswer(playerSig.answers[0]), ShouldBeNil)

		Convey("closing the player ends it", func() {
			player.Close()
			_, open := <-player.Done()
			So(open, ShouldBeFalse)
		})

		Reset(func() {
			player.Close()
		})
	})

	Convey("A malformed offer is rejected", t, func() {
		player, err := NewPlayer(nil, &recordingSignaler{})
		So(err, ShouldBeNil)
		defer player.Close()

		So(player.HandleOffer(json.RawMessage(`{"type":`)), ShouldNotBeNil)
		So(player.Transport().SendFrame([]byte{1, 2, 3}), ShouldNotBeNil)
	})
}

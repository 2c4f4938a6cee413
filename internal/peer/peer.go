// Package peer sets up the WebRTC connections that carry preview frames.
//
// Both sides create the same negotiated "frames" channel, so the viewer's
// offer already carries the data section and no renegotiation is needed.
package peer

import (
	"encoding/json"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/log"
)

const (
	FramesLabel = "frames"
	framesID    = uint16(0)
)

// gatherTimeout caps how long a description waits for ICE gathering.
const gatherTimeout = 5 * time.Second

// OfferSender delivers the viewer's offer to the player. Both descriptions
// are sent once ICE gathering is done and carry every local candidate.
type OfferSender interface {
	SendOffer(payload json.RawMessage) error
}

// AnswerSender delivers the player's answer to the viewer.
type AnswerSender interface {
	SendAnswer(payload json.RawMessage) error
}

// NewPeerConnection creates a PeerConnection using the given STUN/TURN urls.
func NewPeerConnection(iceServers []string, logger *logrus.Entry) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{}
	urls := lo.Compact(iceServers)
	if len(urls) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: urls}}
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.WithField("state", state.String()).Debug("peer connection state")
	})
	return pc, nil
}

// newFramesChannel creates the unordered, unreliable frames channel.
func newFramesChannel(pc *webrtc.PeerConnection) (*webrtc.DataChannel, error) {
	ordered := false
	maxRetransmits := uint16(0)
	negotiated := true
	id := framesID
	return pc.CreateDataChannel(FramesLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
		Negotiated:     &negotiated,
		ID:             &id,
	})
}

// localDescription waits for ICE gathering and returns the local
// description with its candidates.
func localDescription(pc *webrtc.PeerConnection, logger *logrus.Entry) (json.RawMessage, error) {
	select {
	case <-webrtc.GatheringCompletePromise(pc):
	case <-time.After(gatherTimeout):
		logger.Warn("ICE gathering timed out, sending partial candidates")
	}
	return json.Marshal(pc.LocalDescription())
}

func addCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return pc.AddICECandidate(candidate)
}

func component(name string) *logrus.Entry {
	return log.For("peer").WithField("side", name)
}

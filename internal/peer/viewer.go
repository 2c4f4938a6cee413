package peer

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/transport"
)

// Viewer manages the remote side of a preview connection. It makes the
// offer and receives frames.
type Viewer struct {
	pc        *webrtc.PeerConnection
	sig       OfferSender
	transport *transport.DataChannelTransport
	logger    *logrus.Entry
}

// NewViewer creates a Viewer peer manager.
func NewViewer(iceServers []string, sig OfferSender) (*Viewer, error) {
	logger := component("viewer")
	pc, err := NewPeerConnection(iceServers, logger)
	if err != nil {
		return nil, err
	}

	dc, err := newFramesChannel(pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("frames channel: %w", err)
	}
	dc.OnOpen(func() {
		logger.Info("frames data channel open")
	})

	v := &Viewer{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(dc),
		logger:    logger,
	}
	return v, nil
}

// Transport returns the DataChannelTransport for receiving frames.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return err
	}

	if err := v.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := localDescription(v.pc, v.logger)
	if err != nil {
		return err
	}

	return v.sig.SendOffer(offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	return v.pc.SetRemoteDescription(answer)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if err := v.pc.Close(); err != nil {
		v.logger.WithError(err).Debug("close peer connection")
	}
}

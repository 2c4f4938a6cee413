package peer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/transport"
)

// Player manages the player side of a preview connection. It answers the
// viewer's offer and sends frames.
type Player struct {
	pc        *webrtc.PeerConnection
	sig       AnswerSender
	transport *transport.DataChannelTransport
	logger    *logrus.Entry

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPlayer creates a Player peer manager.
func NewPlayer(iceServers []string, sig AnswerSender) (*Player, error) {
	logger := component("player")
	pc, err := NewPeerConnection(iceServers, logger)
	if err != nil {
		return nil, err
	}

	dc, err := newFramesChannel(pc)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("frames channel: %w", err)
	}

	p := &Player{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(dc),
		logger:    logger,
		closed:    make(chan struct{}),
	}
	dc.OnOpen(func() {
		logger.Info("frames data channel open")
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		logger.WithField("state", state.String()).Debug("peer connection state")
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			p.markClosed()
		}
	})
	return p, nil
}

// Transport returns the DataChannelTransport for sending frames.
func (p *Player) Transport() *transport.DataChannelTransport {
	return p.transport
}

// HandleOffer processes an offer from a viewer and sends the answer.
func (p *Player) HandleOffer(payload json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}

	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}

	if err := p.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := localDescription(p.pc, p.logger)
	if err != nil {
		return err
	}

	return p.sig.SendAnswer(answerJSON)
}

// HandleICECandidate adds a candidate trickled by the viewer.
func (p *Player) HandleICECandidate(payload json.RawMessage) error {
	return addCandidate(p.pc, payload)
}

// Done is closed once the connection has failed or been closed.
func (p *Player) Done() <-chan struct{} {
	return p.closed
}

// Close shuts down the peer connection.
func (p *Player) Close() {
	if err := p.pc.Close(); err != nil {
		p.logger.WithError(err).Debug("close peer connection")
	}
	p.markClosed()
}

func (p *Player) markClosed() {
	p.closeOnce.Do(func() { close(p.closed) })
}

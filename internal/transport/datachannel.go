package transport

import (
	"sync"

	"github.com/pion/webrtc/v4"
)

// DataChannelTransport implements frame transport over a WebRTC data
// channel.
type DataChannelTransport struct {
	mu       sync.Mutex
	framesDC *webrtc.DataChannel
	onFrame  func(data []byte)
}

// NewDataChannelTransport wraps the frames channel. dc may be nil and set
// later with SetFramesChannel.
func NewDataChannelTransport(dc *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if dc != nil {
		t.SetFramesChannel(dc)
	}
	return t
}

// SendFrame sends one frame. Frames sent before the channel opens fail
// with ErrNotOpen.
func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.mu.Lock()
	dc := t.framesDC
	t.mu.Unlock()

	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrNotOpen
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFrame = cb
}

// SetFramesChannel sets or replaces the frames data channel.
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		cb := t.onFrame
		t.mu.Unlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}

// Open reports whether the frames channel is ready to send.
func (t *DataChannelTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.framesDC != nil && t.framesDC.ReadyState() == webrtc.DataChannelStateOpen
}

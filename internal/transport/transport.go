// Package transport carries encoded preview frames between peers.
package transport

import "errors"

// ErrNotOpen is returned when sending before the channel is open.
var ErrNotOpen = errors.New("frames channel not open")

// FrameSender sends encoded video frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded video frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}

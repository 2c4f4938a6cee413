// Package decoder defines the decode stages the player consumes: a video
// stream yielding RGB24 samples and a one-shot still image decoder.
package decoder

import (
	"errors"
	"time"

	"github.com/samber/mo"
)

// ErrEndOfStream is returned by TryPullSample once the stream is exhausted.
var ErrEndOfStream = errors.New("end of stream")

// Decoder is a running decode graph producing packed RGB24 samples.
type Decoder interface {
	// Start moves the graph to playing.
	Start() error
	// TryPullSample waits at most timeout for a sample. A miss returns
	// mo.None and a nil error.
	TryPullSample(timeout time.Duration) (mo.Option[*Sample], error)
	// Stop moves the graph to the null state.
	Stop() error
	// Release frees the graph. The decoder must not be used afterwards.
	Release()
}

// Opener builds a decoder for a media file.
type Opener func(path string) (Decoder, error)

// Sample is one decoded frame. Pix is borrowed from the decoder and read-only;
// it stays valid until Release.
type Sample struct {
	Pix    []byte
	Width  int
	Height int

	release func()
}

func NewSample(pix []byte, width, height int, release func()) *Sample {
	return &Sample{Pix: pix, Width: width, Height: height, release: release}
}

func (s *Sample) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
	s.Pix = nil
}

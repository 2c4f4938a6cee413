// Package preview streams low-rate JPEG thumbnails of presented frames to
// remote viewers.
package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/encoder"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/transport"
)

const DefaultFPS = 5

// Broadcaster samples frames from the pump and sends encoded thumbnails to
// every registered sink. Its Tap never waits on encoding or the network.
type Broadcaster struct {
	enc      encoder.Encoder
	interval time.Duration
	now      func() time.Time
	logger   *logrus.Entry

	sinksMu sync.RWMutex
	sinks   map[string]transport.FrameSender

	frameMu  sync.Mutex
	pix      []byte
	width    int
	height   int
	fresh    bool
	captured time.Time
}

func NewBroadcaster(enc encoder.Encoder, fps int) *Broadcaster {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Broadcaster{
		enc:      enc,
		interval: time.Second / time.Duration(fps),
		now:      time.Now,
		logger:   log.For("preview"),
		sinks:    map[string]transport.FrameSender{},
	}
}

// Add registers a sink under id, replacing any sink with the same id.
func (b *Broadcaster) Add(id string, sink transport.FrameSender) {
	b.sinksMu.Lock()
	defer b.sinksMu.Unlock()
	b.sinks[id] = sink
}

func (b *Broadcaster) Remove(id string) {
	b.sinksMu.Lock()
	defer b.sinksMu.Unlock()
	delete(b.sinks, id)
}

func (b *Broadcaster) Len() int {
	b.sinksMu.RLock()
	defer b.sinksMu.RUnlock()
	return len(b.sinks)
}

// Tap keeps a copy of at most one frame per interval. It is meant to be
// used as the pump's frame tap.
func (b *Broadcaster) Tap(pix []byte, width, height int) {
	if b.Len() == 0 {
		return
	}
	if !b.frameMu.TryLock() {
		return
	}
	defer b.frameMu.Unlock()

	now := b.now()
	if b.fresh && now.Sub(b.captured) < b.interval {
		return
	}
	n := width * height * 3
	if n > len(pix) {
		return
	}
	if cap(b.pix) < n {
		b.pix = make([]byte, n)
	}
	b.pix = b.pix[:n]
	copy(b.pix, pix)
	b.width, b.height = width, height
	b.fresh = true
	b.captured = now
}

// Run sends the latest frame once per interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.flush()
		}
	}
}

// flush encodes the pending frame, if any, and sends it to every sink.
func (b *Broadcaster) flush() int {
	b.frameMu.Lock()
	if !b.fresh {
		b.frameMu.Unlock()
		return 0
	}
	data, err := b.enc.EncodeRGB(b.pix, b.width, b.height)
	b.fresh = false
	b.frameMu.Unlock()
	if err != nil {
		b.logger.WithError(err).Warn("encode preview frame")
		return 0
	}

	b.sinksMu.RLock()
	defer b.sinksMu.RUnlock()
	sent := 0
	for id, sink := range b.sinks {
		err := sink.SendFrame(data)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, transport.ErrNotOpen):
		default:
			b.logger.WithError(err).WithField("sink", id).Debug("send preview frame")
		}
	}
	return sent
}

// Package pump moves decoded frames from a decoder onto a display surface.
//
// A pump runs on a single goroutine. Each iteration drains window events,
// pulls one sample with a bounded timeout, and either presents it or backs
// off briefly. The only suspension points are the pull and the backoff, so
// a raised Signal is observed within one pull timeout plus one backoff.
package pump

import (
	"errors"
	"image"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/log"
)

const (
	DefaultPullTimeout = 100 * time.Millisecond
	DefaultBackoff     = 10 * time.Millisecond
)

// FrameTap sees every uploaded frame. pix is only valid during the call and
// the tap must not block.
type FrameTap func(pix []byte, width, height int)

type Options struct {
	PullTimeout time.Duration
	Backoff     time.Duration
	Tap         FrameTap
	// Sleep replaces time.Sleep for the backoff.
	Sleep func(time.Duration)
}

// Result summarises a finished pump.
type Result struct {
	Reason  Reason
	Frames  int
	Dropped int
}

type Pump struct {
	dec     decoder.Decoder
	surface display.Surface
	signal  *Signal
	opts    Options
	logger  *logrus.Entry

	tex     display.Texture
	frames  int
	dropped int
}

func New(dec decoder.Decoder, surface display.Surface, signal *Signal, opts Options) *Pump {
	if opts.PullTimeout <= 0 {
		opts.PullTimeout = DefaultPullTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Pump{
		dec:     dec,
		surface: surface,
		signal:  signal,
		opts:    opts,
		logger:  log.For("pump"),
	}
}

// Run pumps until the signal is raised or the stream ends. The decoder is
// stopped and released and the texture freed on every exit path.
func (p *Pump) Run() Result {
	defer p.teardown()

	for {
		p.drainEvents()
		if p.signal.Raised() {
			return p.result(p.signal.Reason())
		}

		sample, err := p.pull()
		switch {
		case errors.Is(err, decoder.ErrEndOfStream):
			return p.result(EndOfStream)
		case err != nil:
			p.logger.WithError(err).Debug("pull failed")
			p.backoff()
		case sample.IsAbsent():
			p.backoff()
		default:
			p.present(sample.MustGet())
		}
	}
}

func (p *Pump) result(r Reason) Result {
	return Result{Reason: r, Frames: p.frames, Dropped: p.dropped}
}

func (p *Pump) drainEvents() {
	for {
		e, ok := p.surface.PollEvent()
		if !ok {
			return
		}
		switch e {
		case display.EventQuit:
			if p.signal.Raise(StopQuit) {
				p.logger.Info("window closed")
			}
		case display.EventToggleFullscreen:
			p.surface.ToggleFullscreen()
		}
	}
}

func (p *Pump) pull() (mo.Option[*decoder.Sample], error) {
	return p.dec.TryPullSample(p.opts.PullTimeout)
}

func (p *Pump) backoff() {
	p.opts.Sleep(p.opts.Backoff)
}

// present uploads the sample, releases it, and draws the texture over the
// whole window.
func (p *Pump) present(s *decoder.Sample) {
	if p.tex == nil {
		tex, err := p.surface.NewTexture(s.Width, s.Height)
		if err != nil {
			s.Release()
			p.logger.WithError(err).Error("texture allocation failed")
			return
		}
		p.tex = tex
		p.logger.WithField("size", image.Pt(s.Width, s.Height)).Debug("texture allocated")
	}

	if tw, th := p.tex.Size(); tw != s.Width || th != s.Height {
		s.Release()
		p.dropped++
		p.logger.Warnf("dropping %dx%d frame, texture is %dx%d", s.Width, s.Height, tw, th)
		return
	}

	err := p.tex.Upload(s.Pix)
	if err == nil && p.opts.Tap != nil {
		p.opts.Tap(s.Pix, s.Width, s.Height)
	}
	s.Release()
	if err != nil {
		p.dropped++
		p.logger.WithError(err).Warn("upload failed")
		return
	}

	w, h := p.surface.Size()
	if err := p.surface.Present(p.tex, image.Rect(0, 0, w, h), display.FullScreenQuad); err != nil {
		p.logger.WithError(err).Warn("present failed")
		return
	}
	p.frames++
}

func (p *Pump) teardown() {
	if p.tex != nil {
		p.tex.Release()
		p.tex = nil
	}
	if err := p.dec.Stop(); err != nil {
		p.logger.WithError(err).Warn("decoder stop failed")
	}
	p.dec.Release()
}

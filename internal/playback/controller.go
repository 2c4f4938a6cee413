// Package playback runs one playback session at a time on a worker
// goroutine and reports its state to any number of subscribers.
package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/fallback"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/pump"
)

// FallbackPresenter shows the idle image after a session.
type FallbackPresenter interface {
	PresentOnce(imagePath string, surface display.Surface) fallback.Result
}

type Options struct {
	Surface  *display.PlaybackSurface
	Displays []display.Descriptor
	Open     decoder.Opener
	Fallback FallbackPresenter
	// DefaultFallback is used when a request names no fallback image.
	DefaultFallback string
	Pump            pump.Options
}

type Controller struct {
	opts   Options
	logger *logrus.Entry

	mu      sync.Mutex
	session *Session
	last    Status
	subs    map[int]chan Status
	nextSub int
	closed  bool
}

func New(opts Options) *Controller {
	return &Controller{
		opts:   opts,
		logger: log.For("playback"),
		subs:   map[int]chan Status{},
	}
}

// Displays returns the displays enumerated at construction.
func (c *Controller) Displays() []display.Descriptor {
	return append([]display.Descriptor(nil), c.opts.Displays...)
}

// Start launches a session. It fails with ErrInvalidInput or ErrSessionBusy
// without spawning anything.
func (c *Controller) Start(req Request) error {
	if req.File == "" {
		return fmt.Errorf("%w: no file selected", ErrInvalidInput)
	}
	if req.Display < 0 || req.Display >= len(c.opts.Displays) {
		return fmt.Errorf("%w: display %d out of range", ErrInvalidInput, req.Display)
	}
	if req.Fallback == "" {
		req.Fallback = c.opts.DefaultFallback
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.session != nil {
		return ErrSessionBusy
	}
	s := newSession(req, c.opts.Displays[req.Display])
	c.session = s
	c.publishLocked(Status{Active: true, SessionID: s.ID, Request: req})

	c.logger.WithFields(logrus.Fields{
		"session": s.ID,
		"file":    req.File,
		"display": req.Display,
	}).Info("playback started")

	go c.run(s)
	return nil
}

// Stop ends the running session and waits for its worker. It is a no-op
// when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return
	}
	s.signal.Raise(pump.StopRequested)
	<-s.done
}

// Wait blocks until the running session, if any, has finished.
func (c *Controller) Wait() {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}
}

func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return Status{Active: true, SessionID: c.session.ID, Request: c.session.Request}
	}
	return c.last
}

// Subscribe returns a channel holding the latest status. Slow readers only
// miss intermediate states. cancel closes the channel.
func (c *Controller) Subscribe() (<-chan Status, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan Status, 1)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ch, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Close stops playback, closes the surface and every subscription.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Stop()

	c.mu.Lock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	if c.opts.Surface == nil {
		return nil
	}
	return c.opts.Surface.Close()
}

func (c *Controller) publishLocked(st Status) {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (c *Controller) run(s *Session) {
	defer close(s.done)

	st := c.play(s)
	st.SessionID = s.ID
	st.Request = s.Request

	logger := c.logger.WithFields(logrus.Fields{
		"session": s.ID,
		"reason":  st.Reason,
		"frames":  st.Frames,
	})
	if st.Err != nil {
		logger.WithError(st.Err).Error("playback failed")
	} else {
		logger.Info("playback finished")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == s {
		c.session = nil
	}
	c.last = st
	c.publishLocked(st)
}

// play is the worker body: surface, decoder, pump, then the fallback frame.
func (c *Controller) play(s *Session) Status {
	surface, err := c.opts.Surface.EnsureCreated(s.target)
	if err != nil {
		return Status{Err: err}
	}

	dec, err := c.opts.Open(s.Request.File)
	if err != nil {
		return Status{Err: &DecodeGraphError{File: s.Request.File, Err: err}}
	}
	if err := dec.Start(); err != nil {
		dec.Release()
		return Status{Err: &DecodeGraphError{File: s.Request.File, Err: err}}
	}

	res := pump.New(dec, surface, s.signal, c.opts.Pump).Run()
	st := Status{Reason: res.Reason, Frames: res.Frames}

	if c.opts.Fallback != nil {
		st.Fallback = c.opts.Fallback.PresentOnce(s.Request.Fallback, surface)
	}
	return st
}

// IsUserError reports whether err was caused by the request itself.
func IsUserError(err error) bool {
	return lo.ContainsBy([]error{ErrInvalidInput, ErrSessionBusy, ErrClosed}, func(target error) bool {
		return errors.Is(err, target)
	})
}

// Package ebitensurface hosts the playback surface in an Ebitengine window.
package ebitensurface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/log"
)

const eventQueueSize = 16

// Backend runs the Ebitengine game loop on the main goroutine. The loop only
// starts once the first surface is opened.
type Backend struct {
	windowed image.Rectangle

	opens   chan openRequest
	running atomic.Bool
}

type openRequest struct {
	target display.Descriptor
	title  string
	reply  chan openReply
}

type openReply struct {
	surface *Surface
	err     error
}

// New creates a backend. windowed is the geometry used when leaving
// fullscreen.
func New(windowed image.Rectangle) *Backend {
	if windowed.Empty() {
		windowed = display.DefaultWindowed
	}
	return &Backend{windowed: windowed, opens: make(chan openRequest)}
}

// Displays lists the monitors known to Ebitengine. Monitor positions are not
// exposed, so bounds start at the origin and the index is what tells two
// identical monitors apart.
func (b *Backend) Displays() ([]display.Descriptor, error) {
	monitors := ebiten.AppendMonitors(nil)
	if len(monitors) == 0 {
		return nil, errors.New("ebiten: no monitors")
	}
	out := make([]display.Descriptor, 0, len(monitors))
	for i, m := range monitors {
		w, h := m.Size()
		out = append(out, display.Descriptor{Index: i, Name: m.Name(), Bounds: image.Rect(0, 0, w, h)})
	}
	return out, nil
}

// Open asks the main goroutine to create the window. Only one surface can
// exist per process.
func (b *Backend) Open(target display.Descriptor, title string) (display.Surface, error) {
	if b.running.Load() {
		return nil, &display.SurfaceInitError{Op: "create window", Err: errors.New("ebiten: window already open")}
	}
	req := openRequest{target: target, title: title, reply: make(chan openReply, 1)}
	b.opens <- req
	r := <-req.reply
	if r.err != nil {
		return nil, r.err
	}
	return r.surface, nil
}

// Run starts app and serves window creation on the calling goroutine, which
// must be the main one.
func (b *Backend) Run(ctx context.Context, app func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- app(ctx)
	}()

	var req openRequest
	select {
	case err := <-done:
		return err
	case req = <-b.opens:
	}

	s, err := b.configure(req)
	req.reply <- openReply{surface: s, err: err}
	if err != nil {
		// app keeps running without a window
		return <-done
	}

	b.running.Store(true)
	var appErr error
	appDone := make(chan struct{})
	go func() {
		appErr = <-done
		close(appDone)
	}()

	s.appDone = appDone
	if err := ebiten.RunGame(s); err != nil {
		cancel()
		<-appDone
		return fmt.Errorf("ebiten: %w", err)
	}
	<-appDone
	return appErr
}

func (b *Backend) configure(req openRequest) (*Surface, error) {
	monitors := ebiten.AppendMonitors(nil)
	if i := req.target.Index; i >= 0 && i < len(monitors) {
		ebiten.SetMonitor(monitors[i])
	}

	w, h := req.target.Bounds.Dx(), req.target.Bounds.Dy()
	if w <= 0 || h <= 0 {
		w, h = b.windowed.Dx(), b.windowed.Dy()
	}

	ebiten.SetWindowTitle(req.title)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowSize(w, h)
	ebiten.SetFullscreen(true)

	s := &Surface{
		windowed:   b.windowed,
		events:     make(chan display.Event, eventQueueSize),
		fullscreen: true,
		logger:     log.For("ebitensurface"),
	}
	s.width.Store(int64(w))
	s.height.Store(int64(h))
	return s, nil
}

// Surface is the Ebitengine window. It implements ebiten.Game and
// display.Surface.
type Surface struct {
	windowed image.Rectangle
	events   chan display.Event
	logger   *logrus.Entry
	appDone  <-chan struct{}
	closed   atomic.Bool

	width, height atomic.Int64

	mu         sync.Mutex
	front      *ebiten.Image
	back       *ebiten.Image
	fullscreen bool
}

// --- ebiten.Game interface ---

func (s *Surface) Update() error {
	select {
	case <-s.appDone:
		return ebiten.Termination
	default:
	}
	if ebiten.IsWindowBeingClosed() {
		s.push(display.EventQuit)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		s.push(display.EventToggleFullscreen)
	}
	return nil
}

// Draw holds mu while it queues the copy, so Present never starts reusing
// the front image until the copy is queued ahead of its Clear.
func (s *Surface) Draw(screen *ebiten.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.front == nil {
		return
	}
	screen.DrawImage(s.front, nil)
}

func (s *Surface) Layout(outsideWidth, outsideHeight int) (int, int) {
	s.width.Store(int64(outsideWidth))
	s.height.Store(int64(outsideHeight))
	return outsideWidth, outsideHeight
}

func (s *Surface) push(e display.Event) {
	select {
	case s.events <- e:
	default:
		s.logger.Warnf("event queue full, dropping %s", e)
	}
}

// --- display.Surface interface ---

func (s *Surface) Size() (int, int) {
	return int(s.width.Load()), int(s.height.Load())
}

func (s *Surface) ToggleFullscreen() {
	s.mu.Lock()
	s.fullscreen = !s.fullscreen
	fullscreen := s.fullscreen
	s.mu.Unlock()

	ebiten.SetFullscreen(fullscreen)
	if !fullscreen {
		ebiten.SetWindowSize(s.windowed.Dx(), s.windowed.Dy())
		ebiten.SetWindowPosition(s.windowed.Min.X, s.windowed.Min.Y)
	}
}

func (s *Surface) PollEvent() (display.Event, bool) {
	select {
	case e := <-s.events:
		return e, true
	default:
		return 0, false
	}
}

func (s *Surface) NewTexture(width, height int) (display.Texture, error) {
	if s.closed.Load() {
		return nil, errors.New("ebiten: surface closed")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ebiten: invalid texture size %dx%d", width, height)
	}
	return &texture{
		img:     ebiten.NewImage(width, height),
		w:       width,
		h:       height,
		scratch: make([]byte, width*height*4),
	}, nil
}

// Present renders into the back image and makes it the front one drawn by
// the game loop.
func (s *Surface) Present(tex display.Texture, viewport image.Rectangle, quad display.Quad) error {
	t, ok := tex.(*texture)
	if !ok {
		return errors.New("ebiten: foreign texture")
	}
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("ebiten: window has no drawable area (%dx%d)", w, h)
	}

	s.mu.Lock()
	back := s.back
	if back == nil || back.Bounds().Dx() != w || back.Bounds().Dy() != h {
		if back != nil {
			back.Deallocate()
		}
		back = ebiten.NewImage(w, h)
	}
	s.mu.Unlock()

	back.Clear()
	mapped := quad.Map(viewport, t.w, t.h)
	vertices := make([]ebiten.Vertex, len(mapped))
	for i, v := range mapped {
		vertices[i] = ebiten.Vertex{
			DstX: v.DstX, DstY: v.DstY,
			SrcX: v.SrcX, SrcY: v.SrcY,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}
	back.DrawTriangles(vertices, display.QuadIndices, t.img, &ebiten.DrawTrianglesOptions{})

	s.mu.Lock()
	s.back, s.front = s.front, back
	s.mu.Unlock()
	return nil
}

func (s *Surface) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range []*ebiten.Image{s.front, s.back} {
		if img != nil {
			img.Deallocate()
		}
	}
	s.front, s.back = nil, nil
	return nil
}

type texture struct {
	img     *ebiten.Image
	w, h    int
	scratch []byte
}

func (t *texture) Size() (int, int) { return t.w, t.h }

// Upload expands RGB24 to the RGBA layout Ebitengine expects.
func (t *texture) Upload(pix []byte) error {
	if err := display.CheckUpload(t.w, t.h, pix); err != nil {
		return err
	}
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		t.scratch[j+0] = pix[i+0]
		t.scratch[j+1] = pix[i+1]
		t.scratch[j+2] = pix[i+2]
		t.scratch[j+3] = 0xff
	}
	t.img.WritePixels(t.scratch)
	return nil
}

func (t *texture) Release() {
	t.img.Deallocate()
}

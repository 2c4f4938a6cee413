package display

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// HeadlessOptions configures the software backend.
type HeadlessOptions struct {
	Width, Height int
	// Windowed is the geometry used when leaving fullscreen.
	Windowed image.Rectangle
	// Displays overrides the single virtual display.
	Displays []Descriptor
	// FailOpen makes Open fail with a SurfaceInitError.
	FailOpen bool
}

// HeadlessStats counts surface operations.
type HeadlessStats struct {
	Opened            int
	TexturesAllocated int
	TexturesReleased  int
	Uploads           int
	Presents          int
}

// Headless is a Backend and Surface that rasterises into memory. Events are
// injected by the caller.
type Headless struct {
	opts HeadlessOptions

	mu         sync.Mutex
	frame      *image.RGBA
	fullscreen bool
	events     []Event
	stats      HeadlessStats
	failOpen   bool
	target     Descriptor
}

func NewHeadless(opts HeadlessOptions) *Headless {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 1280, 720
	}
	if opts.Windowed.Empty() {
		opts.Windowed = DefaultWindowed
	}
	return &Headless{opts: opts, failOpen: opts.FailOpen}
}

// SetFailOpen toggles failure of the next Open calls.
func (h *Headless) SetFailOpen(fail bool) {
	h.mu.Lock()
	h.failOpen = fail
	h.mu.Unlock()
}

func (h *Headless) Displays() ([]Descriptor, error) {
	if len(h.opts.Displays) > 0 {
		return append([]Descriptor(nil), h.opts.Displays...), nil
	}
	return []Descriptor{{
		Index:  0,
		Name:   "headless",
		Bounds: image.Rect(0, 0, h.opts.Width, h.opts.Height),
	}}, nil
}

func (h *Headless) Open(target Descriptor, title string) (Surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failOpen {
		return nil, &SurfaceInitError{Op: "create window", Err: errors.New("headless: open disabled")}
	}
	h.target = target
	bounds := target.Bounds
	if bounds.Empty() {
		bounds = image.Rect(0, 0, h.opts.Width, h.opts.Height)
	}
	h.frame = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	h.fullscreen = true
	h.stats.Opened++
	return h, nil
}

func (h *Headless) Run(ctx context.Context, app func(ctx context.Context) error) error {
	return app(ctx)
}

// Inject queues an event for PollEvent.
func (h *Headless) Inject(e Event) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

// Frame returns a copy of the framebuffer, or nil before Open.
func (h *Headless) Frame() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frame == nil {
		return nil
	}
	out := image.NewRGBA(h.frame.Bounds())
	copy(out.Pix, h.frame.Pix)
	return out
}

func (h *Headless) Stats() HeadlessStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Target returns the display the surface was last opened on.
func (h *Headless) Target() Descriptor {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

func (h *Headless) Fullscreen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fullscreen
}

func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frame == nil {
		return 0, 0
	}
	b := h.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (h *Headless) ToggleFullscreen() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.fullscreen = !h.fullscreen
	w, ht := h.opts.Width, h.opts.Height
	if !h.fullscreen {
		w, ht = h.opts.Windowed.Dx(), h.opts.Windowed.Dy()
	}
	h.frame = image.NewRGBA(image.Rect(0, 0, w, ht))
}

func (h *Headless) PollEvent() (Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.events) == 0 {
		return 0, false
	}
	e := h.events[0]
	h.events = h.events[1:]
	return e, true
}

func (h *Headless) NewTexture(width, height int) (Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("headless: empty texture")
	}
	h.mu.Lock()
	h.stats.TexturesAllocated++
	h.mu.Unlock()
	return &headlessTexture{owner: h, w: width, h: height, img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

func (h *Headless) Present(tex Texture, viewport image.Rectangle, quad Quad) error {
	t, ok := tex.(*headlessTexture)
	if !ok {
		return errors.New("headless: foreign texture")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frame == nil {
		return errors.New("headless: surface not open")
	}
	draw.Draw(h.frame, h.frame.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	if m, ok := quadTransform(quad.Map(viewport, t.w, t.h)); ok {
		dst := h.frame.SubImage(viewport).(*image.RGBA)
		draw.NearestNeighbor.Transform(dst, m, t.img, t.img.Bounds(), draw.Src, nil)
	}
	h.stats.Presents++
	return nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = nil
	return nil
}

type headlessTexture struct {
	owner *Headless
	w, h  int
	img   *image.RGBA
}

func (t *headlessTexture) Size() (int, int) { return t.w, t.h }

func (t *headlessTexture) Upload(pix []byte) error {
	if err := CheckUpload(t.w, t.h, pix); err != nil {
		return err
	}
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		t.img.Pix[j+0] = pix[i+0]
		t.img.Pix[j+1] = pix[i+1]
		t.img.Pix[j+2] = pix[i+2]
		t.img.Pix[j+3] = 0xff
	}
	t.owner.mu.Lock()
	t.owner.stats.Uploads++
	t.owner.mu.Unlock()
	return nil
}

func (t *headlessTexture) Release() {
	t.owner.mu.Lock()
	t.owner.stats.TexturesReleased++
	t.owner.mu.Unlock()
}

// quadTransform returns the texel to pixel affine map fixed by three
// corners of a mapped quad. It reports false for a degenerate quad.
func quadTransform(v [4]Vertex) (f64.Aff3, bool) {
	a, b, c := v[0], v[1], v[3]
	s1x, s1y := float64(b.SrcX-a.SrcX), float64(b.SrcY-a.SrcY)
	s2x, s2y := float64(c.SrcX-a.SrcX), float64(c.SrcY-a.SrcY)
	det := s1x*s2y - s2x*s1y
	if det == 0 {
		return f64.Aff3{}, false
	}
	d1x, d1y := float64(b.DstX-a.DstX), float64(b.DstY-a.DstY)
	d2x, d2y := float64(c.DstX-a.DstX), float64(c.DstY-a.DstY)

	m00 := (d1x*s2y - d2x*s1y) / det
	m01 := (d2x*s1x - d1x*s2x) / det
	m10 := (d1y*s2y - d2y*s1y) / det
	m11 := (d2y*s1x - d1y*s2x) / det
	tx := float64(a.DstX) - m00*float64(a.SrcX) - m01*float64(a.SrcY)
	ty := float64(a.DstY) - m10*float64(a.SrcX) - m11*float64(a.SrcY)
	return f64.Aff3{m00, m01, tx, m10, m11, ty}, true
}

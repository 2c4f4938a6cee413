// Package sdlsurface hosts the playback surface in an SDL2 window. Every SDL
// call runs on the main thread through sdl.Do.
package sdlsurface

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/junsooki/vitrine/internal/display"
)

type Backend struct {
	windowed image.Rectangle
}

func New(windowed image.Rectangle) *Backend {
	if windowed.Empty() {
		windowed = display.DefaultWindowed
	}
	return &Backend{windowed: windowed}
}

// Run initialises SDL video on the main thread and runs app until it returns.
func (b *Backend) Run(ctx context.Context, app func(ctx context.Context) error) error {
	var err error
	sdl.Main(func() {
		sdl.Do(func() {
			err = sdl.Init(sdl.INIT_VIDEO)
		})
		if err != nil {
			err = fmt.Errorf("sdl init: %w", err)
			return
		}
		defer sdl.Do(sdl.Quit)
		err = app(ctx)
	})
	return err
}

func (b *Backend) Displays() ([]display.Descriptor, error) {
	var out []display.Descriptor
	var err error
	sdl.Do(func() {
		var n int
		n, err = sdl.GetNumVideoDisplays()
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			name, nerr := sdl.GetDisplayName(i)
			if nerr != nil {
				name = ""
			}
			r, berr := sdl.GetDisplayBounds(i)
			if berr != nil {
				continue
			}
			out = append(out, display.Descriptor{
				Index:  i,
				Name:   name,
				Bounds: image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H)),
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("sdl displays: %w", err)
	}
	return out, nil
}

// Open creates a resizable fullscreen-desktop window on the target display
// with an accelerated renderer.
func (b *Backend) Open(target display.Descriptor, title string) (display.Surface, error) {
	bounds := target.Bounds
	if bounds.Empty() {
		bounds = b.windowed
	}
	s := &Surface{windowed: b.windowed, fullscreen: true}
	var err error
	sdl.Do(func() {
		s.window, err = sdl.CreateWindow(title,
			int32(bounds.Min.X), int32(bounds.Min.Y),
			int32(bounds.Dx()), int32(bounds.Dy()),
			windowFlags)
		if err != nil {
			err = &display.SurfaceInitError{Op: "create window", Err: err}
			return
		}
		s.renderer, err = sdl.CreateRenderer(s.window, -1, sdl.RENDERER_ACCELERATED)
		if err != nil {
			s.window.Destroy()
			err = &display.SurfaceInitError{Op: "create renderer", Err: err}
		}
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

const windowFlags = sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE | sdl.WINDOW_FULLSCREEN_DESKTOP

type Surface struct {
	windowed   image.Rectangle
	window     *sdl.Window
	renderer   *sdl.Renderer
	fullscreen bool
}

func (s *Surface) Size() (int, int) {
	var w, h int32
	sdl.Do(func() {
		var err error
		w, h, err = s.renderer.GetOutputSize()
		if err != nil {
			w, h = s.window.GetSize()
		}
	})
	return int(w), int(h)
}

func (s *Surface) ToggleFullscreen() {
	s.fullscreen = !s.fullscreen
	sdl.Do(func() {
		if s.fullscreen {
			s.window.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
			return
		}
		s.window.SetFullscreen(0)
		s.window.SetSize(int32(s.windowed.Dx()), int32(s.windowed.Dy()))
		s.window.SetPosition(int32(s.windowed.Min.X), int32(s.windowed.Min.Y))
	})
}

func (s *Surface) PollEvent() (display.Event, bool) {
	var out display.Event
	var ok bool
	sdl.Do(func() {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				out, ok = display.EventQuit, true
				return
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Repeat == 0 && e.Keysym.Sym == sdl.K_f {
					out, ok = display.EventToggleFullscreen, true
					return
				}
			}
		}
	})
	return out, ok
}

func (s *Surface) NewTexture(width, height int) (display.Texture, error) {
	t := &texture{w: width, h: height}
	var err error
	sdl.Do(func() {
		t.tex, err = s.renderer.CreateTexture(uint32(sdl.PIXELFORMAT_RGB24), sdl.TEXTUREACCESS_STREAMING, int32(width), int32(height))
	})
	if err != nil {
		return nil, fmt.Errorf("sdl create texture: %w", err)
	}
	return t, nil
}

// Present draws the texture into the quad's bounding box. The quad is axis
// aligned, so its texture orientation becomes a renderer flip.
func (s *Surface) Present(tex display.Texture, viewport image.Rectangle, quad display.Quad) error {
	t, ok := tex.(*texture)
	if !ok {
		return fmt.Errorf("sdl: foreign texture")
	}
	v := quad.Map(viewport, t.w, t.h)
	minX, minY := float32(math.MaxFloat32), float32(math.MaxFloat32)
	maxX, maxY := float32(-math.MaxFloat32), float32(-math.MaxFloat32)
	for _, c := range v {
		minX, maxX = min(minX, c.DstX), max(maxX, c.DstX)
		minY, maxY = min(minY, c.DstY), max(maxY, c.DstY)
	}
	dst := sdl.Rect{X: int32(minX), Y: int32(minY), W: int32(maxX - minX), H: int32(maxY - minY)}

	flip := sdl.FLIP_NONE
	if quad.FlipsVertically() {
		flip |= sdl.FLIP_VERTICAL
	}
	if quad.FlipsHorizontally() {
		flip |= sdl.FLIP_HORIZONTAL
	}

	var err error
	sdl.Do(func() {
		s.renderer.SetDrawColor(0, 0, 0, 255)
		if err = s.renderer.Clear(); err != nil {
			return
		}
		if err = s.renderer.CopyEx(t.tex, nil, &dst, 0, nil, flip); err != nil {
			return
		}
		s.renderer.Present()
	})
	if err != nil {
		return fmt.Errorf("sdl present: %w", err)
	}
	return nil
}

func (s *Surface) Close() error {
	sdl.Do(func() {
		s.renderer.Destroy()
		s.window.Destroy()
	})
	return nil
}

type texture struct {
	tex  *sdl.Texture
	w, h int
}

func (t *texture) Size() (int, int) { return t.w, t.h }

// Upload copies row by row since the locked pitch may be padded.
func (t *texture) Upload(pix []byte) error {
	if err := display.CheckUpload(t.w, t.h, pix); err != nil {
		return err
	}
	var err error
	sdl.Do(func() {
		var dst []byte
		var pitch int
		dst, pitch, err = t.tex.Lock(nil)
		if err != nil {
			return
		}
		defer t.tex.Unlock()

		row := t.w * 3
		for y := 0; y < t.h; y++ {
			copy(dst[y*pitch:y*pitch+row], pix[y*row:(y+1)*row])
		}
	})
	if err != nil {
		return fmt.Errorf("sdl lock texture: %w", err)
	}
	return nil
}

func (t *texture) Release() {
	sdl.Do(func() {
		t.tex.Destroy()
	})
}

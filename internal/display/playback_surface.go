package display

import (
	"errors"
	"sync"
)

// PlaybackSurface lazily creates the output surface on first use and keeps
// it for every later session.
type PlaybackSurface struct {
	backend Backend
	title   string

	mu      sync.Mutex
	surface Surface
}

func NewPlaybackSurface(backend Backend, title string) *PlaybackSurface {
	return &PlaybackSurface{backend: backend, title: title}
}

// EnsureCreated returns the existing surface, or opens one on target. The
// target is ignored once the surface exists. A failed attempt leaves nothing
// behind so the next call tries again.
func (p *PlaybackSurface) EnsureCreated(target Descriptor) (Surface, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface != nil {
		return p.surface, nil
	}

	s, err := p.backend.Open(target, p.title)
	if err != nil {
		var initErr *SurfaceInitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &SurfaceInitError{Op: "open", Err: err}
	}
	p.surface = s
	return s, nil
}

func (p *PlaybackSurface) current() (Surface, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.surface, p.surface != nil
}

func (p *PlaybackSurface) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.surface == nil {
		return nil
	}
	err := p.surface.Close()
	p.surface = nil
	return err
}

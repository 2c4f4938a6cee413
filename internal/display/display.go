package display

import (
	"context"
	"fmt"
	"image"
)

// DefaultWindowed is the geometry used when leaving fullscreen.
var DefaultWindowed = image.Rect(100, 100, 900, 700)

// Descriptor describes one physical display at enumeration time.
type Descriptor struct {
	Index  int
	Name   string
	Bounds image.Rectangle
}

// Label renders the descriptor the way the control panel lists it.
func (d Descriptor) Label() string {
	name := d.Name
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("%d: %s (%dx%d)", d.Index, name, d.Bounds.Dx(), d.Bounds.Dy())
}

// Enumerator lists the displays available to the windowing system.
type Enumerator interface {
	Displays() ([]Descriptor, error)
}

// Event is a window-system event the frame pump reacts to.
type Event int

const (
	EventQuit Event = iota + 1
	EventToggleFullscreen
)

func (e Event) String() string {
	switch e {
	case EventQuit:
		return "quit"
	case EventToggleFullscreen:
		return "toggle-fullscreen"
	default:
		return "unknown"
	}
}

// Surface is the output window and its graphics context.
type Surface interface {
	// Size reports the live window size.
	Size() (width, height int)
	// ToggleFullscreen flips between fullscreen-desktop and the fixed
	// windowed geometry.
	ToggleFullscreen()
	// PollEvent returns the next pending event without blocking.
	PollEvent() (Event, bool)
	// NewTexture allocates an RGB24 texture of the given size.
	NewTexture(width, height int) (Texture, error)
	// Present clears the viewport, draws tex through quad and swaps.
	Present(tex Texture, viewport image.Rectangle, quad Quad) error
	Close() error
}

// Texture is a GPU texture holding packed RGB24 pixels.
type Texture interface {
	Size() (width, height int)
	// Upload replaces the full texture region. len(pix) must be 3*w*h.
	Upload(pix []byte) error
	Release()
}

// Backend is a windowing system able to host the playback surface.
type Backend interface {
	Enumerator
	// Open creates the window on the target display. A zero Descriptor
	// means the backend's default display.
	Open(target Descriptor, title string) (Surface, error)
	// Run keeps the calling (main) goroutine for the windowing system and
	// runs app on another goroutine. It returns once app has returned.
	Run(ctx context.Context, app func(ctx context.Context) error) error
}

// SurfaceInitError reports a window or graphics context that could not be
// created.
type SurfaceInitError struct {
	Op  string
	Err error
}

func (e *SurfaceInitError) Error() string {
	return fmt.Sprintf("surface init: %s: %v", e.Op, e.Err)
}

func (e *SurfaceInitError) Unwrap() error {
	return e.Err
}

// CheckUpload validates an RGB24 buffer against a texture size.
func CheckUpload(width, height int, pix []byte) error {
	if want := width * height * 3; len(pix) != want {
		return fmt.Errorf("upload %dx%d: got %d bytes, want %d", width, height, len(pix), want)
	}
	return nil
}

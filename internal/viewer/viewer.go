// Package viewer shows a remote player's preview thumbnails in a window.
package viewer

import (
	"image"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/log"
)

// Viewer renders the latest preview frame using Ebitengine, letterboxed to
// the window.
type Viewer struct {
	title   string
	jpeg    *decoder.JPEGDecoder
	logger  *logrus.Entry
	closing <-chan struct{}

	mu          sync.Mutex
	frame       *image.RGBA
	dirty       bool
	ebitenImage *ebiten.Image
	frames      int
}

// New creates a viewer. The window closes when closing is closed; nil
// keeps it open until the user closes it.
func New(title string, closing <-chan struct{}) *Viewer {
	return &Viewer{
		title:   title,
		jpeg:    decoder.NewJPEGDecoder(),
		logger:  log.For("viewer"),
		closing: closing,
	}
}

// HandleJPEG decodes one encoded frame and shows it. Safe to call from the
// network goroutine.
func (v *Viewer) HandleJPEG(data []byte) {
	img, err := v.jpeg.Decode(data)
	if err != nil {
		v.logger.WithError(err).Debug("bad preview frame")
		return
	}
	v.SetFrame(img)
}

// SetFrame updates the displayed frame.
func (v *Viewer) SetFrame(img *image.RGBA) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.frame = img
	v.dirty = true
	v.frames++
}

// Frames counts frames received so far.
func (v *Viewer) Frames() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

// Run starts the Ebitengine game loop. Must be called from the main goroutine.
func (v *Viewer) Run() error {
	ebiten.SetWindowSize(960, 540)
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(v)
}

func (v *Viewer) Update() error {
	if v.closing != nil {
		select {
		case <-v.closing:
			return ebiten.Termination
		default:
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	frame, dirty := v.frame, v.dirty
	v.dirty = false
	v.mu.Unlock()

	if frame == nil {
		return
	}

	fw, fh := frame.Bounds().Dx(), frame.Bounds().Dy()
	if v.ebitenImage == nil ||
		v.ebitenImage.Bounds().Dx() != fw ||
		v.ebitenImage.Bounds().Dy() != fh {
		if v.ebitenImage != nil {
			v.ebitenImage.Deallocate()
		}
		v.ebitenImage = ebiten.NewImage(fw, fh)
		dirty = true
	}
	if dirty {
		v.ebitenImage.WritePixels(frame.Pix)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := display.AspectFit(float64(sw), float64(sh), float64(fw), float64(fh))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(v.ebitenImage, op)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

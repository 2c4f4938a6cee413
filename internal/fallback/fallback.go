// Package fallback shows a still image once playback has ended.
package fallback

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/log"
)

// Result reports what PresentOnce did.
type Result int

const (
	Skipped Result = iota
	Shown
	Failed
)

func (r Result) String() string {
	switch r {
	case Shown:
		return "shown"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

// Presenter draws one fallback frame. With no image configured it draws a
// caption card instead, if a caption is set.
type Presenter struct {
	caption string
	decode  func(path string) (*decoder.Image, bool)
	logger  *logrus.Entry
}

func New(caption string) *Presenter {
	return &Presenter{
		caption: caption,
		decode: func(path string) (*decoder.Image, bool) {
			return decoder.DecodeToRGB(path).Get()
		},
		logger: log.For("fallback"),
	}
}

// PresentOnce decodes imagePath, presents it full screen and frees every
// resource it allocated. Failures are logged and never retried.
func (p *Presenter) PresentOnce(imagePath string, surface display.Surface) Result {
	if imagePath == "" && p.caption == "" {
		return Skipped
	}
	if w, h := surface.Size(); w <= 0 || h <= 0 {
		p.logger.WithField("size", image.Pt(w, h)).Warn("fallback target has no drawable area")
		return Failed
	}

	var img *decoder.Image
	switch {
	case imagePath != "":
		decoded, ok := p.decode(imagePath)
		if !ok {
			p.logger.WithField("image", imagePath).Warn("fallback image unusable")
			return Failed
		}
		img = decoded
	default:
		w, h := surface.Size()
		img = Card(p.caption, w, h)
	}

	tex, err := surface.NewTexture(img.Width, img.Height)
	if err != nil {
		p.logger.WithError(err).Warn("fallback texture allocation failed")
		return Failed
	}
	defer tex.Release()

	if err := tex.Upload(img.Pix); err != nil {
		p.logger.WithError(err).Warn("fallback upload failed")
		return Failed
	}
	w, h := surface.Size()
	if err := surface.Present(tex, image.Rect(0, 0, w, h), display.FullScreenQuad); err != nil {
		p.logger.WithError(err).Warn("fallback present failed")
		return Failed
	}
	p.logger.WithField("image", imagePath).Info("fallback shown")
	return Shown
}

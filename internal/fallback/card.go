package fallback

import (
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/junsooki/vitrine/internal/decoder"
)

const (
	cardBackground = "#101014"
	cardForeground = "#f0f0f0"
)

// Card renders caption centred on a dark background.
func Card(caption string, width, height int) *decoder.Image {
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	dc := gg.NewContext(width, height)
	dc.SetHexColor(cardBackground)
	dc.Clear()

	// basicfont is 13px tall; scale it with the card.
	scale := max(1, float64(height)/180)
	cx, cy := float64(width)/2, float64(height)/2
	dc.ScaleAbout(scale, scale, cx, cy)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetHexColor(cardForeground)
	dc.DrawStringWrapped(caption, cx, cy, 0.5, 0.5, float64(width)*0.8/scale, 1.5, gg.AlignCenter)

	return decoder.ToRGB(dc.Image())
}

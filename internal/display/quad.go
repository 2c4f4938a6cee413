package display

import (
	"image"
	"math"
)

// Corner pairs a normalized device position (X, Y in [-1, 1], +Y up) with a
// texture coordinate (U, V in [0, 1], V=0 is the first buffer row).
type Corner struct {
	X, Y float32
	U, V float32
}

// Quad is a textured quad given counter-clockwise from the bottom-left corner.
type Quad [4]Corner

// FullScreenQuad covers the whole viewport. The first row of the pixel
// buffer lands at the top of the screen.
var FullScreenQuad = Quad{
	{X: -1, Y: -1, U: 0, V: 1},
	{X: 1, Y: -1, U: 1, V: 1},
	{X: 1, Y: 1, U: 1, V: 0},
	{X: -1, Y: 1, U: 0, V: 0},
}

// QuadIndices triangulates a Quad.
var QuadIndices = []uint16{0, 1, 2, 0, 2, 3}

// Vertex is a quad corner in pixel space: Dst inside the viewport with Y
// growing downwards, Src in texels.
type Vertex struct {
	DstX, DstY float32
	SrcX, SrcY float32
}

// Map converts the quad to pixel-space vertices for a viewport and a
// texture of texW x texH texels.
func (q Quad) Map(viewport image.Rectangle, texW, texH int) [4]Vertex {
	var out [4]Vertex
	w, h := float32(viewport.Dx()), float32(viewport.Dy())
	for i, c := range q {
		out[i] = Vertex{
			DstX: float32(viewport.Min.X) + (c.X+1)/2*w,
			DstY: float32(viewport.Min.Y) + (1-c.Y)/2*h,
			SrcX: c.U * float32(texW),
			SrcY: c.V * float32(texH),
		}
	}
	return out
}

// FlipsVertically reports whether the quad maps the first buffer row to the
// bottom of the screen.
func (q Quad) FlipsVertically() bool {
	top, bottom := q[0], q[0]
	for _, c := range q[1:] {
		if c.Y > top.Y {
			top = c
		}
		if c.Y < bottom.Y {
			bottom = c
		}
	}
	return top.V > bottom.V
}

// FlipsHorizontally reports whether the quad maps the first buffer column to
// the right edge of the screen.
func (q Quad) FlipsHorizontally() bool {
	left, right := q[0], q[0]
	for _, c := range q[1:] {
		if c.X < left.X {
			left = c
		}
		if c.X > right.X {
			right = c
		}
	}
	return left.U > right.U
}

// AspectFit returns scale and offsets to fit a frame into a view with
// letterboxing.
func AspectFit(viewW, viewH, frameW, frameH float64) (scale, offsetX, offsetY float64) {
	if frameW <= 0 || frameH <= 0 {
		return 1, 0, 0
	}
	scale = math.Min(viewW/frameW, viewH/frameH)
	offsetX = (viewW - frameW*scale) / 2
	offsetY = (viewH - frameH*scale) / 2
	return
}

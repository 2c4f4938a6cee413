// Package decodertest provides a scripted decoder.Decoder for tests.
package decodertest

import (
	"sync"
	"time"

	"github.com/samber/mo"

	"github.com/junsooki/vitrine/internal/decoder"
)

// Step is one scripted pull result. A zero Step is a miss.
type Step struct {
	Frame  []byte
	Width  int
	Height int
	Err    error
}

// Frame returns a step carrying a solid RGB frame.
func Frame(width, height int, r, g, b byte) Step {
	pix := make([]byte, width*height*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i], pix[i+1], pix[i+2] = r, g, b
	}
	return Step{Frame: pix, Width: width, Height: height}
}

// EOS ends the stream.
func EOS() Step {
	return Step{Err: decoder.ErrEndOfStream}
}

// Decoder replays steps in order. Once they run out it keeps missing, and
// each miss waits for the pull timeout when Block is set.
type Decoder struct {
	Block    bool
	StartErr error

	mu       sync.Mutex
	steps    []Step
	pulls    int
	started  bool
	stopped  bool
	released bool
	live     int
}

func New(steps ...Step) *Decoder {
	return &Decoder{steps: steps}
}

// Opener returns an opener handing out d for any path.
func (d *Decoder) Opener() decoder.Opener {
	return func(string) (decoder.Decoder, error) {
		return d, nil
	}
}

func (d *Decoder) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.StartErr != nil {
		return d.StartErr
	}
	d.started = true
	return nil
}

func (d *Decoder) TryPullSample(timeout time.Duration) (mo.Option[*decoder.Sample], error) {
	d.mu.Lock()
	d.pulls++
	if len(d.steps) == 0 {
		block := d.Block
		d.mu.Unlock()
		if block {
			time.Sleep(timeout)
		}
		return mo.None[*decoder.Sample](), nil
	}
	step := d.steps[0]
	d.steps = d.steps[1:]
	if step.Frame != nil {
		d.live++
	}
	d.mu.Unlock()

	if step.Err != nil {
		return mo.None[*decoder.Sample](), step.Err
	}
	if step.Frame == nil {
		return mo.None[*decoder.Sample](), nil
	}
	return mo.Some(decoder.NewSample(step.Frame, step.Width, step.Height, func() {
		d.mu.Lock()
		d.live--
		d.mu.Unlock()
	})), nil
}

func (d *Decoder) Stop() error {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	return nil
}

func (d *Decoder) Release() {
	d.mu.Lock()
	d.released = true
	d.mu.Unlock()
}

// Pulls counts TryPullSample calls.
func (d *Decoder) Pulls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pulls
}

// Started reports whether Start succeeded.
func (d *Decoder) Started() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.started
}

// Closed reports whether both Stop and Release were called.
func (d *Decoder) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped && d.released
}

// Outstanding counts samples handed out and not yet released.
func (d *Decoder) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

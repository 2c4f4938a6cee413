// Package gstreamer decodes media files to RGB24 samples with a GStreamer
// graph:
//
//	filesrc → decodebin → videoconvert → capsfilter(RGB) → appsink
//
// decodebin exposes its pads once the container is typefound, so the video
// pad is linked from the pad-added signal.
package gstreamer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/junsooki/vitrine/internal/decoder"
	"github.com/junsooki/vitrine/internal/log"
)

const (
	rgbCaps        = "video/x-raw,format=RGB"
	prerollTimeout = 5 * time.Second
)

var initOnce sync.Once

// Decoder is a decode graph for one file.
type Decoder struct {
	pipeline *gst.Pipeline
	sink     *app.Sink
	convert  *gst.Element
	logger   *logrus.Entry

	// failed is set once the bus reported an error; later pulls end the
	// stream instead of polling a dead graph.
	failed bool
}

// Open builds the graph for path. The graph stays in the NULL state until
// Start.
func Open(path string) (decoder.Decoder, error) {
	initOnce.Do(func() { gst.Init(nil) })

	d := &Decoder{logger: log.For("gstreamer").WithField("file", path)}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create filesrc: %w", err)
	}
	filesrc.SetProperty("location", path)

	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create decodebin: %w", err)
	}

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(rgbCaps))

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	sink.SetProperty("sync", true)
	sink.SetProperty("emit-signals", false)

	if err := pipeline.AddMany(filesrc, decodebin, convert, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("failed to add elements: %w", err)
	}
	if err := filesrc.Link(decodebin); err != nil {
		return nil, fmt.Errorf("failed to link filesrc: %w", err)
	}
	if err := gst.ElementLinkMany(convert, capsfilter, sink.Element); err != nil {
		return nil, fmt.Errorf("failed to link converter chain: %w", err)
	}

	if _, err := decodebin.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		d.onPadAdded(srcPad)
	}); err != nil {
		return nil, fmt.Errorf("failed to connect pad-added: %w", err)
	}

	d.pipeline = pipeline
	d.sink = sink
	d.convert = convert
	return d, nil
}

// onPadAdded links the first pad videoconvert accepts. Audio pads fail to
// link and are left dangling.
func (d *Decoder) onPadAdded(srcPad *gst.Pad) {
	sinkPad := d.convert.GetStaticPad("sink")
	if sinkPad == nil {
		d.logger.Error("videoconvert has no sink pad")
		return
	}
	if sinkPad.IsLinked() {
		return
	}
	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		d.logger.WithField("pad", srcPad.GetName()).Debugf("pad not linked: %v", ret)
		return
	}
	d.logger.WithField("pad", srcPad.GetName()).Debug("video pad linked")
}

// Start moves the graph to PLAYING and waits for it to preroll, so a file
// decodebin cannot handle fails here instead of on the first pull.
func (d *Decoder) Start() error {
	if err := d.pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	return d.waitPreroll(prerollTimeout)
}

// waitPreroll pops bus messages until the state change completes, the
// stream ends or an error is posted. A timeout is not fatal; slow sources
// keep prerolling while the pump polls.
func (d *Decoder) waitPreroll(timeout time.Duration) error {
	bus := d.pipeline.GetPipelineBus()
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			d.logger.WithField("timeout", timeout).Warn("pipeline still prerolling")
			return nil
		}
		msg := bus.TimedPop(left)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageAsyncDone, gst.MessageEOS:
			return nil
		case gst.MessageError:
			gerr := msg.ParseError()
			d.failed = true
			d.logger.WithField("debug", gerr.DebugString()).Errorf("pipeline error: %s", gerr.Error())
			return fmt.Errorf("pipeline error: %s", gerr.Error())
		case gst.MessageWarning:
			d.logger.Warnf("pipeline warning: %s", msg.ParseWarning().Error())
		}
	}
}

// TryPullSample waits up to timeout for the next frame.
func (d *Decoder) TryPullSample(timeout time.Duration) (mo.Option[*decoder.Sample], error) {
	if err := d.drainBus(); err != nil {
		return mo.None[*decoder.Sample](), err
	}
	if d.failed {
		return mo.None[*decoder.Sample](), decoder.ErrEndOfStream
	}

	sample := d.sink.TryPullSample(timeout)
	if sample == nil {
		if d.sink.IsEOS() {
			return mo.None[*decoder.Sample](), decoder.ErrEndOfStream
		}
		return mo.None[*decoder.Sample](), nil
	}

	width, height, err := sampleSize(sample)
	if err != nil {
		return mo.None[*decoder.Sample](), err
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return mo.None[*decoder.Sample](), errors.New("sample without buffer")
	}
	mapInfo := buffer.Map(gst.MapRead)
	pix := mapInfo.Bytes()
	if len(pix) < width*height*3 {
		buffer.Unmap()
		return mo.None[*decoder.Sample](), fmt.Errorf("short buffer: %d bytes for %dx%d", len(pix), width, height)
	}

	return mo.Some(decoder.NewSample(pix[:width*height*3], width, height, func() {
		buffer.Unmap()
		runtime.KeepAlive(sample)
	})), nil
}

// drainBus reports the first pending error without blocking.
func (d *Decoder) drainBus() error {
	bus := d.pipeline.GetPipelineBus()
	for {
		msg := bus.TimedPop(0)
		if msg == nil {
			return nil
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			d.failed = true
			d.logger.WithField("debug", gerr.DebugString()).Errorf("pipeline error: %s", gerr.Error())
			return fmt.Errorf("pipeline error: %s", gerr.Error())
		case gst.MessageWarning:
			d.logger.Warnf("pipeline warning: %s", msg.ParseWarning().Error())
		}
	}
}

func sampleSize(sample *gst.Sample) (int, int, error) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, errors.New("sample without caps")
	}
	structure := caps.GetStructureAt(0)

	var width, height int
	if val, err := structure.GetValue("width"); err == nil {
		width, _ = val.(int)
	}
	if val, err := structure.GetValue("height"); err == nil {
		height, _ = val.(int)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("sample caps without size: %s", caps.String())
	}
	return width, height, nil
}

func (d *Decoder) Stop() error {
	if d.pipeline == nil {
		return nil
	}
	if err := d.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to stop pipeline: %w", err)
	}
	return nil
}

// Release drops the graph. It stops the pipeline first if Stop was skipped.
func (d *Decoder) Release() {
	if d.pipeline == nil {
		return
	}
	if err := d.pipeline.SetState(gst.StateNull); err != nil {
		d.logger.WithError(err).Warn("release: set state null")
	}
	d.pipeline = nil
	d.sink = nil
	d.convert = nil
}

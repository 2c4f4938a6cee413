package transport

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDataChannelTransport(t *testing.T) {
	Convey("DataChannelTransport without a channel", t, func() {
		tr := NewDataChannelTransport(nil)

		So(tr.Open(), ShouldBeFalse)
		So(errors.Is(tr.SendFrame([]byte{1}), ErrNotOpen), ShouldBeTrue)

		var _ FrameSender = tr
		var _ FrameReceiver = tr
	})
}

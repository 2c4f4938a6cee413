package mediainfo

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/junsooki/vitrine/internal/filesystem"
)

func TestProbe(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	Convey("Probe", t, func() {
		Convey("names untagged files after the file", func() {
			So(filesystem.API().WriteFile("/media/Opening Loop.mp4", []byte("not a real container"), 0o644), ShouldBeNil)

			info, err := Probe("/media/Opening Loop.mp4")
			So(err, ShouldBeNil)
			So(info.Tagged, ShouldBeFalse)
			So(info.Title, ShouldEqual, "Opening Loop")
			So(info.Format, ShouldEqual, "mp4")
			So(info.Label(), ShouldEqual, "Opening Loop")
		})

		Convey("handles files too short for a tag trailer", func() {
			for _, size := range []int{0, 40, 127} {
				So(filesystem.API().WriteFile("/media/short.mkv", make([]byte, size), 0o644), ShouldBeNil)

				info, err := Probe("/media/short.mkv")
				So(err, ShouldBeNil)
				So(info.Tagged, ShouldBeFalse)
				So(info.Title, ShouldEqual, "short")
				So(info.Format, ShouldEqual, "mkv")
			}
		})

		Convey("reads past untagged data of any length", func() {
			So(filesystem.API().WriteFile("/media/long.webm", make([]byte, 4096), 0o644), ShouldBeNil)

			info, err := Probe("/media/long.webm")
			So(err, ShouldBeNil)
			So(info.Tagged, ShouldBeFalse)
			So(info.Title, ShouldEqual, "long")
		})

		Convey("fails for a missing file", func() {
			_, err := Probe("/media/missing.mkv")
			So(err, ShouldNotBeNil)
		})

		Convey("labels with the artist when known", func() {
			So(Info{Title: "Intro", Artist: "House Band"}.Label(), ShouldEqual, "House Band - Intro")
		})
	})
}

package filesystem

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAPI(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("defaults to the OS filesystem", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("switches to an in-memory filesystem", func() {
			SetMemMapFs()
			defer SetOsFs()
			So(API().Name(), ShouldEqual, "MemMapFS")

			So(API().WriteFile("/a.txt", []byte("x"), 0o644), ShouldBeNil)
			ok, err := API().Exists("/a.txt")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})
	})
}

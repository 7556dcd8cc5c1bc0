package track

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRequest(t *testing.T) {
	Convey("Given a request", t, func() {
		req := Request{ID: "18", Title: "Al-Kahf", Provider: "Mishary Alafasy", Family: "alafasy"}

		Convey("It should validate", func() {
			So(req.Validate(), ShouldBeNil)
		})

		Convey("An empty id should be rejected", func() {
			req.ID = ""
			So(req.Validate(), ShouldEqual, ErrEmptyID)
		})

		Convey("An empty provider should be rejected", func() {
			req.Provider = ""
			So(req.Validate(), ShouldEqual, ErrEmptyProvider)
		})

		Convey("Track should project the identity", func() {
			tr := req.Track()
			So(tr.ID, ShouldEqual, "18")
			So(tr.Provider, ShouldEqual, "Mishary Alafasy")
			So(tr.String(), ShouldEqual, "Al-Kahf")
		})
	})

	Convey("A track without a title", t, func() {
		So(Track{ID: "2", Provider: "Husary"}.String(), ShouldEqual, "Husary #2")
	})
}

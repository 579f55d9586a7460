package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/skillmatch/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseGender(t *testing.T) {
	convey.Convey("Given gender strings", t, func() {
		convey.Convey("When they are known codes in any case", func() {
			g1, err1 := model.ParseGender("m")
			g2, err2 := model.ParseGender(" F ")
			g3, err3 := model.ParseGender("O")

			convey.Convey("Then they parse", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(err3, convey.ShouldBeNil)
				convey.So(g1, convey.ShouldEqual, model.GenderMale)
				convey.So(g2, convey.ShouldEqual, model.GenderFemale)
				convey.So(g3, convey.ShouldEqual, model.GenderOther)
			})
		})

		convey.Convey("When the code is unknown", func() {
			_, err := model.ParseGender("X")

			convey.Convey("Then parsing fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestParseSwipeStatus(t *testing.T) {
	convey.Convey("Given swipe status strings", t, func() {
		st, err := model.ParseSwipeStatus("Offered")
		convey.So(err, convey.ShouldBeNil)
		convey.So(st, convey.ShouldEqual, model.SwipeOffered)

		_, err = model.ParseSwipeStatus("liked")
		convey.So(errors.Is(err, model.ErrUnknownSwipeStatus), convey.ShouldBeTrue)
	})
}

func TestUserProfile(t *testing.T) {
	convey.Convey("Given a user", t, func() {
		bd := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
		u := model.User{ID: "u1", FirstName: "Ada", Birthdate: bd, Gender: model.GenderFemale, TZName: "Europe/London"}

		convey.Convey("Then its profile keeps the ranking attributes", func() {
			p := u.Profile()
			convey.So(p.UserID, convey.ShouldEqual, "u1")
			convey.So(p.Birthdate, convey.ShouldEqual, bd)
			convey.So(p.Gender, convey.ShouldEqual, model.GenderFemale)
			convey.So(p.TZName, convey.ShouldEqual, "Europe/London")
		})
	})
}

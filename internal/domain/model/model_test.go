package model_test

import (
	"encoding/json"
	"testing"

	clock "github.com/lapvn/timecard/internal/domain/clock"
	model "github.com/lapvn/timecard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDayRecordClone(t *testing.T) {
	Convey("Given a populated day record", t, func() {
		morning := clock.MustClock("07:29")
		afternoon := clock.MustClock("13:42")
		rec := model.DayRecord{
			EmployeeID: "e1",
			Date:       "2025-08-11",
			CheckIns:   []clock.ClockTime{morning, afternoon},
			Awards: []model.Award{
				{ShiftID: "morning", ShiftName: "Morning", CheckIn: morning, Points: 1},
			},
			TotalPoints: 1,
			Morning:     &morning,
			Afternoon:   &afternoon,
		}

		Convey("When cloning it", func() {
			clone := rec.Clone()

			Convey("Then the clone should be equal", func() {
				So(clone, ShouldResemble, rec)
			})

			Convey("Then mutating the clone should not touch the original", func() {
				clone.CheckIns[0] = clock.MustClock("23:59")
				clone.Awards[0].Points = 99
				*clone.Morning = clock.MustClock("00:01")

				So(rec.CheckIns[0].String(), ShouldEqual, "07:29")
				So(rec.Awards[0].Points, ShouldEqual, 1)
				So(rec.Morning.String(), ShouldEqual, "07:29")
			})
		})

		Convey("When cloning an empty record", func() {
			empty := model.DayRecord{EmployeeID: "e1", Date: "2025-08-11"}
			clone := empty.Clone()

			Convey("Then nil slots should stay nil", func() {
				So(clone.Morning, ShouldBeNil)
				So(clone.Afternoon, ShouldBeNil)
				So(clone.TotalPoints, ShouldEqual, 0)
			})
		})
	})
}

func TestDayRecordJSON(t *testing.T) {
	Convey("Given a scored day record", t, func() {
		morning := clock.MustClock("07:29")
		rec := model.DayRecord{
			EmployeeID:  "e1",
			Date:        "2025-08-11",
			CheckIns:    []clock.ClockTime{morning},
			Awards:      []model.Award{{ShiftID: "morning", ShiftName: "Morning", CheckIn: morning, Points: 1}},
			TotalPoints: 1,
			Morning:     &morning,
		}

		Convey("When marshaling to JSON", func() {
			b, err := json.Marshal(rec)

			Convey("Then clock times should read as HH:MM strings", func() {
				So(err, ShouldBeNil)
				s := string(b)
				So(s, ShouldContainSubstring, `"check_ins":["07:29"]`)
				So(s, ShouldContainSubstring, `"morning_check_in":"07:29"`)
				So(s, ShouldContainSubstring, `"total_points":1`)
			})

			Convey("Then empty slots should be omitted", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldNotContainSubstring, "afternoon_check_in")
			})
		})
	})
}

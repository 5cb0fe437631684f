package config_test

import (
	"testing"
	"time"

	config "github.com/lapvn/timecard/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := config.New()

		Convey("Then service defaults should be sane", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.Timezone, ShouldEqual, "Asia/Ho_Chi_Minh")
			So(cfg.QueueSize, ShouldEqual, 100_000)
			So(cfg.Store, ShouldEqual, "memory")
			So(cfg.DefaultStrategy, ShouldEqual, "replace")
			So(cfg.MaxBatchErrors, ShouldEqual, 50)
		})

		Convey("Then the default week should be Monday to Friday, two shifts", func() {
			So(cfg.Shifts, ShouldHaveLength, 5)
			So(cfg.Shifts["monday"], ShouldHaveLength, 2)
			So(cfg.Shifts, ShouldNotContainKey, "saturday")
			So(cfg.Shifts, ShouldNotContainKey, "sunday")
		})
	})
}

func TestWeekSchedule(t *testing.T) {
	Convey("Given a configured shift table", t, func() {
		Convey("When building the default schedule", func() {
			week, err := config.New().WeekSchedule()

			Convey("Then weekdays should carry ordered validated shifts", func() {
				So(err, ShouldBeNil)
				shifts := week.ShiftsFor(time.Wednesday)
				So(shifts, ShouldHaveLength, 2)
				So(shifts[0].ID, ShouldEqual, "morning")
				So(shifts[0].Start.String(), ShouldEqual, "07:00")
				So(shifts[0].End.String(), ShouldEqual, "11:30")
				So(shifts[1].ID, ShouldEqual, "afternoon")
				So(week.ShiftsFor(time.Saturday), ShouldBeEmpty)
			})
		})

		Convey("When a weekday name is unknown", func() {
			cfg := config.New()
			cfg.Shifts["moonday"] = cfg.Shifts["monday"]
			_, err := cfg.WeekSchedule()

			Convey("Then schedule construction should fail", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "moonday")
			})
		})

		Convey("When a shift window is malformed", func() {
			cfg := config.New()
			cfg.Shifts["monday"] = []config.ShiftConfig{
				{ID: "m", Name: "Morning", Start: "25:00", End: "11:30", Points: 1},
			}
			_, err := cfg.WeekSchedule()

			Convey("Then schedule construction should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a shift starts after it ends", func() {
			cfg := config.New()
			cfg.Shifts["monday"] = []config.ShiftConfig{
				{ID: "m", Name: "Morning", Start: "12:00", End: "11:30", Points: 1},
			}
			_, err := cfg.WeekSchedule()

			Convey("Then schedule construction should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When weekday names vary in case and spacing", func() {
			cfg := config.New()
			shifts := cfg.Shifts["monday"]
			delete(cfg.Shifts, "monday")
			cfg.Shifts[" Monday "] = shifts

			week, err := cfg.WeekSchedule()

			Convey("Then the name should still resolve", func() {
				So(err, ShouldBeNil)
				So(week.ShiftsFor(time.Monday), ShouldHaveLength, 2)
			})
		})
	})
}

package merge_test

import (
	"testing"
	"time"

	clock "github.com/lapvn/timecard/internal/domain/clock"
	merge "github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
	schedule "github.com/lapvn/timecard/internal/domain/schedule"
	scoring "github.com/lapvn/timecard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseStrategy(t *testing.T) {
	Convey("Given strategy strings", t, func() {
		Convey("When parsing the known strategies", func() {
			cases := map[string]merge.Strategy{
				"replace": merge.StrategyReplace,
				"merge":   merge.StrategyMerge,
				"skip":    merge.StrategySkip,
			}

			Convey("Then each should parse to itself", func() {
				for in, want := range cases {
					got, err := merge.ParseStrategy(in)
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				}
			})
		})

		Convey("When parsing the empty string", func() {
			got, err := merge.ParseStrategy("")

			Convey("Then it should default to replace", func() {
				So(err, ShouldBeNil)
				So(got, ShouldEqual, merge.StrategyReplace)
			})
		})

		Convey("When parsing an unknown strategy", func() {
			_, err := merge.ParseStrategy("upsert")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestShouldPersist(t *testing.T) {
	Convey("Given an existing record and each strategy", t, func() {
		existing := &model.DayRecord{EmployeeID: "e1", Date: "2025-08-11"}

		Convey("Then only skip over an existing record avoids the write", func() {
			So(merge.ShouldPersist(existing, merge.StrategyReplace), ShouldBeTrue)
			So(merge.ShouldPersist(existing, merge.StrategyMerge), ShouldBeTrue)
			So(merge.ShouldPersist(existing, merge.StrategySkip), ShouldBeFalse)
		})

		Convey("Then every strategy writes when nothing exists yet", func() {
			So(merge.ShouldPersist(nil, merge.StrategyReplace), ShouldBeTrue)
			So(merge.ShouldPersist(nil, merge.StrategyMerge), ShouldBeTrue)
			So(merge.ShouldPersist(nil, merge.StrategySkip), ShouldBeTrue)
		})
	})
}

func TestMerge(t *testing.T) {
	week, err := schedule.NewWeek(map[time.Weekday][]schedule.Shift{
		time.Monday: {
			{ID: "morning", Name: "Morning", Start: clock.MustClock("07:00"), End: clock.MustClock("11:30"), Points: 1},
			{ID: "afternoon", Name: "Afternoon", Start: clock.MustClock("13:00"), End: clock.MustClock("17:30"), Points: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	norm, err := clock.NewNormalizer(clock.DefaultZone)
	if err != nil {
		t.Fatal(err)
	}
	scorer := scoring.New(week)

	score := func(checkIns ...string) model.DayRecord {
		in := make([]clock.ClockTime, len(checkIns))
		for i, s := range checkIns {
			in[i] = clock.MustClock(s)
		}
		return scorer.ScoreDay("e1", "2025-08-11", time.Monday, in)
	}

	Convey("Given a merger over the Monday schedule", t, func() {
		merger := merge.New(scorer, norm)

		Convey("When no record exists yet", func() {
			incoming := score("07:29")

			Convey("Then every strategy creates the incoming record", func() {
				for _, strategy := range []merge.Strategy{merge.StrategyReplace, merge.StrategyMerge, merge.StrategySkip} {
					got, err := merger.Merge(nil, incoming, strategy)
					So(err, ShouldBeNil)
					So(got, ShouldResemble, incoming)
				}
			})
		})

		Convey("When a record exists", func() {
			existing := score("07:29")

			Convey("And the strategy is replace", func() {
				incoming := score("13:42")
				got, err := merger.Merge(&existing, incoming, merge.StrategyReplace)

				Convey("Then the incoming record supersedes", func() {
					So(err, ShouldBeNil)
					So(got, ShouldResemble, incoming)
					So(got.TotalPoints, ShouldEqual, 1)
				})
			})

			Convey("And the strategy is skip", func() {
				incoming := score("13:42")
				got, err := merger.Merge(&existing, incoming, merge.StrategySkip)

				Convey("Then the existing record survives unchanged", func() {
					So(err, ShouldBeNil)
					So(got, ShouldResemble, existing)
				})
			})

			Convey("And the strategy is merge", func() {
				incoming := score("07:31", "13:42")
				got, err := merger.Merge(&existing, incoming, merge.StrategyMerge)

				Convey("Then check-ins union and the union is rescored", func() {
					So(err, ShouldBeNil)
					So(got.CheckIns, ShouldHaveLength, 3)
					So(got.CheckIns[0].String(), ShouldEqual, "07:29")
					// One award per shift even though two punches fall
					// inside the morning window. Totals never add.
					So(got.Awards, ShouldHaveLength, 2)
					So(got.Awards[0].CheckIn.String(), ShouldEqual, "07:29")
					So(got.TotalPoints, ShouldEqual, 2)
				})

				Convey("Then merging again with the same incoming is a no-op", func() {
					So(err, ShouldBeNil)
					again, err := merger.Merge(&got, incoming, merge.StrategyMerge)
					So(err, ShouldBeNil)
					So(again, ShouldResemble, got)
				})
			})

			Convey("And the strategy is unknown", func() {
				_, err := merger.Merge(&existing, score("13:42"), merge.Strategy("upsert"))

				Convey("Then merging should fail", func() {
					So(err, ShouldNotBeNil)
				})
			})

			Convey("And the incoming record carries an invalid date under merge", func() {
				incoming := score("13:42")
				incoming.Date = "bogus"
				_, err := merger.Merge(&existing, incoming, merge.StrategyMerge)

				Convey("Then merging should fail", func() {
					So(err, ShouldNotBeNil)
				})
			})
		})
	})
}

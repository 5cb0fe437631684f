package repository_test

import (
	"context"
	"errors"
	"testing"

	repository "github.com/lapvn/timecard/internal/adapters/repository"
	clock "github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(employeeID, day string, checkIns ...string) model.DayRecord {
	rec := model.DayRecord{
		EmployeeID: employeeID,
		Date:       clock.CivilDay(day),
	}
	for _, c := range checkIns {
		rec.CheckIns = append(rec.CheckIns, clock.MustClock(c))
	}
	if len(rec.CheckIns) > 0 {
		rec.Awards = []model.Award{{
			ShiftID:   "morning",
			ShiftName: "Morning",
			CheckIn:   rec.CheckIns[0],
			Points:    1,
		}}
		rec.TotalPoints = 1
	}
	return rec
}

func TestMemStore(t *testing.T) {
	Convey("Given an in-memory record store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		defer store.Close()

		Convey("When fetching a missing record", func() {
			_, err := store.Get(ctx, "e1", "2025-08-11")

			Convey("Then it should report not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When upserting a record", func() {
			rec := record("e1", "2025-08-11", "07:29", "13:42")
			So(store.Upsert(ctx, rec), ShouldBeNil)

			Convey("Then it should round-trip by key", func() {
				got, err := store.Get(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(got, ShouldResemble, rec)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then upserting the same key should overwrite, not duplicate", func() {
				updated := record("e1", "2025-08-11", "07:29")
				So(store.Upsert(ctx, updated), ShouldBeNil)

				got, err := store.Get(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(got.CheckIns, ShouldHaveLength, 1)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then mutating the caller's copy should not leak into storage", func() {
				rec.CheckIns[0] = clock.MustClock("23:59")

				got, err := store.Get(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(got.CheckIns[0].String(), ShouldEqual, "07:29")
			})

			Convey("Then mutating a fetched copy should not corrupt storage", func() {
				first, err := store.Get(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				first.CheckIns[0] = clock.MustClock("00:00")

				second, err := store.Get(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(second.CheckIns[0].String(), ShouldEqual, "07:29")
			})
		})

		Convey("When listing a day across employees", func() {
			So(store.Upsert(ctx, record("e2", "2025-08-11", "08:00")), ShouldBeNil)
			So(store.Upsert(ctx, record("e1", "2025-08-11", "07:29")), ShouldBeNil)
			So(store.Upsert(ctx, record("e1", "2025-08-12", "07:29")), ShouldBeNil)

			recs, err := store.ListDay(ctx, "2025-08-11")

			Convey("Then only that day should return, sorted by employee", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].EmployeeID, ShouldEqual, "e1")
				So(recs[1].EmployeeID, ShouldEqual, "e2")
			})

			Convey("Then a day with no records should return empty", func() {
				empty, err := store.ListDay(ctx, "2000-01-01")
				So(err, ShouldBeNil)
				So(empty, ShouldBeEmpty)
			})
		})

		Convey("When listing an employee's day range", func() {
			So(store.Upsert(ctx, record("e1", "2025-08-11", "07:29")), ShouldBeNil)
			So(store.Upsert(ctx, record("e1", "2025-08-12", "07:30")), ShouldBeNil)
			So(store.Upsert(ctx, record("e1", "2025-08-20", "07:31")), ShouldBeNil)
			So(store.Upsert(ctx, record("e2", "2025-08-11", "08:00")), ShouldBeNil)

			recs, err := store.ListEmployee(ctx, "e1", "2025-08-11", "2025-08-15")

			Convey("Then the range should be inclusive and sorted by date", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(string(recs[0].Date), ShouldEqual, "2025-08-11")
				So(string(recs[1].Date), ShouldEqual, "2025-08-12")
			})

			Convey("Then an inverted range should be rejected", func() {
				_, err := store.ListEmployee(ctx, "e1", "2025-08-15", "2025-08-11")
				So(errors.Is(err, repository.ErrInvalidRange), ShouldBeTrue)
			})
		})

		Convey("When closing twice", func() {
			Convey("Then both closes should succeed", func() {
				So(store.Close(), ShouldBeNil)
				So(store.Close(), ShouldBeNil)
			})
		})
	})
}

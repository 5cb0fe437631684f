package service_test

import (
	"context"
	"os"
	"testing"
	"time"

	service "github.com/lapvn/timecard/internal/app"
	"github.com/lapvn/timecard/internal/config"
	"github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/internal/domain/schedule"
	"github.com/lapvn/timecard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func defaultWeek(t *testing.T) schedule.Week {
	t.Helper()
	week, err := config.New().WeekSchedule()
	if err != nil {
		t.Fatal(err)
	}
	return week
}

func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithSchedule(defaultWeek(t)),
		service.WithWorkerCount(2),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

// 2025-08-11 is a Monday; 00:29 UTC is 07:29 in UTC+7.
func deviceEvent(employeeID, ts string) model.DeviceEvent {
	return model.DeviceEvent{EmployeeID: employeeID, Timestamp: ts}
}

func TestSyncBatch(t *testing.T) {
	Convey("Given a started service with the default schedule", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When syncing a clean device batch", func() {
			summary := svc.SyncBatch(ctx, []model.DeviceEvent{
				deviceEvent("e1", "2025-08-11T00:29:00Z"),
				deviceEvent("e1", "2025-08-11T06:42:00Z"),
				deviceEvent("e2", "2025-08-11T00:31:00Z"),
			}, merge.StrategyReplace)

			Convey("Then each employee-day should be created once", func() {
				So(summary.BatchID, ShouldNotBeEmpty)
				So(summary.Created, ShouldEqual, 2)
				So(summary.Updated, ShouldEqual, 0)
				So(summary.Failed, ShouldEqual, 0)
			})

			Convey("Then the scored records should be queryable", func() {
				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 2)
				So(rec.Awards, ShouldHaveLength, 2)
				So(rec.TotalPoints, ShouldEqual, 2)

				day, err := svc.RecordsForDay(ctx, "2025-08-11")
				So(err, ShouldBeNil)
				So(day, ShouldHaveLength, 2)
			})
		})

		Convey("When a batch mixes good and malformed events", func() {
			summary := svc.SyncBatch(ctx, []model.DeviceEvent{
				deviceEvent("e1", "2025-08-11T00:29:00Z"),
				deviceEvent("", "2025-08-11T00:30:00Z"),
				deviceEvent("e2", "late o'clock"),
			}, merge.StrategyReplace)

			Convey("Then bad events should fail individually, not abort the batch", func() {
				So(summary.Created, ShouldEqual, 1)
				So(summary.Failed, ShouldEqual, 2)
				So(summary.Errors, ShouldHaveLength, 2)

				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.TotalPoints, ShouldEqual, 1)
			})
		})

		Convey("When the same batch is synced twice with replace", func() {
			batch := []model.DeviceEvent{
				deviceEvent("e1", "2025-08-11T00:29:00Z"),
				deviceEvent("e1", "2025-08-11T06:42:00Z"),
			}
			first := svc.SyncBatch(ctx, batch, merge.StrategyReplace)
			second := svc.SyncBatch(ctx, batch, merge.StrategyReplace)

			Convey("Then the replay should update, never create or add points", func() {
				So(first.Created, ShouldEqual, 1)
				So(second.Created, ShouldEqual, 0)
				So(second.Updated, ShouldEqual, 1)

				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.TotalPoints, ShouldEqual, 2)
			})
		})

		Convey("When a second batch arrives under each strategy", func() {
			seed := []model.DeviceEvent{deviceEvent("e1", "2025-08-11T00:29:00Z")}
			incoming := []model.DeviceEvent{deviceEvent("e1", "2025-08-11T06:42:00Z")}

			Convey("And the strategy is skip", func() {
				svc.SyncBatch(ctx, seed, merge.StrategyReplace)
				summary := svc.SyncBatch(ctx, incoming, merge.StrategySkip)

				Convey("Then the existing record should survive untouched", func() {
					So(summary.Skipped, ShouldEqual, 1)
					So(summary.Updated, ShouldEqual, 0)

					rec, err := svc.Record(ctx, "e1", "2025-08-11")
					So(err, ShouldBeNil)
					So(rec.CheckIns, ShouldHaveLength, 1)
					So(rec.TotalPoints, ShouldEqual, 1)
				})
			})

			Convey("And the strategy is merge", func() {
				svc.SyncBatch(ctx, seed, merge.StrategyReplace)
				summary := svc.SyncBatch(ctx, incoming, merge.StrategyMerge)

				Convey("Then check-ins should union and rescore", func() {
					So(summary.Updated, ShouldEqual, 1)

					rec, err := svc.Record(ctx, "e1", "2025-08-11")
					So(err, ShouldBeNil)
					So(rec.CheckIns, ShouldHaveLength, 2)
					So(rec.TotalPoints, ShouldEqual, 2)
				})
			})

			Convey("And the strategy is replace", func() {
				svc.SyncBatch(ctx, seed, merge.StrategyReplace)
				summary := svc.SyncBatch(ctx, incoming, merge.StrategyReplace)

				Convey("Then the incoming batch should supersede", func() {
					So(summary.Updated, ShouldEqual, 1)

					rec, err := svc.Record(ctx, "e1", "2025-08-11")
					So(err, ShouldBeNil)
					So(rec.CheckIns, ShouldHaveLength, 1)
					So(rec.CheckIns[0].String(), ShouldEqual, "13:42")
					So(rec.TotalPoints, ShouldEqual, 1)
				})
			})
		})

		Convey("When no strategy is named", func() {
			summary := svc.SyncBatch(ctx, []model.DeviceEvent{
				deviceEvent("e1", "2025-08-11T00:29:00Z"),
			}, "")

			Convey("Then the configured default should apply", func() {
				So(summary.Created, ShouldEqual, 1)
				So(svc.DefaultStrategy(), ShouldEqual, merge.StrategyReplace)
			})
		})

		Convey("When an empty batch is synced", func() {
			summary := svc.SyncBatch(ctx, nil, merge.StrategyReplace)

			Convey("Then the summary should be all zeros", func() {
				So(summary.Created, ShouldEqual, 0)
				So(summary.Updated, ShouldEqual, 0)
				So(summary.Skipped, ShouldEqual, 0)
				So(summary.Failed, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a service with a tight batch error bound", t, func() {
		svc := startService(t, service.WithMaxBatchErrors(2))
		ctx := context.Background()

		Convey("When a batch fails more times than the bound", func() {
			summary := svc.SyncBatch(ctx, []model.DeviceEvent{
				deviceEvent("e1", "bad-1"),
				deviceEvent("e2", "bad-2"),
				deviceEvent("e3", "bad-3"),
				deviceEvent("e4", "bad-4"),
			}, merge.StrategyReplace)

			Convey("Then the count should be exact and the detail list bounded", func() {
				So(summary.Failed, ShouldEqual, 4)
				So(summary.Errors, ShouldHaveLength, 2)
			})
		})
	})
}

func TestImportRows(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When importing clean rows", func() {
			summary := svc.ImportRows(ctx, []model.ImportRow{
				{EmployeeID: "e1", Date: "2025-08-11", Times: []string{"07:29", "13:42:10"}},
				{EmployeeID: "e2", Date: "2025-08-11", Times: []string{"07:31"}},
			}, merge.StrategyReplace)

			Convey("Then rows should score like device punches", func() {
				So(summary.Created, ShouldEqual, 2)
				So(summary.Failed, ShouldEqual, 0)

				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 2)
				So(rec.CheckIns[1].String(), ShouldEqual, "13:42")
				So(rec.TotalPoints, ShouldEqual, 2)
			})
		})

		Convey("When two rows name the same employee-day", func() {
			summary := svc.ImportRows(ctx, []model.ImportRow{
				{EmployeeID: "e1", Date: "2025-08-11", Times: []string{"07:29"}},
				{EmployeeID: "e1", Date: "2025-08-11", Times: []string{"13:42", "07:29"}},
			}, merge.StrategyReplace)

			Convey("Then the rows should combine into one record", func() {
				So(summary.Created, ShouldEqual, 1)

				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 2)
				So(rec.TotalPoints, ShouldEqual, 2)
			})
		})

		Convey("When rows are malformed", func() {
			summary := svc.ImportRows(ctx, []model.ImportRow{
				{EmployeeID: "", Date: "2025-08-11", Times: []string{"07:29"}},
				{EmployeeID: "e1", Date: "11/08/2025", Times: []string{"07:29"}},
				{EmployeeID: "e2", Date: "2025-08-11", Times: []string{"7 o'clock"}},
				{EmployeeID: "e3", Date: "2025-08-11", Times: []string{"07:29"}},
			}, merge.StrategyReplace)

			Convey("Then only the valid row should land", func() {
				So(summary.Created, ShouldEqual, 1)
				So(summary.Failed, ShouldEqual, 3)

				_, err := svc.Record(ctx, "e2", "2025-08-11")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a row has no times at all", func() {
			summary := svc.ImportRows(ctx, []model.ImportRow{
				{EmployeeID: "e1", Date: "2025-08-10", Times: nil},
			}, merge.StrategyReplace)

			Convey("Then an empty zero-point record should be created", func() {
				So(summary.Created, ShouldEqual, 1)

				rec, err := svc.Record(ctx, "e1", "2025-08-10")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldBeEmpty)
				So(rec.TotalPoints, ShouldEqual, 0)
			})
		})
	})
}

func TestSyncEvent(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		punch := func(ts string) model.RawEvent {
			parsed, err := time.Parse(time.RFC3339, ts)
			So(err, ShouldBeNil)
			return model.RawEvent{EmployeeID: "e1", Timestamp: parsed}
		}

		Convey("When punches arrive one at a time", func() {
			So(svc.SyncEvent(ctx, punch("2025-08-11T00:29:00Z")), ShouldBeNil)
			So(svc.SyncEvent(ctx, punch("2025-08-11T06:42:00Z")), ShouldBeNil)

			Convey("Then the record should accumulate incrementally", func() {
				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 2)
				So(rec.TotalPoints, ShouldEqual, 2)
			})
		})

		Convey("When the same punch is delivered twice", func() {
			So(svc.SyncEvent(ctx, punch("2025-08-11T00:29:00Z")), ShouldBeNil)
			So(svc.SyncEvent(ctx, punch("2025-08-11T00:29:00Z")), ShouldBeNil)

			Convey("Then the redelivery should change nothing", func() {
				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 1)
				So(rec.TotalPoints, ShouldEqual, 1)
			})
		})

		Convey("When a punch lands after an existing synced batch", func() {
			svc.SyncBatch(ctx, []model.DeviceEvent{
				deviceEvent("e1", "2025-08-11T00:29:00Z"),
			}, merge.StrategyReplace)
			So(svc.SyncEvent(ctx, punch("2025-08-11T06:42:00Z")), ShouldBeNil)

			Convey("Then it should merge into the existing record", func() {
				rec, err := svc.Record(ctx, "e1", "2025-08-11")
				So(err, ShouldBeNil)
				So(rec.CheckIns, ShouldHaveLength, 2)
				So(rec.TotalPoints, ShouldEqual, 2)
			})
		})
	})
}

func TestIngestPath(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When recording punch identities", func() {
			So(svc.SeenAndRecord(ctx, "e1@2025-08-11T00:29:00Z"), ShouldBeFalse)

			Convey("Then a re-delivery should be flagged", func() {
				So(svc.SeenAndRecord(ctx, "e1@2025-08-11T00:29:00Z"), ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})

			Convey("Then unrecording should allow a retry", func() {
				svc.Unrecord(ctx, "e1@2025-08-11T00:29:00Z")
				So(svc.SeenAndRecord(ctx, "e1@2025-08-11T00:29:00Z"), ShouldBeFalse)
			})
		})

		Convey("When a punch is enqueued", func() {
			ts, _ := time.Parse(time.RFC3339, "2025-08-11T00:29:00Z")
			ok := svc.Enqueue(ctx, model.RawEvent{EmployeeID: "e1", Timestamp: ts})

			Convey("Then the workers should eventually persist its record", func() {
				So(ok, ShouldBeTrue)

				var found bool
				for i := 0; i < 100; i++ {
					if _, err := svc.Record(ctx, "e1", "2025-08-11"); err == nil {
						found = true
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestRecordQueries(t *testing.T) {
	Convey("Given a service with a synced week of records", t, func() {
		svc := startService(t)
		ctx := context.Background()

		svc.SyncBatch(ctx, []model.DeviceEvent{
			deviceEvent("e1", "2025-08-11T00:29:00Z"),
			deviceEvent("e1", "2025-08-12T00:29:00Z"),
			deviceEvent("e1", "2025-08-13T00:29:00Z"),
			deviceEvent("e2", "2025-08-11T00:31:00Z"),
		}, merge.StrategyReplace)

		Convey("When querying a day range for one employee", func() {
			recs, err := svc.RecordsForEmployee(ctx, "e1", "2025-08-11", "2025-08-12")

			Convey("Then the inclusive range should return in date order", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(string(recs[0].Date), ShouldEqual, "2025-08-11")
				So(string(recs[1].Date), ShouldEqual, "2025-08-12")
			})
		})

		Convey("When query inputs are malformed", func() {
			Convey("Then bad dates should be rejected", func() {
				_, err := svc.Record(ctx, "e1", "not-a-day")
				So(err, ShouldNotBeNil)

				_, err = svc.RecordsForDay(ctx, "not-a-day")
				So(err, ShouldNotBeNil)

				_, err = svc.RecordsForEmployee(ctx, "e1", "bad", "2025-08-12")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When asking for service stats", func() {
			stats := svc.GetStats()

			Convey("Then operational fields should be present", func() {
				So(stats["started"], ShouldEqual, true)
				So(stats["store"], ShouldEqual, "memory")
				So(stats, ShouldContainKey, "totalRecords")
				So(stats["totalRecords"], ShouldEqual, 4)
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service", t, func() {
		week := defaultWeek(t)

		Convey("When starting twice", func() {
			svc := service.New(service.WithSchedule(week), service.WithWorkerCount(1))
			So(svc.Start(context.Background()), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the second start should be a no-op", func() {
				So(svc.Start(context.Background()), ShouldBeNil)
			})
		})

		Convey("When configured with an unknown store", func() {
			svc := service.New(service.WithSchedule(week), service.WithStore("postgres", ""))

			Convey("Then start should fail", func() {
				So(svc.Start(context.Background()), ShouldNotBeNil)
			})
		})

		Convey("When configured with an unknown timezone", func() {
			svc := service.New(service.WithSchedule(week), service.WithTimezone("Mars/Olympus_Mons"))

			Convey("Then start should fail", func() {
				So(svc.Start(context.Background()), ShouldNotBeNil)
			})
		})

		Convey("When stopping before starting", func() {
			svc := service.New(service.WithSchedule(week))

			Convey("Then stop should be safe", func() {
				So(svc.Stop, ShouldNotPanic)
			})
		})
	})
}

package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/skillmatch/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording enrichment records", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the record is new", func() {
				seen := d.SeenAndRecord(ctx, "record-1")

				Convey("Then it should return false and record it", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the record was already seen", func() {
				d.SeenAndRecord(ctx, "record-1")
				seen := d.SeenAndRecord(ctx, "record-1")

				Convey("Then it should return true", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "record-1")
			d.SeenAndRecord(ctx, "record-2")

			Convey("And the record exists", func() {
				d.Unrecord(ctx, "record-1")

				Convey("Then it can be recorded again", func() {
					So(d.Size(), ShouldEqual, 1)
					So(d.SeenAndRecord(ctx, "record-1"), ShouldBeFalse)
					So(d.SeenAndRecord(ctx, "record-2"), ShouldBeTrue)
				})
			})

			Convey("And the record doesn't exist", func() {
				d.Unrecord(ctx, "record-9")

				Convey("Then the size is unchanged", func() {
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, id := range []string{"record-1", "record-2", "record-3"} {
				So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
			}

			Convey("And one more record arrives", func() {
				So(d.SeenAndRecord(ctx, "record-4"), ShouldBeFalse)

				Convey("Then the oldest is evicted first", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "record-4"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "record-3"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "record-2"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "record-1"), ShouldBeFalse)
					So(d.Size(), ShouldEqual, 3)
				})
			})

			Convey("And a middle record is unrecorded", func() {
				d.Unrecord(ctx, "record-2")
				So(d.SeenAndRecord(ctx, "record-4"), ShouldBeFalse)

				Convey("Then nothing else is evicted", func() {
					So(d.Size(), ShouldEqual, 3)
					So(d.SeenAndRecord(ctx, "record-1"), ShouldBeTrue)
					So(d.SeenAndRecord(ctx, "record-3"), ShouldBeTrue)
				})
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("record-%d", i)), ShouldBeFalse)
			}

			Convey("Then every record is kept", func() {
				So(d.Size(), ShouldEqual, n)
				for i := 0; i < n; i++ {
					So(d.SeenAndRecord(ctx, fmt.Sprintf("record-%d", i)), ShouldBeTrue)
				}
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When goroutines race on the same ids", func() {
			var (
				wg    sync.WaitGroup
				mu    sync.Mutex
				fresh int
			)
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						if !d.SeenAndRecord(context.Background(), fmt.Sprintf("record-%d", j)) {
							mu.Lock()
							fresh++
							mu.Unlock()
						}
					}
				}()
			}
			wg.Wait()

			Convey("Then each id is recorded exactly once", func() {
				So(fresh, ShouldEqual, perGoroutine)
				So(d.Size(), ShouldEqual, perGoroutine)
			})
		})
	})
}

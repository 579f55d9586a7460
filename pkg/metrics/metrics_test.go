package metrics

import (
	"bytes"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithLatencyBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.matchRequests.WithLabelValues("ok").Inc()

			Convey("Then its collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_match_requests_total")
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithLatencyBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "skillmatch")
				So(m.subsystem, ShouldEqual, "matching")
				So(len(m.latencyBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording match outcomes", func() {
			before := testutil.ToFloat64(globalManager.matchRequests.WithLabelValues("empty"))
			RecordMatchRequest("empty")
			RecordMatchRequest("empty")

			Convey("Then the labelled counter grows", func() {
				So(testutil.ToFloat64(globalManager.matchRequests.WithLabelValues("empty")), ShouldEqual, before+2)
			})
		})

		Convey("When recording degraded fetches and swipes", func() {
			beforeFetch := testutil.ToFloat64(globalManager.degradedFetches.WithLabelValues("embedding"))
			beforeSwipe := testutil.ToFloat64(globalManager.swipesRecorded.WithLabelValues("offered"))
			RecordDegradedFetch("embedding")
			RecordSwipe("offered")

			Convey("Then both counters move", func() {
				So(testutil.ToFloat64(globalManager.degradedFetches.WithLabelValues("embedding")), ShouldEqual, beforeFetch+1)
				So(testutil.ToFloat64(globalManager.swipesRecorded.WithLabelValues("offered")), ShouldEqual, beforeSwipe+1)
			})
		})

		Convey("When setting queue gauges", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(4)
			UpdateQueueUtilization(0.4)
			UpdateWorkerCount(3)

			Convey("Then the gauges hold the values", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.4)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 3)
			})
		})

		Convey("When observing histograms", func() {
			So(func() {
				RecordMatchLatency(12)
				RecordRerankLatency(3)
				RecordSearchPoolSize(100)
				RecordFinalScore(0.42)
				RecordWorkerLatency(1)
			}, ShouldNotPanic)
		})
	})
}

func TestWriteText(t *testing.T) {
	Convey("Given recorded metrics", t, func() {
		RecordUserCreated()
		RecordEnrichmentPublished("queued")

		Convey("When exporting as text", func() {
			var buf bytes.Buffer
			err := WriteText(&buf)

			Convey("Then the exposition contains the families", func() {
				So(err, ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "skillmatch_matching_users_created_total")
				So(buf.String(), ShouldContainSubstring, `result="queued"`)
			})
		})
	})
}

func TestRecordersConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.workerProcessed)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordWorkerProcessed()
				RecordQueueEnqueue()
				RecordQueueDequeue()
			}()
		}
		wg.Wait()

		So(testutil.ToFloat64(globalManager.workerProcessed), ShouldEqual, before+50)
		So(GetRegistry(), ShouldNotBeNil)
	})
}

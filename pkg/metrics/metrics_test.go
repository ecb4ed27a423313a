package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with defaults", func() {
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the jettag namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "jettag")
				So(manager.subsystem, ShouldEqual, "tagger")
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
			})

			Convey("Then its metrics are registered on that registry", func() {
				manager.eventsProcessed.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "jettag_tagger_events_processed_total")
			})
		})

		Convey("When creating a manager with custom options", func() {
			manager := NewManager(
				WithNamespace("cms"),
				WithSubsystem("boosted"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithMicrojetBuckets([]float64{1, 5, 10, 20}),
				WithConstLabels(map[string]string{"dataset": "ttbar"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "cms")
				So(manager.subsystem, ShouldEqual, "boosted")
				So(manager.latencyBuckets, ShouldResemble, []float64{1, 10, 100})
				So(manager.microjetBuckets, ShouldResemble, []float64{1, 5, 10, 20})
			})

			Convey("Then constant labels appear on exported metrics", func() {
				manager.microjetTruncated.Inc()
				expected := `
# HELP cms_boosted_microjets_truncated_total Total number of jets whose microjet list was capped
# TYPE cms_boosted_microjets_truncated_total counter
cms_boosted_microjets_truncated_total{dataset="ttbar"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "cms_boosted_microjets_truncated_total")
				So(err, ShouldBeNil)
			})
		})

		Convey("When options carry empty or unordered values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithLatencyBuckets(nil),
				WithMicrojetBuckets([]float64{5, 1}),
				WithConstituentBuckets([]float64{2, 2}),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "jettag")
				So(manager.subsystem, ShouldEqual, "tagger")
				So(manager.latencyBuckets, ShouldResemble, defaultLatencyBuckets)
				So(manager.microjetBuckets, ShouldResemble, microjetBuckets)
				So(manager.constituentBuckets, ShouldResemble, constituentBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestTaggingMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording jet outcomes", func() {
			before := testutil.ToFloat64(globalManager.jetsScored.WithLabelValues("oracle_failure"))
			RecordJetScored("oracle_failure")
			RecordJetScored("oracle_failure")

			Convey("Then the counter for that status grows", func() {
				after := testutil.ToFloat64(globalManager.jetsScored.WithLabelValues("oracle_failure"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording event outcomes", func() {
			processed := testutil.ToFloat64(globalManager.eventsProcessed)
			failed := testutil.ToFloat64(globalManager.eventsFailed.WithLabelValues("missing_collection"))
			RecordEventProcessed()
			RecordEventFailed("missing_collection")

			Convey("Then both counters move", func() {
				So(testutil.ToFloat64(globalManager.eventsProcessed)-processed, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.eventsFailed.WithLabelValues("missing_collection"))-failed, ShouldEqual, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateResultsStored(42)
			UpdateQueueSize(3)
			UpdateQueueCapacity(12)
			UpdateQueueUtilization(0.25)
			UpdateWorkerCount(4)
			UpdateWorkerActiveCount(2)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.resultsStored), ShouldEqual, 42)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 12)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.25)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 2)
			})
		})

		Convey("When observing histograms", func() {
			Convey("Then no recorder panics", func() {
				So(func() {
					RecordEventLatency(12.5)
					RecordEventDuplicate()
					RecordOracleLatency(3.2)
					RecordMicrojetCount(7)
					RecordMicrojetTruncation()
					RecordConstituentCount(64)
					RecordResultEvicted()
					RecordResultLookup("hit")
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueEnqueueError()
					RecordQueueWaitLatency(0.4)
					RecordWorkerProcessingLatency(15)
					RecordWorkerError()
					RecordHTTPRequest("/events", "POST", "202")
					RecordHTTPRequestDuration("/events", "POST", "202", 1.5)
					RecordErrorByComponent("oracle", "timeout")
					RecordErrorByType("timeout", "warn")
					RecordErrorByEndpoint("/events", "POST", "bad_request")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.1)
				}, ShouldNotPanic)
			})
		})

		Convey("Then GetRegistry exposes the package metrics", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
			count, err := testutil.GatherAndCount(GetRegistry(), "jettag_tagger_jets_scored_total")
			So(err, ShouldBeNil)
			So(count, ShouldBeGreaterThan, 0)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given many goroutines scoring jets", t, func() {
		const goroutines = 16
		const perGoroutine = 50
		before := testutil.ToFloat64(globalManager.jetsScored.WithLabelValues("ok"))

		var wg sync.WaitGroup
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range perGoroutine {
					RecordJetScored("ok")
					RecordOracleLatency(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then every increment is counted", func() {
			after := testutil.ToFloat64(globalManager.jetsScored.WithLabelValues("ok"))
			So(after-before, ShouldEqual, goroutines*perGoroutine)
		})
	})
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given a manager built with custom options", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test_ns"),
			WithSubsystem("test_sub"),
			WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
			WithMetricsEnabled(false),
			WithRefreshInterval(3*time.Second),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then the options are applied", func() {
			So(m.namespace, ShouldEqual, "test_ns")
			So(m.subsystem, ShouldEqual, "test_sub")
			So(m.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			So(m.Enabled(), ShouldBeFalse)
			So(m.RefreshInterval(), ShouldEqual, 3*time.Second)
		})

		Convey("And metrics are registered on the given registry", func() {
			m.tablesTotal.Set(2)
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "test_ns_test_sub_tables_total")
		})
	})

	Convey("Given zero-valued options", t, func() {
		m := NewManager(
			WithNamespace(""),
			WithSubsystem(""),
			WithHistogramBuckets(nil),
			WithRefreshInterval(0),
			WithPrometheusRegistry(prometheus.NewRegistry()),
		)

		Convey("Then defaults are kept", func() {
			So(m.namespace, ShouldEqual, "highscore")
			So(m.subsystem, ShouldEqual, "tables")
			So(m.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			So(m.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
		})
	})
}

func TestTableMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("metrics_t", ResultAccepted))
			RecordSubmission("metrics_t", ResultAccepted)
			RecordSubmission("metrics_t", ResultAccepted)

			Convey("Then the accepted counter grows", func() {
				after := testutil.ToFloat64(globalManager.submissions.WithLabelValues("metrics_t", ResultAccepted))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording a verification failure", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("metrics_v", ResultRejected))
			RecordVerificationFailure("metrics_v")

			Convey("Then both the failure and the rejected submission are counted", func() {
				So(testutil.ToFloat64(globalManager.verificationFailures.WithLabelValues("metrics_v")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("metrics_v", ResultRejected))-before, ShouldEqual, 1)
			})
		})

		Convey("When recording storage errors and gauges", func() {
			RecordStorageError("metrics_s")
			UpdateTableEntries("metrics_s", 7)
			UpdateTablesTotal(3)

			Convey("Then the values are visible", func() {
				So(testutil.ToFloat64(globalManager.storageErrors.WithLabelValues("metrics_s")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(globalManager.tableEntries.WithLabelValues("metrics_s")), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.tablesTotal), ShouldEqual, 3)
			})
		})

		Convey("When recording latencies", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordPersistLatency(1.5)
					RecordHTTPRequest("highscore", "GET", "200")
					RecordHTTPRequestDuration("highscore", "GET", "200", 2.0)
					RecordErrorByComponent("storage", "persist_failed")
					RecordErrorByType("server_error", "high")
					RecordErrorByEndpoint("save", "POST", "server_error")
					RecordErrorLatency("http", "server_error", 3.0)
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		registry := GetRegistry()

		Convey("Then it gathers the highscore metrics", func() {
			RecordSubmission("registry_t", ResultEvicted)
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() == "highscore_tables_submissions_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}

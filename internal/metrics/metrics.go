// Package metrics exposes the engine's Prometheus counters and gauges:
// deadline misses, HID write failures, active fault severity,
// soft-stop scale, plugin quarantine count, and PLL phase error. The
// same numbers back both a /metrics scrape and the ProcessSnapshot
// the snapshot API serves.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	deadlineMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ffbengine_deadline_misses_total",
		Help: "Total RT tick deadline misses since process start",
	})
	hidWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ffbengine_hid_write_failures_total",
		Help: "Total HID report write failures since process start",
	})
	activeFaultSeverity = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffbengine_active_fault_severity",
		Help: "Severity rank of the currently active fault, or 0 if none (1 most severe)",
	})
	softStopScale = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffbengine_soft_stop_scale",
		Help: "Current soft-stop torque scale in [0,1]; 1 means no soft-stop is active",
	})
	pluginQuarantineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffbengine_plugin_quarantine_count",
		Help: "Number of plugin nodes currently quarantined",
	})
	pllPhaseErrorNS = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffbengine_pll_phase_error_ns",
		Help: "Most recent scheduler PLL phase error, in nanoseconds",
	})
	tickDurationUS = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ffbengine_tick_duration_us",
		Help:    "Distribution of RT tick wall-clock durations, in microseconds",
		Buckets: []float64{100, 200, 400, 600, 800, 1000, 1200, 1500, 2000},
	})
)

func init() {
	prometheus.MustRegister(
		deadlineMissesTotal,
		hidWriteFailuresTotal,
		activeFaultSeverity,
		softStopScale,
		pluginQuarantineCount,
		pllPhaseErrorNS,
		tickDurationUS,
	)
}

// RecordDeadlineMiss increments the deadline-miss counter.
func RecordDeadlineMiss() { deadlineMissesTotal.Inc() }

// RecordHIDWriteFailure increments the HID write-failure counter.
func RecordHIDWriteFailure() { hidWriteFailuresTotal.Inc() }

// SetActiveFaultSeverity sets the active fault's severity rank, or 0
// when no fault is active.
func SetActiveFaultSeverity(severity int) { activeFaultSeverity.Set(float64(severity)) }

// SetSoftStopScale sets the current soft-stop torque scale.
func SetSoftStopScale(scale float32) { softStopScale.Set(float64(scale)) }

// SetPluginQuarantineCount sets the number of currently quarantined plugins.
func SetPluginQuarantineCount(n int) { pluginQuarantineCount.Set(float64(n)) }

// SetPLLPhaseErrorNS sets the scheduler PLL's most recent phase error.
func SetPLLPhaseErrorNS(ns float64) { pllPhaseErrorNS.Set(ns) }

// ObserveTickDuration records one tick's wall-clock duration.
func ObserveTickDuration(d time.Duration) {
	tickDurationUS.Observe(float64(d.Microseconds()))
}

// Handler returns the HTTP handler serving /metrics in Prometheus
// exposition format.
func Handler() http.Handler { return promhttp.Handler() }

// ServeAddr starts a dedicated HTTP server exposing only /metrics on
// addr, in a background goroutine. Used when the embedding host is
// not already multiplexing the snapshot API and /metrics on one port.
func ServeAddr(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDeadlineMissIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(deadlineMissesTotal)
	RecordDeadlineMiss()
	after := testutil.ToFloat64(deadlineMissesTotal)

	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got %v -> %v", before, after)
	}
}

func TestSetActiveFaultSeverityUpdatesGauge(t *testing.T) {
	SetActiveFaultSeverity(2)
	if got := testutil.ToFloat64(activeFaultSeverity); got != 2 {
		t.Fatalf("expected gauge value 2, got %v", got)
	}

	SetActiveFaultSeverity(0)
	if got := testutil.ToFloat64(activeFaultSeverity); got != 0 {
		t.Fatalf("expected gauge reset to 0, got %v", got)
	}
}

func TestSetSoftStopScaleUpdatesGauge(t *testing.T) {
	SetSoftStopScale(0.5)
	if got := testutil.ToFloat64(softStopScale); got != 0.5 {
		t.Fatalf("expected gauge value 0.5, got %v", got)
	}
}

func TestObserveTickDurationDoesNotPanic(t *testing.T) {
	ObserveTickDuration(250 * time.Microsecond)
}

func TestHandlerServesMetrics(t *testing.T) {
	if Handler() == nil {
		t.Fatalf("expected a non-nil metrics handler")
	}
}

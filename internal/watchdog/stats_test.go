package watchdog

import (
	"testing"
	"time"
)

func TestRecordSuccess(t *testing.T) {
	s := NewPluginStats()
	s.RecordSuccess(500)
	s.RecordSuccess(1500)

	if s.TotalExecutions != 2 {
		t.Fatalf("expected 2 executions, got %d", s.TotalExecutions)
	}
	if s.AverageExecutionTimeUS() != 1000 {
		t.Fatalf("expected average 1000, got %v", s.AverageExecutionTimeUS())
	}
	if s.ConsecutiveTimeouts != 0 {
		t.Fatalf("expected zero consecutive timeouts")
	}
}

func TestRecordTimeout(t *testing.T) {
	s := NewPluginStats()
	s.RecordSuccess(100)
	s.RecordTimeout(2000)
	s.RecordTimeout(2000)

	if s.TimeoutCount != 2 {
		t.Fatalf("expected 2 timeouts, got %d", s.TimeoutCount)
	}
	if s.ConsecutiveTimeouts != 2 {
		t.Fatalf("expected 2 consecutive timeouts, got %d", s.ConsecutiveTimeouts)
	}

	s.RecordSuccess(100)
	if s.ConsecutiveTimeouts != 0 {
		t.Fatalf("expected consecutive timeouts cleared after success")
	}
}

func TestAverageAndTimeoutRate(t *testing.T) {
	s := NewPluginStats()
	if s.AverageExecutionTimeUS() != 0 || s.TimeoutRate() != 0 {
		t.Fatalf("expected zero values with no executions")
	}

	s.RecordSuccess(1000)
	s.RecordTimeout(1000)
	s.RecordTimeout(1000)
	s.RecordSuccess(1000)

	if rate := s.TimeoutRate(); rate != 50 {
		t.Fatalf("expected 50%% timeout rate, got %v", rate)
	}
}

func TestQuarantine(t *testing.T) {
	s := NewPluginStats()
	if s.IsQuarantined() {
		t.Fatalf("should not be quarantined initially")
	}

	s.ApplyQuarantine(50 * time.Millisecond)
	if !s.IsQuarantined() {
		t.Fatalf("should be quarantined right after ApplyQuarantine")
	}
	if s.QuarantineCount != 1 {
		t.Fatalf("expected quarantine count 1, got %d", s.QuarantineCount)
	}
	remaining, ok := s.QuarantineRemaining()
	if !ok || remaining <= 0 {
		t.Fatalf("expected positive remaining quarantine, got %v ok=%v", remaining, ok)
	}

	s.ClearQuarantine()
	if s.IsQuarantined() {
		t.Fatalf("should not be quarantined after ClearQuarantine")
	}
}

func TestQuarantineExpiry(t *testing.T) {
	s := NewPluginStats()
	s.ApplyQuarantine(10 * time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	if s.IsQuarantined() {
		t.Fatalf("quarantine should have lapsed")
	}
	if !s.CheckQuarantineExpiry() {
		t.Fatalf("expected CheckQuarantineExpiry to report the transition")
	}
	if s.CheckQuarantineExpiry() {
		t.Fatalf("second call should be a no-op")
	}
}

func TestBackoffDurationDoublesAndCaps(t *testing.T) {
	s := NewPluginStats()
	if d := s.BackoffDuration(); d != quarantineBackoffBase {
		t.Fatalf("expected first backoff to equal base, got %v", d)
	}
	s.QuarantineCount = 1
	if d := s.BackoffDuration(); d != quarantineBackoffBase*2 {
		t.Fatalf("expected second backoff to be 2x base, got %v", d)
	}
	s.QuarantineCount = 20
	if d := s.BackoffDuration(); d != quarantineBackoffMax {
		t.Fatalf("expected backoff to cap at max, got %v", d)
	}
}

func TestReset(t *testing.T) {
	s := NewPluginStats()
	s.RecordSuccess(100)
	s.RecordTimeout(200)
	s.ApplyQuarantine(time.Second)

	s.Reset()
	if s.TotalExecutions != 0 || s.TimeoutCount != 0 || s.IsQuarantined() {
		t.Fatalf("expected fully zeroed stats after Reset")
	}
}

func TestPluginRegistryQuarantinesAfterThreshold(t *testing.T) {
	r := NewPluginRegistry()
	r.RecordTimeout("corner-cutting-detector", 5000, 3)
	r.RecordTimeout("corner-cutting-detector", 5000, 3)
	if r.IsQuarantined("corner-cutting-detector") {
		t.Fatalf("should not be quarantined below threshold")
	}
	r.RecordTimeout("corner-cutting-detector", 5000, 3)
	if !r.IsQuarantined("corner-cutting-detector") {
		t.Fatalf("expected quarantine once threshold is reached")
	}
}

func TestPluginRegistrySnapshotIsolated(t *testing.T) {
	r := NewPluginRegistry()
	r.RecordSuccess("telemetry-overlay", 100)

	snap := r.Snapshot()
	entry := snap["telemetry-overlay"]
	entry.TotalExecutions = 999

	if r.Snapshot()["telemetry-overlay"].TotalExecutions == 999 {
		t.Fatalf("snapshot mutation leaked into registry state")
	}
}

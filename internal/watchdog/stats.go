package watchdog

import (
	"sync"
	"time"
)

// PluginStats tracks execution metrics for one plugin: timing, timeout
// history, and quarantine status. Every method is allocation-free and
// safe to call from the RT thread's plugin-host boundary.
type PluginStats struct {
	TotalExecutions       uint64
	TotalExecutionTimeUS  uint64
	TimeoutCount          uint32
	ConsecutiveTimeouts   uint32
	LastExecutionTimeUS   uint64
	LastExecution         time.Time
	QuarantinedUntil      time.Time
	QuarantineCount       uint32
}

// NewPluginStats returns a zeroed PluginStats.
func NewPluginStats() *PluginStats { return &PluginStats{} }

// AverageExecutionTimeUS reports the mean execution time, or 0 if no
// executions have been recorded.
func (s *PluginStats) AverageExecutionTimeUS() float64 {
	if s.TotalExecutions == 0 {
		return 0
	}
	return float64(s.TotalExecutionTimeUS) / float64(s.TotalExecutions)
}

// TimeoutRate reports the percentage of executions that timed out.
func (s *PluginStats) TimeoutRate() float64 {
	if s.TotalExecutions == 0 {
		return 0
	}
	return (float64(s.TimeoutCount) / float64(s.TotalExecutions)) * 100
}

// IsQuarantined reports whether the plugin is currently under quarantine.
func (s *PluginStats) IsQuarantined() bool {
	return !s.QuarantinedUntil.IsZero() && time.Now().Before(s.QuarantinedUntil)
}

// QuarantineRemaining reports the remaining quarantine duration, or
// false if not currently quarantined.
func (s *PluginStats) QuarantineRemaining() (time.Duration, bool) {
	if s.QuarantinedUntil.IsZero() {
		return 0, false
	}
	remaining := time.Until(s.QuarantinedUntil)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}

// RecordSuccess records a successful execution lasting executionTimeUS
// microseconds and clears the consecutive-timeout streak.
func (s *PluginStats) RecordSuccess(executionTimeUS uint64) {
	s.TotalExecutions++
	s.TotalExecutionTimeUS += executionTimeUS
	s.LastExecutionTimeUS = executionTimeUS
	s.LastExecution = time.Now()
	s.ConsecutiveTimeouts = 0
}

// RecordTimeout records a timed-out execution.
func (s *PluginStats) RecordTimeout(executionTimeUS uint64) {
	s.TotalExecutions++
	s.TotalExecutionTimeUS += executionTimeUS
	s.LastExecutionTimeUS = executionTimeUS
	s.LastExecution = time.Now()
	s.TimeoutCount++
	s.ConsecutiveTimeouts++
}

// ApplyQuarantine quarantines the plugin for duration, starting now.
func (s *PluginStats) ApplyQuarantine(duration time.Duration) {
	s.QuarantinedUntil = time.Now().Add(duration)
	s.QuarantineCount++
}

// ClearQuarantine lifts quarantine immediately.
func (s *PluginStats) ClearQuarantine() {
	s.QuarantinedUntil = time.Time{}
	s.ConsecutiveTimeouts = 0
}

// CheckQuarantineExpiry clears an expired quarantine and reports whether
// it did so.
func (s *PluginStats) CheckQuarantineExpiry() bool {
	if !s.QuarantinedUntil.IsZero() && !time.Now().Before(s.QuarantinedUntil) {
		s.QuarantinedUntil = time.Time{}
		return true
	}
	return false
}

// Reset clears every field back to its zero value.
func (s *PluginStats) Reset() {
	*s = PluginStats{}
}

// quarantineBackoffBase and quarantineBackoffMax bound the exponential
// backoff applied on repeated quarantines: duration doubles per
// consecutive quarantine, capped at the max.
const (
	quarantineBackoffBase = 500 * time.Millisecond
	quarantineBackoffMax  = 5 * time.Minute
)

// BackoffDuration computes the quarantine duration for the plugin's
// current QuarantineCount, doubling from quarantineBackoffBase and
// capping at quarantineBackoffMax.
func (s *PluginStats) BackoffDuration() time.Duration {
	d := quarantineBackoffBase
	for i := uint32(0); i < s.QuarantineCount; i++ {
		d *= 2
		if d >= quarantineBackoffMax {
			return quarantineBackoffMax
		}
	}
	return d
}

// PluginRegistry tracks PluginStats per plugin ID under a single mutex.
type PluginRegistry struct {
	mu    sync.Mutex
	stats map[string]*PluginStats
}

// NewPluginRegistry creates an empty PluginRegistry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{stats: make(map[string]*PluginStats)}
}

func (r *PluginRegistry) statsFor(pluginID string) *PluginStats {
	s, ok := r.stats[pluginID]
	if !ok {
		s = NewPluginStats()
		r.stats[pluginID] = s
	}
	return s
}

// RecordSuccess records a successful execution for pluginID.
func (r *PluginRegistry) RecordSuccess(pluginID string, executionTimeUS uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statsFor(pluginID).RecordSuccess(executionTimeUS)
}

// RecordTimeout records a timed-out execution for pluginID and
// quarantines it once ConsecutiveTimeouts crosses quarantineThreshold.
func (r *PluginRegistry) RecordTimeout(pluginID string, executionTimeUS uint64, quarantineThreshold uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsFor(pluginID)
	s.RecordTimeout(executionTimeUS)
	if s.ConsecutiveTimeouts >= quarantineThreshold {
		s.ApplyQuarantine(s.BackoffDuration())
	}
}

// IsQuarantined reports whether pluginID is currently quarantined,
// clearing an expired quarantine as a side effect.
func (r *PluginRegistry) IsQuarantined(pluginID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.statsFor(pluginID)
	s.CheckQuarantineExpiry()
	return s.IsQuarantined()
}

// QuarantinedCount reports how many tracked plugins are currently
// quarantined, clearing any expired quarantines as a side effect.
func (r *PluginRegistry) QuarantinedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.stats {
		s.CheckQuarantineExpiry()
		if s.IsQuarantined() {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every tracked plugin's current stats.
func (r *PluginRegistry) Snapshot() map[string]PluginStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]PluginStats, len(r.stats))
	for id, s := range r.stats {
		out[id] = *s
	}
	return out
}

package fmea

import "time"

// Alert is a raised-fault notification for the audio/visual alert
// layer. Two faults of the same kind while one is already active
// collapse into the same Alert: only LastSeen advances.
type Alert struct {
	FaultType FaultType
	FirstSeen time.Time
	LastSeen  time.Time
}

// AudioAlerts tracks at most one active alert at a time, deduplicating
// repeated occurrences of the same fault kind.
type AudioAlerts struct {
	current *Alert
}

// Raise records a fault occurrence at now. If an alert for the same
// fault type is already active, only its LastSeen timestamp updates;
// otherwise a new Alert begins.
func (a *AudioAlerts) Raise(ft FaultType, now time.Time) {
	if a.current != nil && a.current.FaultType == ft {
		a.current.LastSeen = now
		return
	}
	a.current = &Alert{FaultType: ft, FirstSeen: now, LastSeen: now}
}

// CurrentAlert returns the active alert, or nil if none.
func (a *AudioAlerts) CurrentAlert() *Alert {
	return a.current
}

// Clear dismisses the active alert.
func (a *AudioAlerts) Clear() {
	a.current = nil
}

package fmea

import "time"

// ScaleAdapter adapts System to the RT loop's FaultScaler contract
// (scheduler.FaultScaler): Scale() takes no arguments and must never
// block, so the adapter tracks the wall-clock delta between calls itself
// and feeds it to the ramp only while a soft-stop is active. The
// returned scale already reflects never-started (1.0), ramping, and
// completed-but-still-faulted (0.0, latched until the fault clears)
// without the adapter needing to special-case any of those states
// itself — see SoftStopController.Ratio.
type ScaleAdapter struct {
	system *System
	last   time.Time
	now    func() time.Time
}

// NewScaleAdapter builds a ScaleAdapter over system. The first Scale call
// establishes the baseline timestamp and always returns the system's
// current scale without advancing the ramp, since no prior tick exists to
// measure a delta against.
func NewScaleAdapter(system *System) *ScaleAdapter {
	return &ScaleAdapter{system: system, now: time.Now}
}

// Scale implements scheduler.FaultScaler. It returns a [0,1] multiplier
// the RT loop applies directly to the pipeline's torque output, ramping
// from 1.0 to 0.0 over a soft-stop's duration regardless of what that
// tick's own torque happens to be.
func (a *ScaleAdapter) Scale() float32 {
	now := a.now()
	if a.last.IsZero() {
		a.last = now
		return a.system.softStop.Ratio()
	}
	delta := now.Sub(a.last)
	a.last = now

	if a.system.IsSoftStopActive() {
		a.system.softStop.Update(delta)
		a.system.publish()
	}
	return a.system.softStop.Ratio()
}

// IsSoftStopActive implements scheduler.SoftStopQuerier so Loop can defer
// a pending pipeline swap until any soft-stop ramp this adapter is
// driving has completed.
func (a *ScaleAdapter) IsSoftStopActive() bool {
	return a.system.IsSoftStopActive()
}

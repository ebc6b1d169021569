package fmea

import "time"

// defaultSoftStopRamp is the soft-stop ramp duration used when none is
// specified: 75ms from full torque to zero.
const defaultSoftStopRamp = 75 * time.Millisecond

// SoftStopController linearly ramps torque_scale from a starting value
// to zero over a configured duration. While active, the RT loop
// multiplies its final torque output by Ratio's scale and
// defers pipeline swaps until the ramp completes.
type SoftStopController struct {
	active      bool
	completed   bool
	startTorque float32
	elapsed     time.Duration
	duration    time.Duration
}

// NewSoftStopController returns an inactive controller.
func NewSoftStopController() *SoftStopController {
	return &SoftStopController{}
}

// StartSoftStop begins a ramp from startTorque to zero over the
// default 75ms duration.
func (c *SoftStopController) StartSoftStop(startTorque float32) {
	c.StartSoftStopWithDuration(startTorque, defaultSoftStopRamp)
}

// StartSoftStopWithDuration begins a ramp from startTorque to zero
// over duration.
func (c *SoftStopController) StartSoftStopWithDuration(startTorque float32, duration time.Duration) {
	c.active = true
	c.completed = false
	c.startTorque = startTorque
	c.elapsed = 0
	c.duration = duration
}

// IsActive reports whether a ramp is in progress.
func (c *SoftStopController) IsActive() bool { return c.active }

// StartTorque reports the torque value the ramp began from.
func (c *SoftStopController) StartTorque() float32 { return c.startTorque }

// CurrentTorque reports the torque at the current point in the ramp
// without advancing it.
func (c *SoftStopController) CurrentTorque() float32 {
	if c.completed {
		return 0
	}
	if !c.active || c.duration <= 0 {
		if c.active {
			return 0
		}
		return c.startTorque
	}
	remaining := float32(c.duration-c.elapsed) / float32(c.duration)
	if remaining < 0 {
		remaining = 0
	}
	return c.startTorque * remaining
}

// Update advances the ramp by delta and returns the new torque value.
// Once the ramp reaches its duration the controller deactivates and
// subsequent calls return zero.
func (c *SoftStopController) Update(delta time.Duration) float32 {
	if !c.active {
		return 0
	}
	c.elapsed += delta
	if c.elapsed >= c.duration {
		c.active = false
		c.completed = true
		c.elapsed = c.duration
		return 0
	}
	return c.CurrentTorque()
}

// Ratio reports the ramp's progress as a [0,1] multiplier — 1.0 when the
// ramp has never run (no attenuation), decaying linearly to 0 as the
// ramp completes, and staying at 0 once the ramp has completed until
// Reset clears it — independent of the absolute startTorque magnitude.
// This is what a caller multiplies against an arbitrary torque value, as
// opposed to CurrentTorque which reports the absolute value of this
// specific ramp's own starting torque. A completed ramp must not report
// 1.0 again on its own: the fault that triggered it is still active
// until the caller explicitly clears it.
func (c *SoftStopController) Ratio() float32 {
	if c.completed {
		return 0
	}
	if !c.active {
		return 1.0
	}
	if c.duration <= 0 {
		return 0
	}
	remaining := float32(c.duration-c.elapsed) / float32(c.duration)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Reset clears the controller back to inactive, including the
// completed-ramp latch — used when the owning fault is cleared, so a
// future soft-stop starts from a clean 1.0 scale.
func (c *SoftStopController) Reset() {
	*c = SoftStopController{}
}

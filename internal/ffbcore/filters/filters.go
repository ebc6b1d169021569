package filters

import (
	"math"
	"unsafe"

	"github.com/openracing/ffbengine/internal/ffbcore/frame"
)

// NodeFn is the function-pointer type for a compiled filter node: it takes
// the mutable tick Frame and a pointer to this node's state, previously
// written into the Pipeline's packed buffer at a recorded, aligned offset.
//
// The caller (the pipeline executor) guarantees state points at memory of
// the correct type for this node and remains valid for the call.
type NodeFn func(f *frame.Frame, state unsafe.Pointer)

// Reconstruction is an N-tap moving-average smoother over past torque
// values, used as an anti-aliasing / reconstruction stage ahead of the
// rest of the chain.
func Reconstruction(f *frame.Frame, state unsafe.Pointer) {
	s := (*ReconstructionState)(state)
	taps := s.Taps
	if taps < 1 {
		taps = 1
	}
	if taps > MaxReconstructionTaps {
		taps = MaxReconstructionTaps
	}

	s.History[s.Pos] = f.TorqueOut
	s.Pos = (s.Pos + 1) % taps
	if s.Filled < taps {
		s.Filled++
	}

	var sum float32
	for i := int32(0); i < s.Filled; i++ {
		sum += s.History[i]
	}
	f.TorqueOut = sum / float32(s.Filled)
}

// Friction applies a signed torque opposing wheel motion, proportional to
// wheel speed; when SpeedAdaptive the gain scales down as speed grows so
// the effect saturates rather than growing unbounded.
func Friction(f *frame.Frame, state unsafe.Pointer) {
	s := (*FrictionState)(state)
	f.TorqueOut += frictionLikeTorque(f.WheelSpeed, s.Gain, s.SpeedAdaptive)
}

// Damper is shaped identically to Friction (opposing torque proportional
// to wheel speed) but is a distinct filter slot with its own gain, per
// the FilterConfig data model.
func Damper(f *frame.Frame, state unsafe.Pointer) {
	s := (*DamperState)(state)
	f.TorqueOut += frictionLikeTorque(f.WheelSpeed, s.Gain, s.SpeedAdaptive)
}

func frictionLikeTorque(wheelSpeed, gain float32, speedAdaptive bool) float32 {
	g := gain
	if speedAdaptive {
		g = gain / (1 + abs32(wheelSpeed)*0.1)
	}
	return -g * wheelSpeed
}

// Inertia adds torque proportional to the estimated d(wheel_speed)/dt
// across the two most recent ticks.
func Inertia(f *frame.Frame, state unsafe.Pointer) {
	s := (*InertiaState)(state)
	if s.HasPrev && f.TSMonoNS > s.PrevTSMonoNS {
		dtNS := f.TSMonoNS - s.PrevTSMonoNS
		dtS := float32(dtNS) / 1e9
		if dtS > 0 {
			accel := (f.WheelSpeed - s.PrevWheelSpeed) / dtS
			f.TorqueOut += s.Gain * accel
		}
	}
	s.PrevWheelSpeed = f.WheelSpeed
	s.PrevTSMonoNS = f.TSMonoNS
	s.HasPrev = true
}

// Notch applies a Direct-Form-I biquad IIR to torque_out. The same state
// shape serves notch, low-pass, and bypass variants — only the
// coefficients differ, set at construction time.
func Notch(f *frame.Frame, state unsafe.Pointer) {
	s := (*NotchState)(state)
	input := f.TorqueOut

	output := s.B0*input + s.B1*s.X1 + s.B2*s.X2 - s.A1*s.Y1 - s.A2*s.Y2

	s.X2 = s.X1
	s.X1 = input
	s.Y2 = s.Y1
	s.Y1 = output

	f.TorqueOut = output
}

// SlewRate clamps |Δtorque_out| per tick to MaxDelta.
func SlewRate(f *frame.Frame, state unsafe.Pointer) {
	s := (*SlewRateState)(state)
	delta := f.TorqueOut - s.PrevOutput
	if delta > s.MaxDelta {
		delta = s.MaxDelta
	} else if delta < -s.MaxDelta {
		delta = -s.MaxDelta
	}
	out := s.PrevOutput + delta
	s.PrevOutput = out
	f.TorqueOut = out
}

// Curve applies monotonic piecewise-linear interpolation of the
// configured control points to torque_out, clamping outside the defined
// x-range to the nearest endpoint.
func Curve(f *frame.Frame, state unsafe.Pointer) {
	s := (*CurveState)(state)
	if s.Count == 0 {
		return
	}
	x := f.TorqueOut
	pts := s.Points
	if x <= pts[0][0] {
		f.TorqueOut = pts[0][1]
		return
	}
	last := s.Count - 1
	if x >= pts[last][0] {
		f.TorqueOut = pts[last][1]
		return
	}
	for i := int32(0); i < last; i++ {
		x0, y0 := pts[i][0], pts[i][1]
		x1, y1 := pts[i+1][0], pts[i+1][1]
		if x >= x0 && x <= x1 {
			if x1 == x0 {
				f.TorqueOut = y0
				return
			}
			t := (x - x0) / (x1 - x0)
			f.TorqueOut = y0 + t*(y1-y0)
			return
		}
	}
}

// TorqueCap clamps torque_out to ±MaxTorque. Non-finite input maps to the
// signed maximum rather than propagating NaN/Inf downstream.
func TorqueCap(f *frame.Frame, state unsafe.Pointer) {
	s := (*TorqueCapState)(state)
	if math.IsNaN(float64(f.TorqueOut)) {
		f.TorqueOut = s.MaxTorque
		return
	}
	if math.IsInf(float64(f.TorqueOut), 0) {
		if f.TorqueOut < 0 {
			f.TorqueOut = -s.MaxTorque
		} else {
			f.TorqueOut = s.MaxTorque
		}
		return
	}
	if f.TorqueOut > s.MaxTorque {
		f.TorqueOut = s.MaxTorque
	} else if f.TorqueOut < -s.MaxTorque {
		f.TorqueOut = -s.MaxTorque
	}
}

// Bumpstop integrates wheel_speed into an angle estimate and, once past
// StartAngle, applies a quadratically increasing spring plus linear
// damping that opposes further rotation toward MaxAngle.
func Bumpstop(f *frame.Frame, state unsafe.Pointer) {
	s := (*BumpstopState)(state)
	if !s.Enabled {
		return
	}

	deltaAngleDeg := radToDeg(f.WheelSpeed) * 0.001
	s.CurrentAngle += deltaAngleDeg

	absAngle := abs32(s.CurrentAngle)
	if absAngle <= s.StartAngle {
		return
	}

	span := s.MaxAngle - s.StartAngle
	var penetration float32
	if span > 0 {
		penetration = (absAngle - s.StartAngle) / span
	}
	if penetration < 0 {
		penetration = 0
	} else if penetration > 1 {
		penetration = 1
	}

	springForce := penetration * penetration * s.Stiffness
	dampingForce := radToDeg(f.WheelSpeed) * s.Damping * 0.001

	sign := float32(1)
	if s.CurrentAngle < 0 {
		sign = -1
	} else if s.CurrentAngle == 0 {
		sign = 0
	}

	f.TorqueOut += -(springForce + dampingForce) * sign
}

func radToDeg(rad float32) float32 {
	return rad * (180.0 / math.Pi)
}

// HandsOff tracks how long |torque_out| has stayed below Threshold and
// latches frame.HandsOff once that holds for the full TimeoutTicks
// window. It clears as soon as torque exceeds the threshold for one tick.
func HandsOff(f *frame.Frame, state unsafe.Pointer) {
	s := (*HandsOffState)(state)
	if !s.Enabled {
		return
	}
	if abs32(f.TorqueOut) < s.Threshold {
		if s.BelowTicks < math.MaxUint32 {
			s.BelowTicks++
		}
	} else {
		s.BelowTicks = 0
	}
	f.HandsOff = s.BelowTicks >= s.TimeoutTicks
}

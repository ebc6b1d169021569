// Package filters is the filter library (component F): a set of stateful,
// pure, bounded-time functions over a per-tick Frame and a typed state
// value. Every state type here is a fixed-layout struct of plain fields
// only (no pointers, slices, or maps) so it can be written into and read
// back out of the Pipeline's packed byte buffer by raw offset, matching
// the source design's #[repr(C)] state types.
package filters

import "math"

// MaxReconstructionTaps bounds the reconstruction filter's moving-average
// window so ReconstructionState has a fixed size known at compile time.
const MaxReconstructionTaps = 16

// MaxCurvePoints bounds the number of (x,y) control points a Curve filter
// can hold, matching the FilterConfig invariant that curve_points is
// bounded.
const MaxCurvePoints = 16

// ReconstructionState is an N-tap moving-average smoother over past torque
// values.
type ReconstructionState struct {
	Taps    int32
	Pos     int32
	Filled  int32
	History [MaxReconstructionTaps]float32
}

// NewReconstructionState builds a reconstruction state with the given tap
// count, clamped into [1, MaxReconstructionTaps].
func NewReconstructionState(taps int) ReconstructionState {
	if taps < 1 {
		taps = 1
	}
	if taps > MaxReconstructionTaps {
		taps = MaxReconstructionTaps
	}
	return ReconstructionState{Taps: int32(taps)}
}

// FrictionState and DamperState share the same shape: a gain in [0,1] and
// a speed-adaptation flag. They are distinct types so the pipeline
// compiler can distinguish their filter slots even though the state layout
// is identical.
type FrictionState struct {
	Gain          float32
	SpeedAdaptive bool
}

func NewFrictionState(gain float32, speedAdaptive bool) FrictionState {
	return FrictionState{Gain: gain, SpeedAdaptive: speedAdaptive}
}

type DamperState struct {
	Gain          float32
	SpeedAdaptive bool
}

func NewDamperState(gain float32, speedAdaptive bool) DamperState {
	return DamperState{Gain: gain, SpeedAdaptive: speedAdaptive}
}

// InertiaState tracks the previous wheel speed and timestamp across ticks
// to estimate d(wheel_speed)/dt.
type InertiaState struct {
	Gain           float32
	PrevWheelSpeed float32
	PrevTSMonoNS   uint64
	HasPrev        bool
}

func NewInertiaState(gain float32) InertiaState {
	return InertiaState{Gain: gain}
}

// NotchState is a Direct-Form-I biquad: five coefficients plus a four-slot
// delay line. Built by NewNotchState (notch), NewLowpassState (low-pass),
// or BypassNotchState (identity).
type NotchState struct {
	B0, B1, B2 float32
	A1, A2     float32
	X1, X2     float32
	Y1, Y2     float32
}

// NewNotchState derives biquad notch coefficients for center frequency
// hz, quality factor q, at the given sample rate (1000 Hz for the 1 kHz
// RT loop). gainDB is accepted for config-surface symmetry but, like the
// reference design, does not enter the coefficient derivation.
func NewNotchState(hz, q, gainDB, sampleRate float32) NotchState {
	omega := 2 * math.Pi * float64(hz) / float64(sampleRate)
	qClamped := clampF64(float64(q), 0.1, 10.0)
	alpha := math.Sin(omega) / (2 * qClamped)

	b0 := 1.0
	b1 := -2 * math.Cos(omega)
	b2 := 1.0
	a0 := 1 + alpha
	a1 := -2 * math.Cos(omega)
	a2 := 1 - alpha

	return NotchState{
		B0: float32(b0 / a0),
		B1: float32(b1 / a0),
		B2: float32(b2 / a0),
		A1: float32(a1 / a0),
		A2: float32(a2 / a0),
	}
}

// NewLowpassState derives biquad low-pass coefficients.
func NewLowpassState(hz, q, sampleRate float32) NotchState {
	omega := 2 * math.Pi * float64(hz) / float64(sampleRate)
	qClamped := clampF64(float64(q), 0.1, 10.0)
	alpha := math.Sin(omega) / (2 * qClamped)
	cosOmega := math.Cos(omega)

	b0 := (1 - cosOmega) / 2
	b1 := 1 - cosOmega
	b2 := (1 - cosOmega) / 2
	a0 := 1 + alpha
	a1 := -2 * cosOmega
	a2 := 1 - alpha

	return NotchState{
		B0: float32(b0 / a0),
		B1: float32(b1 / a0),
		B2: float32(b2 / a0),
		A1: float32(a1 / a0),
		A2: float32(a2 / a0),
	}
}

// BypassNotchState returns an identity biquad (y[n] = x[n]).
func BypassNotchState() NotchState {
	return NotchState{B0: 1}
}

// IsStable reports whether the biquad's poles lie inside the unit circle,
// using the exact second-order condition |a2| < 1 and |a1| < 1 + a2.
func (s NotchState) IsStable() bool {
	a1, a2 := float64(s.A1), float64(s.A2)
	return math.Abs(a2) < 1 && math.Abs(a1) < 1+a2
}

// SlewRateState clamps |Δtorque_out| per tick to MaxDelta.
type SlewRateState struct {
	MaxDelta   float32
	PrevOutput float32
}

func NewSlewRateState(maxDelta float32) SlewRateState {
	return SlewRateState{MaxDelta: maxDelta}
}

// CurveState is a piecewise-linear input-shaping curve over a bounded set
// of strictly-x-monotonic control points.
type CurveState struct {
	Count  int32
	Points [MaxCurvePoints][2]float32
}

// NewCurveState builds a CurveState from up to MaxCurvePoints (x,y) pairs.
// Extra points beyond the capacity are dropped; callers validate
// curve_points against MaxCurvePoints at FilterConfig compile time.
func NewCurveState(points [][2]float32) CurveState {
	s := CurveState{}
	n := len(points)
	if n > MaxCurvePoints {
		n = MaxCurvePoints
	}
	for i := 0; i < n; i++ {
		s.Points[i] = points[i]
	}
	s.Count = int32(n)
	return s
}

// TorqueCapState is a bare absolute torque ceiling; the simplest filter
// state in the library (a single plain float32, matching the reference
// design's raw *const f32 state pointer).
type TorqueCapState struct {
	MaxTorque float32
}

func NewTorqueCapState(maxTorque float32) TorqueCapState {
	return TorqueCapState{MaxTorque: maxTorque}
}

// BumpstopState simulates physical steering stops past StartAngle, up to
// a hard MaxAngle.
type BumpstopState struct {
	Enabled      bool
	StartAngle   float32
	MaxAngle     float32
	Stiffness    float32
	Damping      float32
	CurrentAngle float32
}

func NewBumpstopState(enabled bool, startAngle, maxAngle, stiffness, damping float32) BumpstopState {
	return BumpstopState{
		Enabled:    enabled,
		StartAngle: startAngle,
		MaxAngle:   maxAngle,
		Stiffness:  stiffness,
		Damping:    damping,
	}
}

func DisabledBumpstopState() BumpstopState {
	return BumpstopState{}
}

// HandsOffState tracks how long |torque_out| has stayed below Threshold.
type HandsOffState struct {
	Enabled      bool
	Threshold    float32
	TimeoutTicks uint32
	BelowTicks   uint32
}

func NewHandsOffState(enabled bool, threshold float32, timeoutTicks uint32) HandsOffState {
	return HandsOffState{Enabled: enabled, Threshold: threshold, TimeoutTicks: timeoutTicks}
}

func clampF64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

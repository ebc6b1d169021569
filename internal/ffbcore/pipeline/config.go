// Package pipeline implements the compiled, immutable filter pipeline
// (component P) and its off-path compiler (component PC): a declarative
// FilterConfig is validated, flattened into a packed state buffer plus a
// function-pointer table, and hashed deterministically for swap/caching
// decisions.
package pipeline

import (
	"fmt"

	"github.com/openracing/ffbengine/internal/ffbcore/filters"
)

// GainConfig parameterizes friction/damper/inertia: a gain in [0,1] and an
// optional speed-adaptation flag.
type GainConfig struct {
	Gain          float32
	SpeedAdaptive bool
}

// NotchConfig describes one biquad notch stage.
type NotchConfig struct {
	CenterHz float32
	Q        float32
	GainDB   float32
}

// CurvePoint is one (x,y) control point of the curve_points input-shaping
// table, both coordinates in [0,1].
type CurvePoint struct {
	X, Y float32
}

// BumpstopConfig declares the end-of-rotation resistance model.
type BumpstopConfig struct {
	Enabled    bool
	StartAngle float32 // degrees
	MaxAngle   float32 // degrees
	Stiffness  float32
	Damping    float32
}

// HandsOffConfig declares the hands-off detector thresholds.
type HandsOffConfig struct {
	Enabled   bool
	Threshold float32
	TimeoutS  float32
}

// ResponseCurveConfig declares the optional pipeline-level response curve,
// applied after the node chain executes (RT loop step 5), not as an
// ordinary filter node — see Pipeline.ResponseCurveLUT.
type ResponseCurveConfig struct {
	Set  bool
	Kind ResponseCurveKind

	Exponent      float64
	Base          float64
	BezierPoints  [4][2]float64
	CustomSamples [256]float32
}

// ResponseCurveKind mirrors curves.Kind at the config layer so this
// package does not need to import curves just to describe a config. It is
// converted 1:1 in Compile.
type ResponseCurveKind uint8

const (
	ResponseLinear ResponseCurveKind = iota
	ResponseExponential
	ResponseLogarithmic
	ResponseBezier
	ResponseCustom
)

// MaxNotchFilters bounds the notch filter list, per the FilterConfig data
// model ("k bounded (e.g. 4)").
const MaxNotchFilters = 4

// FilterConfig is the declarative, off-path configuration compiled into a
// Pipeline. Every numeric range is validated by Compile and rejected with
// a structured error — never silently clamped.
type FilterConfig struct {
	ReconstructionTaps int // 0 disables the slot; otherwise 1..=N

	HasFriction bool
	Friction    GainConfig

	HasDamper bool
	Damper    GainConfig

	HasInertia bool
	Inertia    GainConfig

	HasSlewRate bool
	SlewRate    float32 // max |Δtorque|/tick, in [0,1]

	Notch []NotchConfig // len <= MaxNotchFilters

	CurvePoints []CurvePoint // strictly monotonic in X when non-empty

	ResponseCurve ResponseCurveConfig

	HasTorqueCap bool
	TorqueCap    float32 // absolute Nm ceiling, > 0

	Bumpstop BumpstopConfig
	HandsOff HandsOffConfig
}

// ErrorKind enumerates the configuration-error taxonomy of §7: these are
// compile-time errors, surfaced to the caller and never reaching the RT
// path.
type ErrorKind int

const (
	ErrInvalidRange ErrorKind = iota
	ErrNonMonotonicCurve
	ErrInvalidParameters
)

// CompileError names the config slot that failed and why.
type CompileError struct {
	Kind ErrorKind
	Slot string
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pipeline compile: slot %q: %s", e.Slot, e.Msg)
}

func rangeErr(slot, msg string) error {
	return &CompileError{Kind: ErrInvalidRange, Slot: slot, Msg: msg}
}

// Validate checks every FilterConfig invariant named in §3/§4.2. It never
// mutates cfg and never clamps: out-of-range values are always rejected.
func (cfg *FilterConfig) Validate() error {
	if cfg.ReconstructionTaps < 0 {
		return rangeErr("reconstruction", "oversample factor must be >= 0")
	}
	if cfg.ReconstructionTaps > filters.MaxReconstructionTaps {
		return rangeErr("reconstruction", fmt.Sprintf("oversample factor must be <= %d", filters.MaxReconstructionTaps))
	}
	if cfg.HasFriction && (cfg.Friction.Gain < 0 || cfg.Friction.Gain > 1) {
		return rangeErr("friction", "gain must be in [0,1]")
	}
	if cfg.HasDamper && (cfg.Damper.Gain < 0 || cfg.Damper.Gain > 1) {
		return rangeErr("damper", "gain must be in [0,1]")
	}
	if cfg.HasInertia && (cfg.Inertia.Gain < 0 || cfg.Inertia.Gain > 1) {
		return rangeErr("inertia", "gain must be in [0,1]")
	}
	if cfg.HasSlewRate && (cfg.SlewRate < 0 || cfg.SlewRate > 1) {
		return rangeErr("slew_rate", "max delta per tick must be in [0,1]")
	}
	if len(cfg.Notch) > MaxNotchFilters {
		return &CompileError{Kind: ErrInvalidParameters, Slot: "notch", Msg: fmt.Sprintf("at most %d notch filters allowed", MaxNotchFilters)}
	}
	for i, n := range cfg.Notch {
		if n.CenterHz <= 0 {
			return &CompileError{Kind: ErrInvalidRange, Slot: fmt.Sprintf("notch[%d]", i), Msg: "center frequency must be positive"}
		}
	}
	if len(cfg.CurvePoints) > filters.MaxCurvePoints {
		return &CompileError{Kind: ErrInvalidParameters, Slot: "curve_points", Msg: fmt.Sprintf("at most %d curve points allowed", filters.MaxCurvePoints)}
	}
	if len(cfg.CurvePoints) > 0 {
		prevX := cfg.CurvePoints[0].X
		if prevX < 0 || prevX > 1 || cfg.CurvePoints[0].Y < 0 || cfg.CurvePoints[0].Y > 1 {
			return &CompileError{Kind: ErrInvalidRange, Slot: "curve_points", Msg: "points must lie in [0,1]^2"}
		}
		for i := 1; i < len(cfg.CurvePoints); i++ {
			p := cfg.CurvePoints[i]
			if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
				return &CompileError{Kind: ErrInvalidRange, Slot: "curve_points", Msg: "points must lie in [0,1]^2"}
			}
			if p.X <= prevX {
				return &CompileError{Kind: ErrNonMonotonicCurve, Slot: "curve_points", Msg: "curve_points must be strictly monotonic in x"}
			}
			prevX = p.X
		}
	}
	if cfg.Bumpstop.Enabled && cfg.Bumpstop.StartAngle > cfg.Bumpstop.MaxAngle {
		return &CompileError{Kind: ErrInvalidRange, Slot: "bumpstop", Msg: "start_angle must be <= max_angle"}
	}
	if cfg.HasTorqueCap && cfg.TorqueCap <= 0 {
		return rangeErr("torque_cap", "absolute ceiling must be > 0")
	}
	if cfg.HandsOff.Enabled && cfg.HandsOff.Threshold < 0 {
		return rangeErr("hands_off", "threshold must be >= 0")
	}
	return nil
}

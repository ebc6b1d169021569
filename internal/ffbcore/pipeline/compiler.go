package pipeline

import (
	"unsafe"

	"github.com/openracing/ffbengine/internal/ffbcore/curves"
	"github.com/openracing/ffbengine/internal/ffbcore/filters"
)

// sampleRateHz is the fixed RT loop cadence notch/low-pass coefficients
// are derived against (§4.3).
const sampleRateHz = 1000

// Compile validates cfg and builds a Pipeline: a flat sequence of filter
// nodes over a single packed, 8-byte-aligned state buffer, plus a
// deterministic config hash. Compilation may allocate freely — it runs on
// a worker, off the RT path (§4.2) — but the resulting Pipeline.Process
// never does.
//
// Nodes are emitted in a fixed order so that two compilations of the same
// FilterConfig always produce nodes in the same sequence: reconstruction,
// friction, damper, inertia, notch[0..k], slew_rate, curve, torque_cap,
// bumpstop, hands_off. This mirrors the physical signal-conditioning
// order the RT loop wants: smooth first, then the motion effects and
// notches, then slew limiting, input shaping and the torque cap, with
// bumpstop and hands-off as independent end-of-chain safety/telemetry
// stages after the cap.
func Compile(cfg FilterConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{}

	if cfg.ReconstructionTaps > 0 {
		idx := p.addNode(filters.Reconstruction, unsafe.Sizeof(filters.ReconstructionState{}))
		initNodeState(p, idx, filters.NewReconstructionState(cfg.ReconstructionTaps))
	}
	if cfg.HasFriction {
		idx := p.addNode(filters.Friction, unsafe.Sizeof(filters.FrictionState{}))
		initNodeState(p, idx, filters.NewFrictionState(cfg.Friction.Gain, cfg.Friction.SpeedAdaptive))
	}
	if cfg.HasDamper {
		idx := p.addNode(filters.Damper, unsafe.Sizeof(filters.DamperState{}))
		initNodeState(p, idx, filters.NewDamperState(cfg.Damper.Gain, cfg.Damper.SpeedAdaptive))
	}
	if cfg.HasInertia {
		idx := p.addNode(filters.Inertia, unsafe.Sizeof(filters.InertiaState{}))
		initNodeState(p, idx, filters.NewInertiaState(cfg.Inertia.Gain))
	}
	for _, n := range cfg.Notch {
		idx := p.addNode(filters.Notch, unsafe.Sizeof(filters.NotchState{}))
		initNodeState(p, idx, filters.NewNotchState(n.CenterHz, n.Q, n.GainDB, sampleRateHz))
	}
	if cfg.HasSlewRate {
		idx := p.addNode(filters.SlewRate, unsafe.Sizeof(filters.SlewRateState{}))
		initNodeState(p, idx, filters.NewSlewRateState(cfg.SlewRate))
	}
	if len(cfg.CurvePoints) > 0 {
		pts := make([][2]float32, len(cfg.CurvePoints))
		for i, cp := range cfg.CurvePoints {
			pts[i] = [2]float32{cp.X, cp.Y}
		}
		idx := p.addNode(filters.Curve, unsafe.Sizeof(filters.CurveState{}))
		initNodeState(p, idx, filters.NewCurveState(pts))
	}
	if cfg.HasTorqueCap {
		idx := p.addNode(filters.TorqueCap, unsafe.Sizeof(filters.TorqueCapState{}))
		initNodeState(p, idx, filters.NewTorqueCapState(cfg.TorqueCap))
	}
	if cfg.Bumpstop.Enabled {
		idx := p.addNode(filters.Bumpstop, unsafe.Sizeof(filters.BumpstopState{}))
		initNodeState(p, idx, filters.NewBumpstopState(true, cfg.Bumpstop.StartAngle, cfg.Bumpstop.MaxAngle, cfg.Bumpstop.Stiffness, cfg.Bumpstop.Damping))
	}
	if cfg.HandsOff.Enabled {
		timeoutTicks := uint32(cfg.HandsOff.TimeoutS * sampleRateHz)
		idx := p.addNode(filters.HandsOff, unsafe.Sizeof(filters.HandsOffState{}))
		initNodeState(p, idx, filters.NewHandsOffState(true, cfg.HandsOff.Threshold, timeoutTicks))
	}

	if cfg.ResponseCurve.Set {
		p.ResponseCurveLUT = curves.Build(toCurveSpec(cfg.ResponseCurve))
	}

	p.configHash = ConfigHash(cfg)

	return p, nil
}

func toCurveSpec(rc ResponseCurveConfig) curves.Spec {
	return curves.Spec{
		Kind:          curves.Kind(rc.Kind),
		Exponent:      rc.Exponent,
		Base:          rc.Base,
		BezierPoints:  rc.BezierPoints,
		CustomSamples: rc.CustomSamples,
	}
}

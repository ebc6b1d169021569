package pipeline

import (
	"math"
	"testing"

	"github.com/openracing/ffbengine/internal/ffbcore/frame"
)

func exampleConfig() FilterConfig {
	return FilterConfig{
		HasFriction:  true,
		Friction:     GainConfig{Gain: 0.1},
		HasTorqueCap: true,
		TorqueCap:    5,
	}
}

func TestCompileProducesAlignedOffsets(t *testing.T) {
	cfg := FilterConfig{
		HasFriction:  true,
		Friction:     GainConfig{Gain: 0.1},
		HasDamper:    true,
		Damper:       GainConfig{Gain: 0.2},
		HasTorqueCap: true,
		TorqueCap:    5,
	}
	p, err := Compile(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.NodeCount() != len(p.stateOffsets) {
		t.Fatalf("node count %d != offset count %d", p.NodeCount(), len(p.stateOffsets))
	}
	for i, off := range p.stateOffsets {
		if off%stateAlign != 0 {
			t.Fatalf("offset %d for node %d is not %d-byte aligned", off, i, stateAlign)
		}
	}
}

func TestSteadyStatePipelineFinite(t *testing.T) {
	p, err := Compile(exampleConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var seq uint32
	for i := 0; i < 1000; i++ {
		f := frame.Next(0.5, 1.0, uint64(i+1)*1_000_000, seq)
		seq = f.Seq
		p.Process(&f)
		if !f.Finite() {
			t.Fatalf("tick %d produced non-finite torque_out", i)
		}
		if f.TorqueOut > 5.001 || f.TorqueOut < -5.001 {
			t.Fatalf("tick %d torque_out out of ±5 bound: %f", i, f.TorqueOut)
		}
	}
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	p, err := Compile(FilterConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := frame.Frame{TorqueOut: 0.42}
	p.Process(&f)
	if f.TorqueOut != 0.42 {
		t.Fatalf("expected identity pass-through, got %f", f.TorqueOut)
	}
}

func TestValidateRejectsNonMonotonicCurve(t *testing.T) {
	cfg := FilterConfig{CurvePoints: []CurvePoint{{X: 0, Y: 0}, {X: 0.5, Y: 0.4}, {X: 0.3, Y: 0.9}}}
	_, err := Compile(cfg)
	if err == nil {
		t.Fatalf("expected error for non-monotonic curve points")
	}
	ce, ok := err.(*CompileError)
	if !ok || ce.Kind != ErrNonMonotonicCurve {
		t.Fatalf("expected ErrNonMonotonicCurve, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeGain(t *testing.T) {
	cfg := FilterConfig{HasFriction: true, Friction: GainConfig{Gain: 1.5}}
	if _, err := Compile(cfg); err == nil {
		t.Fatalf("expected error for out-of-range friction gain")
	}
}

func TestValidateRejectsTooManyNotchFilters(t *testing.T) {
	cfg := FilterConfig{Notch: make([]NotchConfig, MaxNotchFilters+1)}
	for i := range cfg.Notch {
		cfg.Notch[i] = NotchConfig{CenterHz: 60, Q: 2}
	}
	if _, err := Compile(cfg); err == nil {
		t.Fatalf("expected error for too many notch filters")
	}
}

func TestResponseCurveAppliedAfterNodes(t *testing.T) {
	cfg := FilterConfig{
		ResponseCurve: ResponseCurveConfig{Set: true, Kind: ResponseLinear},
	}
	p, err := Compile(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ResponseCurveLUT == nil {
		t.Fatalf("expected response curve LUT to be set")
	}
	f := frame.Frame{TorqueOut: -0.5}
	p.Process(&f)
	if !f.Finite() {
		t.Fatalf("expected finite output")
	}
	if f.TorqueOut > 0 {
		t.Fatalf("expected sign preserved for negative input, got %f", f.TorqueOut)
	}
}

func TestProcessNeverIntroducesNaNFromFiniteInput(t *testing.T) {
	p, err := Compile(FilterConfig{
		HasFriction:  true,
		Friction:     GainConfig{Gain: 0.3, SpeedAdaptive: true},
		HasInertia:   true,
		Inertia:      GainConfig{Gain: 0.2},
		Notch:        []NotchConfig{{CenterHz: 50, Q: 2, GainDB: -6}},
		HasSlewRate:  true,
		SlewRate:     0.1,
		HasTorqueCap: true,
		TorqueCap:    1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, speed := range []float32{-50, -1, 0, 1, 50} {
		f := frame.Frame{FFBIn: 0.7, TorqueOut: 0.7, WheelSpeed: speed, TSMonoNS: 1_000_000}
		p.Process(&f)
		if math.IsNaN(float64(f.TorqueOut)) {
			t.Fatalf("NaN introduced from finite input at speed=%f", speed)
		}
	}
}

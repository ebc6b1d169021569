package config

import "github.com/openracing/ffbengine/internal/ffbcore/pipeline"

// GainDoc is the YAML-facing form of pipeline.GainConfig.
type GainDoc struct {
	Gain          float32 `yaml:"gain" json:"gain"`
	SpeedAdaptive bool    `yaml:"speed_adaptive" json:"speedAdaptive"`
}

// NotchDoc is the YAML-facing form of pipeline.NotchConfig.
type NotchDoc struct {
	CenterHz float32 `yaml:"center_hz" json:"centerHz"`
	Q        float32 `yaml:"q" json:"q"`
	GainDB   float32 `yaml:"gain_db" json:"gainDB"`
}

// CurvePointDoc is the YAML-facing form of pipeline.CurvePoint.
type CurvePointDoc struct {
	X float32 `yaml:"x" json:"x"`
	Y float32 `yaml:"y" json:"y"`
}

// BumpstopDoc is the YAML-facing form of pipeline.BumpstopConfig.
type BumpstopDoc struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	StartAngle float32 `yaml:"start_angle" json:"startAngle"`
	MaxAngle   float32 `yaml:"max_angle" json:"maxAngle"`
	Stiffness  float32 `yaml:"stiffness" json:"stiffness"`
	Damping    float32 `yaml:"damping" json:"damping"`
}

// HandsOffDoc is the YAML-facing form of pipeline.HandsOffConfig.
type HandsOffDoc struct {
	Enabled   bool    `yaml:"enabled" json:"enabled"`
	Threshold float32 `yaml:"threshold" json:"threshold"`
	TimeoutS  float32 `yaml:"timeout_s" json:"timeoutS"`
}

// ResponseCurveDoc is the YAML-facing form of pipeline.ResponseCurveConfig.
// CustomSamples is omitted from the document: a custom response curve is
// supplied out of band (it is a 256-entry LUT, not something an operator
// hand-edits in YAML) and defaults to identity when Kind is "custom" but
// no samples were loaded.
type ResponseCurveDoc struct {
	Set          bool         `yaml:"set" json:"set"`
	Kind         string       `yaml:"kind" json:"kind"` // linear|exponential|logarithmic|bezier|custom
	Exponent     float64      `yaml:"exponent" json:"exponent"`
	Base         float64      `yaml:"base" json:"base"`
	BezierPoints [4][2]float64 `yaml:"bezier_points" json:"bezierPoints"`
}

func (d ResponseCurveDoc) kind() (pipeline.ResponseCurveKind, error) {
	switch d.Kind {
	case "", "linear":
		return pipeline.ResponseLinear, nil
	case "exponential":
		return pipeline.ResponseExponential, nil
	case "logarithmic":
		return pipeline.ResponseLogarithmic, nil
	case "bezier":
		return pipeline.ResponseBezier, nil
	case "custom":
		return pipeline.ResponseCustom, nil
	default:
		return 0, configErr("response_curve.kind", "unknown kind "+d.Kind)
	}
}

// FilterDocument is the YAML-facing form of pipeline.FilterConfig: the
// same fields, tagged for gopkg.in/yaml.v3 and encoding/json so it can
// be loaded from disk and patched over HTTP the same way the policy is.
type FilterDocument struct {
	ReconstructionTaps int `yaml:"reconstruction_taps" json:"reconstructionTaps"`

	HasFriction bool    `yaml:"has_friction" json:"hasFriction"`
	Friction    GainDoc `yaml:"friction" json:"friction"`

	HasDamper bool    `yaml:"has_damper" json:"hasDamper"`
	Damper    GainDoc `yaml:"damper" json:"damper"`

	HasInertia bool    `yaml:"has_inertia" json:"hasInertia"`
	Inertia    GainDoc `yaml:"inertia" json:"inertia"`

	HasSlewRate bool    `yaml:"has_slew_rate" json:"hasSlewRate"`
	SlewRate    float32 `yaml:"slew_rate" json:"slewRate"`

	Notch []NotchDoc `yaml:"notch" json:"notch"`

	CurvePoints []CurvePointDoc `yaml:"curve_points" json:"curvePoints"`

	ResponseCurve ResponseCurveDoc `yaml:"response_curve" json:"responseCurve"`

	HasTorqueCap bool    `yaml:"has_torque_cap" json:"hasTorqueCap"`
	TorqueCap    float32 `yaml:"torque_cap" json:"torqueCap"`

	Bumpstop BumpstopDoc `yaml:"bumpstop" json:"bumpstop"`
	HandsOff HandsOffDoc `yaml:"hands_off" json:"handsOff"`
}

// DefaultFilterDocument returns a minimal, valid document: torque cap
// only, every optional stage disabled.
func DefaultFilterDocument() FilterDocument {
	return FilterDocument{
		HasTorqueCap: true,
		TorqueCap:    10.0,
	}
}

// ToFilterConfig converts the document into a pipeline.FilterConfig,
// ready for pipeline.Compile. It performs no validation itself —
// Compile (via FilterConfig.Validate) is the single source of truth
// for range/invariant checks.
func (d FilterDocument) ToFilterConfig() (pipeline.FilterConfig, error) {
	kind, err := d.ResponseCurve.kind()
	if err != nil {
		return pipeline.FilterConfig{}, err
	}

	notch := make([]pipeline.NotchConfig, len(d.Notch))
	for i, n := range d.Notch {
		notch[i] = pipeline.NotchConfig{CenterHz: n.CenterHz, Q: n.Q, GainDB: n.GainDB}
	}

	curvePoints := make([]pipeline.CurvePoint, len(d.CurvePoints))
	for i, p := range d.CurvePoints {
		curvePoints[i] = pipeline.CurvePoint{X: p.X, Y: p.Y}
	}

	var customSamples [256]float32
	if kind == pipeline.ResponseCustom {
		for i := range customSamples {
			customSamples[i] = float32(i) / float32(len(customSamples)-1)
		}
	}

	return pipeline.FilterConfig{
		ReconstructionTaps: d.ReconstructionTaps,

		HasFriction: d.HasFriction,
		Friction:    pipeline.GainConfig{Gain: d.Friction.Gain, SpeedAdaptive: d.Friction.SpeedAdaptive},

		HasDamper: d.HasDamper,
		Damper:    pipeline.GainConfig{Gain: d.Damper.Gain, SpeedAdaptive: d.Damper.SpeedAdaptive},

		HasInertia: d.HasInertia,
		Inertia:    pipeline.GainConfig{Gain: d.Inertia.Gain, SpeedAdaptive: d.Inertia.SpeedAdaptive},

		HasSlewRate: d.HasSlewRate,
		SlewRate:    d.SlewRate,

		Notch:       notch,
		CurvePoints: curvePoints,

		ResponseCurve: pipeline.ResponseCurveConfig{
			Set:           d.ResponseCurve.Set,
			Kind:          kind,
			Exponent:      d.ResponseCurve.Exponent,
			Base:          d.ResponseCurve.Base,
			BezierPoints:  d.ResponseCurve.BezierPoints,
			CustomSamples: customSamples,
		},

		HasTorqueCap: d.HasTorqueCap,
		TorqueCap:    d.TorqueCap,

		Bumpstop: pipeline.BumpstopConfig{
			Enabled:    d.Bumpstop.Enabled,
			StartAngle: d.Bumpstop.StartAngle,
			MaxAngle:   d.Bumpstop.MaxAngle,
			Stiffness:  d.Bumpstop.Stiffness,
			Damping:    d.Bumpstop.Damping,
		},
		HandsOff: pipeline.HandsOffConfig{
			Enabled:   d.HandsOff.Enabled,
			Threshold: d.HandsOff.Threshold,
			TimeoutS:  d.HandsOff.TimeoutS,
		},
	}, nil
}

// Package curves implements the response-curve evaluator (component C):
// piecewise/bezier/exponential/logarithmic/custom curves collapsed at
// compile time into a 256-sample lookup table so the RT hot path never
// evaluates a transcendental function.
package curves

import "math"

// LUTSize is the number of uniformly spaced samples pre-computed for every
// response curve, per the compiler's hashing and pipeline contracts.
const LUTSize = 256

// Kind identifies the shape of a response curve.
type Kind uint8

const (
	Linear Kind = iota
	Exponential
	Logarithmic
	Bezier
	Custom
)

// Spec is the declarative description of a response curve, as carried in a
// FilterConfig. Exactly one field set is meaningful depending on Kind.
type Spec struct {
	Kind Kind

	// Exponential
	Exponent float64

	// Logarithmic
	Base float64

	// Bezier: exactly 4 control points (x,y) in [0,1]^2.
	BezierPoints [4][2]float64

	// Custom: a caller-supplied 256-sample table, copied verbatim into the LUT.
	CustomSamples [LUTSize]float32
}

// LUT is a pre-sampled, immutable 256-entry response curve. Once built it
// never allocates and is safe to read concurrently from the RT thread.
type LUT struct {
	kind    Kind
	samples [LUTSize]float32
}

// Kind reports the curve variant the LUT was built from. Used by the
// pipeline compiler's config-hash computation (it hashes the variant tag
// rather than re-deriving it from the samples).
func (l *LUT) Kind() Kind { return l.kind }

// Lookup evaluates the curve at x, clamping x to [0,1] and snapping to the
// nearest sample. NaN input maps to sample 0, matching the "NaN -> 0"
// input-shaping contract for response curves applied on the hot path.
func (l *LUT) Lookup(x float32) float32 {
	if math.IsNaN(float64(x)) {
		x = 0
	}
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	idx := int(x*float32(LUTSize-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx > LUTSize-1 {
		idx = LUTSize - 1
	}
	return l.samples[idx]
}

// SampleAt returns the raw sample value at a specific index in [0, LUTSize),
// used by the pipeline compiler to hash a five-point fingerprint of a
// Custom curve rather than its full contents.
func (l *LUT) SampleAt(idx int) float32 {
	if idx < 0 {
		idx = 0
	}
	if idx > LUTSize-1 {
		idx = LUTSize - 1
	}
	return l.samples[idx]
}

// Build pre-samples spec into a 256-entry LUT. x runs uniformly over [0,1]
// (not [-1,1]); callers that need a symmetric shape apply Build's output to
// |input| and reapply sign, matching the response_curve filter's contract.
func Build(spec Spec) *LUT {
	lut := &LUT{kind: spec.Kind}
	switch spec.Kind {
	case Linear:
		for i := 0; i < LUTSize; i++ {
			lut.samples[i] = float32(i) / float32(LUTSize-1)
		}
	case Exponential:
		exp := spec.Exponent
		if exp <= 0 {
			exp = 1
		}
		for i := 0; i < LUTSize; i++ {
			x := float64(i) / float64(LUTSize-1)
			lut.samples[i] = float32(math.Pow(x, exp))
		}
	case Logarithmic:
		base := spec.Base
		if base <= 1 {
			base = math.E
		}
		denom := math.Log(1 + base)
		for i := 0; i < LUTSize; i++ {
			x := float64(i) / float64(LUTSize-1)
			lut.samples[i] = float32(math.Log(1+base*x) / denom)
		}
	case Bezier:
		for i := 0; i < LUTSize; i++ {
			t := float64(i) / float64(LUTSize-1)
			_, y := cubicBezier(spec.BezierPoints, t)
			lut.samples[i] = float32(y)
		}
	case Custom:
		lut.samples = spec.CustomSamples
	default:
		for i := 0; i < LUTSize; i++ {
			lut.samples[i] = float32(i) / float32(LUTSize-1)
		}
	}
	return lut
}

// cubicBezier evaluates a 4-control-point Bezier curve at parameter t,
// returning (x,y). Used only at compile time (pre-sampling), never on the
// hot path.
func cubicBezier(p [4][2]float64, t float64) (float64, float64) {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	x := a*p[0][0] + b*p[1][0] + c*p[2][0] + d*p[3][0]
	y := a*p[0][1] + b*p[1][1] + c*p[2][1] + d*p[3][1]
	return x, y
}

package pipeline

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// ConfigHash computes a deterministic 64-bit digest of cfg: the same
// FilterConfig hashed twice always yields the same value, and configs
// differing in any field yield different values (collision-free under
// FNV-1a's probabilistic bound). Every float field is hashed by its
// IEEE-754 bit pattern rather than its nominal value, so NaN hashes
// deterministically and +0.0 and -0.0 hash differently (their bit
// patterns differ in the sign bit). The curve-point and notch lists are
// each prefixed with their length so entries cannot shift from one list
// into the other without changing the hash.
func ConfigHash(cfg FilterConfig) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		h.Write(buf[:4])
	}
	writeF32 := func(v float32) { writeU32(math.Float32bits(v)) }
	writeBool := func(v bool) {
		if v {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	writeU32(uint32(cfg.ReconstructionTaps))
	writeBool(cfg.HasFriction)
	writeF32(cfg.Friction.Gain)
	writeBool(cfg.Friction.SpeedAdaptive)
	writeBool(cfg.HasDamper)
	writeF32(cfg.Damper.Gain)
	writeBool(cfg.Damper.SpeedAdaptive)
	writeBool(cfg.HasInertia)
	writeF32(cfg.Inertia.Gain)
	writeBool(cfg.Inertia.SpeedAdaptive)
	writeBool(cfg.HasSlewRate)
	writeF32(cfg.SlewRate)
	writeBool(cfg.HasTorqueCap)
	writeF32(cfg.TorqueCap)

	writeU32(uint32(len(cfg.CurvePoints)))
	for _, p := range cfg.CurvePoints {
		writeF32(p.X)
		writeF32(p.Y)
	}

	writeU32(uint32(len(cfg.Notch)))
	for _, n := range cfg.Notch {
		writeF32(n.CenterHz)
		writeF32(n.Q)
		writeF32(n.GainDB)
	}

	writeBool(cfg.Bumpstop.Enabled)
	writeF32(cfg.Bumpstop.StartAngle)
	writeF32(cfg.Bumpstop.MaxAngle)
	writeF32(cfg.Bumpstop.Stiffness)
	writeF32(cfg.Bumpstop.Damping)

	writeBool(cfg.HandsOff.Enabled)
	writeF32(cfg.HandsOff.Threshold)
	writeF32(cfg.HandsOff.TimeoutS)

	hashResponseCurve(cfg.ResponseCurve, writeU32, writeF32)

	return h.Sum64()
}

func hashResponseCurve(rc ResponseCurveConfig, writeU32 func(uint32), writeF32 func(float32)) {
	if !rc.Set {
		writeU32(255)
		return
	}
	switch rc.Kind {
	case ResponseLinear:
		writeU32(0)
	case ResponseExponential:
		writeU32(1)
		writeF32(float32(rc.Exponent))
	case ResponseLogarithmic:
		writeU32(2)
		writeF32(float32(rc.Base))
	case ResponseBezier:
		writeU32(3)
		for _, pt := range rc.BezierPoints {
			writeF32(float32(pt[0]))
			writeF32(float32(pt[1]))
		}
	case ResponseCustom:
		writeU32(4)
		for _, idx := range [5]int{0, 64, 128, 192, 255} {
			writeF32(rc.CustomSamples[idx])
		}
	default:
		writeU32(255)
	}
}

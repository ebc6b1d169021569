// Package frame defines the per-tick record threaded through the filter
// pipeline.
package frame

import "math"

// Frame is the per-tick record read and mutated by every filter node in a
// Pipeline. It carries no owning references: every field is a plain value,
// so a Frame can live on the stack for the lifetime of a tick.
type Frame struct {
	// FFBIn is the raw torque request from telemetry, normalized to [-1, 1].
	FFBIn float32
	// TorqueOut is the running torque value; each filter reads and mutates it.
	TorqueOut float32
	// WheelSpeed is signed, in rad/s.
	WheelSpeed float32
	// HandsOff is latched true by the hands-off detector filter.
	HandsOff bool
	// TSMonoNS is the monotonic tick timestamp in nanoseconds.
	TSMonoNS uint64
	// Seq is the monotonic tick counter.
	Seq uint32
}

// Finite reports whether TorqueOut currently holds a finite value. Filters
// must never turn a finite TorqueOut into a non-finite one; callers that
// detect the opposite (a PipelineFault, see internal/fmea) check this
// between nodes.
func (f Frame) Finite() bool {
	return !math.IsNaN(float64(f.TorqueOut)) && !math.IsInf(float64(f.TorqueOut), 0)
}

// Next returns a copy of f advanced to the next tick: Seq incremented and
// TSMonoNS set to tsMonoNS, with FFBIn/WheelSpeed taken from the latest
// telemetry sample and TorqueOut reset to FFBIn (the pipeline's starting
// point for the new tick).
func Next(ffbIn, wheelSpeed float32, tsMonoNS uint64, prevSeq uint32) Frame {
	return Frame{
		FFBIn:      ffbIn,
		TorqueOut:  ffbIn,
		WheelSpeed: wheelSpeed,
		TSMonoNS:   tsMonoNS,
		Seq:        prevSeq + 1,
	}
}

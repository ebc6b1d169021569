package pipeline

import (
	"unsafe"

	"github.com/openracing/ffbengine/internal/ffbcore/curves"
	"github.com/openracing/ffbengine/internal/ffbcore/filters"
	"github.com/openracing/ffbengine/internal/ffbcore/frame"
)

// stateAlign is the alignment every node's state offset is padded to. It
// matches align_of::<f64>() in the source design: 8 bytes covers every
// state type in the filter library on every platform Go targets.
const stateAlign = 8

// Pipeline is the compiled, immutable sequence of filter nodes plus one
// packed, 8-byte-aligned state buffer. Once built, Process never
// allocates: node count, state buffer, and offsets are all fixed, and the
// only optional heap-referencing field is ResponseCurveLUT.
type Pipeline struct {
	nodes        []filters.NodeFn
	state        []byte
	stateOffsets []int
	configHash   uint64

	// ResponseCurveLUT, if non-nil, is applied once after every node in
	// the chain has run (RT loop step 5) — it is a pipeline-level stage,
	// not a per-node filter, so it needs no entry in stateOffsets.
	ResponseCurveLUT *curves.LUT
}

// NodeCount reports the number of filter nodes in the pipeline.
func (p *Pipeline) NodeCount() int { return len(p.nodes) }

// ConfigHash reports the deterministic hash of the FilterConfig this
// pipeline was compiled from.
func (p *Pipeline) ConfigHash() uint64 { return p.configHash }

// IsEmpty reports whether the pipeline has no filter nodes (an identity
// transform, modulo any response curve).
func (p *Pipeline) IsEmpty() bool { return len(p.nodes) == 0 }

// addNode appends a node function and reserves 8-byte-aligned space for
// its state in the packed buffer, returning the node's index.
func (p *Pipeline) addNode(fn filters.NodeFn, stateSize uintptr) int {
	current := len(p.state)
	alignedOffset := (current + stateAlign - 1) &^ (stateAlign - 1)

	if alignedOffset > current {
		p.state = append(p.state, make([]byte, alignedOffset-current)...)
	}
	offset := len(p.state)
	p.stateOffsets = append(p.stateOffsets, offset)
	p.state = append(p.state, make([]byte, stateSize)...)
	p.nodes = append(p.nodes, fn)
	return len(p.nodes) - 1
}

// initNodeState writes the bit pattern of initial at the node's recorded,
// aligned offset. This is the only place outside Process that touches the
// packed buffer's raw bytes, matching the source design's single
// raw-write site.
func initNodeState[T any](p *Pipeline, nodeIndex int, initial T) {
	offset := p.stateOffsets[nodeIndex]
	ptr := (*T)(unsafe.Pointer(&p.state[offset]))
	*ptr = initial
}

// Process runs every node in order against f, then applies the pipeline
// response curve if one is set. It performs no allocation and is safe to
// call from the RT thread.
func (p *Pipeline) Process(f *frame.Frame) {
	base := unsafe.Pointer(nil)
	if len(p.state) > 0 {
		base = unsafe.Pointer(&p.state[0])
	}
	for i, node := range p.nodes {
		statePtr := unsafe.Add(base, p.stateOffsets[i])
		node(f, statePtr)
	}
	if p.ResponseCurveLUT != nil {
		sign := float32(1)
		x := f.TorqueOut
		if x < 0 {
			sign = -1
			x = -x
		}
		f.TorqueOut = sign * p.ResponseCurveLUT.Lookup(x)
	}
}
